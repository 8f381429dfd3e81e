// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package smoothled

import (
	"testing"

	"github.com/maruel/smoothled/gamma"
)

var toy = gamma.Table{0, 100, 400, 1000}

func TestInterpolator_clamp(t *testing.T) {
	maxValue := gamma.Gamma25.MaxValue()
	values := []int16{0, 1, 8000, maxValue - 1, maxValue}
	steps := []int16{-32768, -1000, -1, 0, 1, 1000, 32767}
	dts := []uint16{0, 1, 0x80, 0x100, 0xFFFF}
	for _, v := range values {
		for _, s := range steps {
			for _, dt := range dts {
				i := Interpolator{value: v, step: s}
				i.Update(dt, gamma.Gamma25, maxValue, 0xFF)
				if i.value < 0 || i.value > maxValue {
					t.Fatalf("value=%d step=%d dt=%d: got %d", v, s, dt, i.value)
				}
			}
		}
	}
}

func TestInterpolator_oneTickFade(t *testing.T) {
	i := Interpolator{}
	i.Set(0)
	i.SetTarget(255, toy.Scale(), 0x8000)
	if i.step != 767 {
		t.Fatal(i.step)
	}
	if b := i.Update(0x80, toy, toy.MaxValue(), 0); b != 3 {
		t.Fatal(b)
	}
	if i.value != 767 {
		t.Fatal(i.value)
	}
	// Lookup(767) is 997 so the residual is 0xe5, masked out.
	if i.dither != 0 {
		t.Fatal(i.dither)
	}
}

func TestInterpolator_dither(t *testing.T) {
	i := Interpolator{}
	i.Set(128)
	// Lookup(128) on toy is 50; the residual accumulates until it carries.
	got := []byte{}
	for j := 0; j < 6; j++ {
		got = append(got, i.Update(0, toy, toy.MaxValue(), 0xFF))
	}
	want := []byte{0, 0, 0, 0, 0, 1}
	for j := range want {
		if got[j] != want[j] {
			t.Fatalf("%v != %v", got, want)
		}
	}
}

func TestInterpolator_stop(t *testing.T) {
	i := Interpolator{}
	i.Set(100)
	i.SetFadeTarget(200, 0x8000)
	if i.Step() != 100 {
		t.Fatal(i.Step())
	}
	i.Update(0x40, toy, toy.MaxValue(), 0)
	if i.Value() != 150 {
		t.Fatal(i.Value())
	}
	i.Stop()
	i.Update(0x80, toy, toy.MaxValue(), 0)
	if i.Value() != 150 {
		t.Fatal(i.Value())
	}
}

func TestInterpolator_fadeDown(t *testing.T) {
	i := Interpolator{}
	i.Set(767)
	i.SetTarget(0, toy.Scale(), 0x4000)
	// -767/2 rounds away from zero.
	if i.Step() != -384 {
		t.Fatal(i.Step())
	}
	i.Update(0x80, toy, toy.MaxValue(), 0)
	if i.Value() != 383 {
		t.Fatal(i.Value())
	}
	if b := i.Update(0x80, toy, toy.MaxValue(), 0); b != 0 || i.Value() != 0 {
		t.Fatal(b, i.Value())
	}
}

func TestInterpolator_noOvershoot(t *testing.T) {
	i := Interpolator{}
	i.Set(0)
	i.SetFadeTarget(100, 0x8000)
	i.Update(0x100, toy, toy.MaxValue(), 0)
	if i.Value() != 100 || i.Step() != 0 {
		t.Fatal(i.Value(), i.Step())
	}
	i.SetFadeTarget(50, 0x8000)
	i.Update(0x100, toy, toy.MaxValue(), 0)
	if i.Value() != 50 || i.Step() != 0 {
		t.Fatal(i.Value(), i.Step())
	}
}

func TestInterpolator_smallDelta(t *testing.T) {
	// One color level over 100 units of dt is a quarter unit per tick; it
	// must still land on the target.
	maxValue := gamma.Gamma25.MaxValue()
	data := []struct{ from, to int16 }{
		{6400, 6425},
		{6425, 6400},
		{6425, 6489},
		{6489, 6425},
	}
	for _, line := range data {
		i := Interpolator{}
		i.Set(line.from)
		i.SetFadeTarget(line.to, 0x8000/100)
		if i.Step() == 0 {
			t.Fatalf("%d->%d: no step", line.from, line.to)
		}
		for j := 0; j < 100*0x80/2; j++ {
			i.Update(2, gamma.Gamma25, maxValue, 0xF8)
			lo, hi := line.from, line.to
			if lo > hi {
				lo, hi = hi, lo
			}
			if v := i.Value(); v < lo || v > hi {
				t.Fatalf("%d->%d: out of range %d", line.from, line.to, v)
			}
		}
		if i.Value() != line.to || i.Step() != 0 {
			t.Fatalf("%d->%d: %d", line.from, line.to, i.Value())
		}
	}
}
