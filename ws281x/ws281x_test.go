// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ws281x

import (
	"bytes"
	"testing"

	"github.com/maruel/smoothled/gamma"
	"github.com/maruel/smoothled/smoothled"

	"periph.io/x/periph/conn/conntest"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi/spitest"
)

func TestExpandNRZ(t *testing.T) {
	data := []struct {
		in   byte
		want uint32
	}{
		{0x00, 0x924924},
		{0xFF, 0xDB6DB6},
		{0x80, 0xD24924},
		{0x01, 0x924926},
		{0xAA, 0xDA4DA4},
	}
	for i, line := range data {
		if got := expandNRZ(line.in); got != line.want {
			t.Errorf("#%d: expandNRZ(%#x) = %#x; want %#x", i, line.in, got, line.want)
		}
	}
}

func TestLatchBytes(t *testing.T) {
	if n := latchBytes(800 * physic.KiloHertz); n != 15 {
		t.Fatal(n)
	}
	if n := latchBytes(400 * physic.KiloHertz); n != 8 {
		t.Fatal(n)
	}
}

func TestDev(t *testing.T) {
	s := spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: withLatch(0xDB, 0x6D, 0xB6, 0x92, 0x49, 0x24)},
			},
		},
	}
	d, err := New(&s, &Opts{NumChannels: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.BeginTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteByte(0xFF); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteByte(0x00); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteByte(0x00); err == nil {
		t.Fatal("overflow")
	}
	if err := d.EndTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDev_invert(t *testing.T) {
	s := spitest.Record{}
	d, err := New(&s, &Opts{NumChannels: 1, Invert: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if len(s.Ops) != 1 {
		t.Fatal(len(s.Ops))
	}
	want := withLatch(0x92, 0x49, 0x24)
	for i := range want {
		want[i] = ^want[i]
	}
	if !bytes.Equal(s.Ops[0].W, want) {
		t.Fatalf("%#v", s.Ops[0].W)
	}
}

func TestDev_transactionMisuse(t *testing.T) {
	s := spitest.Record{}
	d, err := New(&s, &Opts{NumChannels: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteByte(1); err == nil {
		t.Fatal("write outside of a transaction")
	}
	if err := d.EndTransaction(); err == nil {
		t.Fatal("no transaction")
	}
	if err := d.BeginTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginTransaction(); err == nil {
		t.Fatal("nested")
	}
	if len(s.Ops) != 0 {
		t.Fatal("nothing must be sent")
	}
}

func TestDev_abort(t *testing.T) {
	s := spitest.Record{}
	d, err := New(&s, &Opts{NumChannels: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.AbortTransaction(); err == nil {
		t.Fatal("no transaction")
	}
	if err := d.BeginTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteByte(0xFF); err != nil {
		t.Fatal(err)
	}
	if err := d.AbortTransaction(); err != nil {
		t.Fatal(err)
	}
	if len(s.Ops) != 0 {
		t.Fatal("an aborted transaction must not be sent")
	}
	// The next transaction starts clean.
	if err := d.BeginTransaction(); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteByte(0); err != nil {
		t.Fatal(err)
	}
	if err := d.EndTransaction(); err != nil {
		t.Fatal(err)
	}
	if len(s.Ops) != 1 || !bytes.Equal(s.Ops[0].W, withLatch(0x92, 0x49, 0x24)) {
		t.Fatalf("%#v", s.Ops)
	}
}

func TestDev_leds_sinkError(t *testing.T) {
	s := spitest.Record{}
	// The strip is shorter than the channels driven, so the last byte fails.
	d, err := New(&s, &Opts{NumChannels: 2})
	if err != nil {
		t.Fatal(err)
	}
	l, err := smoothled.New(d, &smoothled.Opts{NumChannels: 3, Gamma: gamma.Linear})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Update(1); err == nil {
		t.Fatal("expected failure")
	}
	if len(s.Ops) != 0 {
		t.Fatal("a partial frame must not be sent")
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestNew_fail(t *testing.T) {
	data := []Opts{
		{NumChannels: 0},
		{NumChannels: 3, Freq: 100 * physic.KiloHertz},
		{NumChannels: 3, Freq: 2 * physic.MegaHertz},
	}
	for i, line := range data {
		s := spitest.Record{}
		if _, err := New(&s, &line); err == nil {
			t.Errorf("#%d: expected failure", i)
		}
	}
}

func TestDev_leds(t *testing.T) {
	s := spitest.Record{}
	d, err := New(&s, &Opts{NumChannels: 3})
	if err != nil {
		t.Fatal(err)
	}
	l, err := smoothled.New(d, &smoothled.Opts{NumChannels: 3, Gamma: gamma.Linear})
	if err != nil {
		t.Fatal(err)
	}
	l.Set(0, []byte{255, 0, 0})
	if err := l.Update(1); err != nil {
		t.Fatal(err)
	}
	if len(s.Ops) != 1 {
		t.Fatal(len(s.Ops))
	}
	// 255 on a linear table is 0xfe01, so the output is 0xfe.
	e := expandNRZ(0xFE)
	want := withLatch(byte(e>>16), byte(e>>8), byte(e), 0x92, 0x49, 0x24, 0x92, 0x49, 0x24)
	if !bytes.Equal(s.Ops[0].W, want) {
		t.Fatalf("%#v", s.Ops[0].W)
	}
}

//

func withLatch(b ...byte) []byte {
	return append(b, make([]byte, 15)...)
}
