// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package smoothled

import (
	"errors"
	"fmt"

	"github.com/maruel/smoothled/fixed"
	"github.com/maruel/smoothled/gamma"
)

// fadeDone is the fade position at which a fade is over.
const fadeDone = 0x8000

// Opts defines the options for Leds.
type Opts struct {
	NumChannels int         // Number of LED channels, e.g. 3 per RGB pixel.
	Gamma       gamma.Table // Defaults to gamma.Gamma25 when nil.
	DitherMask  uint8       // Bits of the output residual carried to the next tick.
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	NumChannels: 150 * 3,
	Gamma:       gamma.Gamma25,
	DitherMask:  0xF8,
}

// Leds is an array of channels sharing a gamma table and a fade clock.
//
// The fade clock defines fade epochs. BeginFade starts an epoch of N ticks and
// SetFadeTarget schedules the channels to reach their target at the end of
// the current epoch. Channel steps are expressed per epoch and the channels
// only move while the clock runs: each Update advances them by the distance
// the clock covered, 0x80 being a whole epoch.
type Leds struct {
	s            Sink
	ch           []Interpolator
	lut          gamma.Table
	maxValue     int16
	ditherMask   uint8
	fadeRate     uint16
	fadePosition uint16
	// 0x8000%N spread over an epoch of N ticks started by BeginFade, so it
	// lasts exactly N ticks. fadeLength is 0 when the rate was set directly.
	fadeLength   uint32
	fadeRem      uint32
	fadeErr      uint32
	lastTick     uint16
	clockStarted bool
}

// New returns an initialized Leds writing to s.
func New(s Sink, o *Opts) (*Leds, error) {
	if s == nil {
		return nil, errors.New("smoothled: sink is required")
	}
	if o.NumChannels <= 0 {
		return nil, fmt.Errorf("smoothled: invalid number of channels %d", o.NumChannels)
	}
	lut := o.Gamma
	if lut == nil {
		lut = gamma.Gamma25
	}
	if err := lut.Validate(); err != nil {
		return nil, err
	}
	l := &Leds{
		s:            s,
		ch:           make([]Interpolator, o.NumChannels),
		lut:          lut,
		maxValue:     lut.MaxValue(),
		ditherMask:   o.DitherMask,
		fadePosition: fadeDone,
	}
	// Decorrelate the dither of adjacent channels.
	d := uint8(0)
	for i := range l.ch {
		l.ch[i].dither = d & o.DitherMask
		d += 26
	}
	return l, nil
}

func (l *Leds) String() string {
	return fmt.Sprintf("Leds{%d}", len(l.ch))
}

// NumChannels returns the number of channels.
func (l *Leds) NumChannels() int {
	return len(l.ch)
}

// Interpolators returns the channels' state.
func (l *Leds) Interpolators() []Interpolator {
	return l.ch
}

// Update advances the fade clock by deltaTicks, moves every channel
// accordingly and writes one byte per channel to the sink.
//
// On a sink error the transaction is aborted.
func (l *Leds) Update(deltaTicks int) error {
	if deltaTicks < 0 {
		deltaTicks = 0
	}
	dt := l.advanceFade(deltaTicks)
	if err := l.s.BeginTransaction(); err != nil {
		return err
	}
	for i := range l.ch {
		if err := l.s.WriteByte(l.ch[i].Update(dt, l.lut, l.maxValue, l.ditherMask)); err != nil {
			_ = l.s.AbortTransaction()
			return err
		}
	}
	return l.s.EndTransaction()
}

// UpdateAt is Update with the elapsed ticks computed from a free running
// 16 bits tick counter.
//
// The first call only latches now.
func (l *Leds) UpdateAt(now uint16) error {
	d := now - l.lastTick
	if !l.clockStarted {
		d = 0
		l.clockStarted = true
	}
	l.lastTick = now
	return l.Update(int(d))
}

// BeginFade starts a fade epoch lasting numTicks.
func (l *Leds) BeginFade(numTicks int) {
	if numTicks < 1 {
		numTicks = 1
	}
	l.fadePosition = 0
	l.fadeErr = 0
	if numTicks > fadeDone {
		l.fadeRate = 1
		l.fadeLength = 0
		return
	}
	l.fadeRate = uint16(fadeDone / numTicks)
	l.fadeLength = uint32(numTicks)
	l.fadeRem = uint32(fadeDone % numTicks)
}

// StopFade ends the current epoch and freezes the fade clock.
func (l *Leds) StopFade() {
	l.fadeRate = 0
	l.fadeLength = 0
	l.fadePosition = fadeDone
}

// IsFading returns true while the current fade epoch is not over.
func (l *Leds) IsFading() bool {
	return l.fadePosition < fadeDone
}

// FadeRate returns the fade position increment per tick, 0x8000 being one
// epoch per tick.
func (l *Leds) FadeRate() uint16 {
	return l.fadeRate
}

// SetFadeRate changes the speed of the current epoch.
func (l *Leds) SetFadeRate(rate uint16) {
	l.fadeRate = rate
	l.fadeLength = 0
}

// FadePosition returns the progress of the current epoch, 0x8000 or more
// meaning done.
func (l *Leds) FadePosition() uint16 {
	return l.fadePosition
}

// SetFadePosition moves the progress of the current epoch.
func (l *Leds) SetFadePosition(p uint16) {
	if p > fadeDone {
		p = fadeDone
	}
	l.fadePosition = p
	l.fadeErr = 0
}

// SetFadeTarget sets the channels starting at index to fade to colors over
// one epoch, so they land at the end of an epoch started by BeginFade.
func (l *Leds) SetFadeTarget(index int, colors []byte) {
	l.SetFadeTargetFraction(index, colors, fadeDone)
}

// SetFadeTargetFraction sets the channels starting at index to fade to colors
// in 0x8000/fraction epochs.
func (l *Leds) SetFadeTargetFraction(index int, colors []byte, fraction uint16) {
	ch := l.ch[index : index+len(colors)]
	scale := l.lut.Scale()
	for i, c := range colors {
		ch[i].SetTarget(c, scale, fraction)
	}
}

// ClearFadeTarget stops count channels starting at index.
func (l *Leds) ClearFadeTarget(index, count int) {
	ch := l.ch[index : index+count]
	for i := range ch {
		ch[i].Stop()
	}
}

// Set jumps the channels starting at index to colors.
func (l *Leds) Set(index int, colors []byte) {
	ch := l.ch[index : index+len(colors)]
	scale := l.lut.Scale()
	for i, c := range colors {
		ch[i].Set(int16(fixed.Expand(c, scale)))
	}
}

// SetGamma replaces the gamma table.
//
// It should only be called between fades. Channels beyond the new table's
// range are clamped.
func (l *Leds) SetGamma(lut gamma.Table) error {
	if err := lut.Validate(); err != nil {
		return err
	}
	l.lut = lut
	l.maxValue = lut.MaxValue()
	for i := range l.ch {
		if l.ch[i].value > l.maxValue {
			l.ch[i].value = l.maxValue
		}
	}
	return nil
}

// SetDitherMask replaces the dither mask.
func (l *Leds) SetDitherMask(mask uint8) {
	l.ditherMask = mask
}

// Private details.

// advanceFade moves the fade clock by ticks and returns how far the channels
// must move, in 1/0x80 of an epoch. The last partial step of an epoch
// completes it, since fadeRate is rounded down.
//
// When the epoch was started by BeginFade, the remainder of its rate is added
// one unit at a time the way a line is rasterized.
//
// Only the high byte of the position counts, so the returned values of a
// whole epoch always sum to exactly 0x80.
func (l *Leds) advanceFade(ticks int) uint16 {
	if l.fadePosition >= fadeDone || ticks == 0 {
		return 0
	}
	if ticks > 0xFFFF {
		ticks = 0xFFFF
	}
	p := uint32(l.fadePosition) + uint32(l.fadeRate)*uint32(ticks)
	if l.fadeLength != 0 {
		e := l.fadeErr + l.fadeRem*uint32(ticks)
		p += e / l.fadeLength
		l.fadeErr = e % l.fadeLength
	}
	if p+uint32(l.fadeRate) > fadeDone {
		p = fadeDone
	}
	last := l.fadePosition
	l.fadePosition = uint16(p)
	return l.fadePosition>>8 - last>>8
}
