// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package smoothled

import (
	"github.com/maruel/smoothled/fixed"
	"github.com/maruel/smoothled/gamma"
)

// Interpolator is the state of a single LED channel.
//
// value is a position in a gamma table in 8.8 fixed point, step is the signed
// change of value per unit of dt and target is where the fade stops. carry
// holds the fraction of value lost to the last product and dither is the
// fractional part of the last output carried to the next one.
type Interpolator struct {
	value  int16
	step   int16
	target int16
	carry  uint8
	dither uint8
}

// Value returns the current position.
func (i *Interpolator) Value() int16 {
	return i.value
}

// Step returns the current change per unit of dt, 0 when not fading.
func (i *Interpolator) Step() int16 {
	return i.step
}

// Target returns where the current fade ends.
func (i *Interpolator) Target() int16 {
	return i.target
}

// SetFadeTarget sets step so value reaches target after 0x8000/fraction units
// of dt.
//
// fraction is Q1.15: 0x8000 reaches target in one unit. The step is rounded
// away from zero so any distance is eventually covered and value stops
// exactly on target. target must be in the range of the gamma table in use.
func (i *Interpolator) SetFadeTarget(target int16, fraction uint16) {
	i.target = target
	i.step = fixed.MulQ15Away(fixed.Sat16(int32(target)-int32(i.value)), fraction)
}

// SetTarget is SetFadeTarget with an 8 bit color expanded to a table with
// scale intervals.
func (i *Interpolator) SetTarget(color, scale uint8, fraction uint16) {
	i.SetFadeTarget(int16(fixed.Expand(color, scale)), fraction)
}

// Set jumps to value and stops.
func (i *Interpolator) Set(value int16) {
	i.value = value
	i.target = value
	i.step = 0
	i.carry = 0
}

// Stop freezes the current value.
func (i *Interpolator) Stop() {
	i.target = i.value
	i.step = 0
	i.carry = 0
}

// Update advances value by dt and returns the corrected output byte.
//
// dt is Q.7, 0x80 being one unit. The fade stops once target is reached.
func (i *Interpolator) Update(dt uint16, lut gamma.Table, maxValue int16, ditherMask uint8) byte {
	var v int16
	v, i.carry = fixed.MulAccQ7Carry(i.value, i.step, dt, i.carry)
	if (i.step > 0 && v >= i.target) || (i.step < 0 && v <= i.target) {
		v = i.target
		i.step = 0
		i.carry = 0
	}
	if v < 0 {
		v = 0
	} else if v > maxValue {
		v = maxValue
	}
	i.value = v
	c := uint32(lut.Lookup(v)) + uint32(i.dither)
	if c > 0xFFFF {
		c = 0xFFFF
	}
	i.dither = uint8(c) & ditherMask
	return uint8(c >> 8)
}
