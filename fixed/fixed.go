// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package fixed implements the saturating fixed point primitives used by the
// LED interpolators.
//
// Values are 8.8 fixed point unless noted otherwise. Q7 means 7 fractional
// bits, Q15 means 15 fractional bits so 0x8000 is 1.0.
package fixed

// MulAccQ7 returns value + (a*b)>>7, saturated to the int16 range.
//
// a is signed, b is unsigned Q.7 so 0x80 is 1.0. The shift is arithmetic so
// negative products round toward negative infinity.
func MulAccQ7(value, a int16, b uint16) int16 {
	v, _ := MulAccQ7Carry(value, a, b, 0)
	return v
}

// MulAccQ7Carry is MulAccQ7 with the 7 fractional bits of the product carried
// from one call to the next, so small products accumulate instead of being
// truncated away.
//
// carry is the value returned by the previous call, 0 initially.
func MulAccQ7Carry(value, a int16, b uint16, carry uint8) (int16, uint8) {
	p := int32(a)*int32(b) + int32(carry&0x7F)
	return Sat16(int32(value) + p>>7), uint8(p & 0x7F)
}

// MulQ15 returns (delta*fraction)>>15, saturated to the int16 range.
//
// fraction is unsigned Q1.15; 0x8000 returns delta unchanged.
func MulQ15(delta int16, fraction uint16) int16 {
	return Sat16((int32(delta) * int32(fraction)) >> 15)
}

// MulQ15Away is MulQ15 rounded away from zero.
//
// A non zero delta scaled by a non zero fraction never returns 0.
func MulQ15Away(delta int16, fraction uint16) int16 {
	p := int64(delta) * int64(fraction)
	if p < 0 {
		return Sat16(int32(-((-p + 0x7FFF) >> 15)))
	}
	return Sat16(int32((p + 0x7FFF) >> 15))
}

// Lerp interpolates between a and b, t being the fraction of the way from a
// to b in 1/256th.
//
// The result is bit exact with the 8 bit microcontroller routine it
// replaces: the low byte of the difference is scaled first and only its high
// byte is kept, then the high byte of the difference is scaled in full. All
// arithmetic wraps at 16 bits.
func Lerp(a, b uint16, t uint8) uint16 {
	delta := b - a
	a += (uint16(uint8(delta)) * uint16(t)) >> 8
	a += (delta >> 8) * uint16(t)
	return a
}

// Expand linearly maps an 8 bit color to the 8.8 fixed point position domain
// of a gamma table with scale intervals.
//
// 255 maps to exactly scale*256-1, the last addressable position.
func Expand(color, scale uint8) uint16 {
	s := uint16(color) * uint16(scale)
	return s + s>>8
}

// Sat16 clamps v to the int16 range.
func Sat16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
