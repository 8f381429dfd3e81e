// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gamma implements perceptual brightness lookup tables.
//
// A Table maps a coarse brightness index to a 16 bit output value in 8.8 fixed
// point. Positions between two entries are interpolated linearly, so a 65
// entries table covers 64 intervals of 256 steps each.
package gamma

import (
	"errors"
	"fmt"
	"math"

	"github.com/maruel/smoothled/fixed"
)

// MaxSize is the largest table that keeps positions within an int16.
const MaxSize = 128

// Table is a monotonically non-decreasing gamma lookup table.
type Table []uint16

// Scale returns the number of intervals in the table.
func (t Table) Scale() uint8 {
	return uint8(len(t) - 1)
}

// MaxValue returns the largest position that can be looked up.
func (t Table) MaxValue() int16 {
	return int16((len(t)-1)*256 - 1)
}

// Lookup returns the gamma corrected output value for a position.
//
// The high byte of value selects the interval, the low byte interpolates
// within it. value must be in [0, MaxValue()].
func (t Table) Lookup(value int16) uint16 {
	i := int(value >> 8)
	return fixed.Lerp(t[i], t[i+1], uint8(value))
}

// Validate returns an error if the table cannot be used for interpolation.
func (t Table) Validate() error {
	if len(t) < 2 {
		return errors.New("gamma: table must have at least 2 entries")
	}
	if len(t) > MaxSize {
		return fmt.Errorf("gamma: table has %d entries; max is %d", len(t), MaxSize)
	}
	for i := 1; i < len(t); i++ {
		if t[i] < t[i-1] {
			return fmt.Errorf("gamma: table is decreasing at index %d", i)
		}
	}
	return nil
}

// Generate returns a table of size entries approximating x^gamma.
//
// maxBright scales the curve; 1. reaches 0xff00 at the last entry. The input
// is stretched by maxValue/(maxValue-1) so the last addressable position, one
// step short of the last entry, still reaches full brightness.
func Generate(gamma, maxBright float64, size int) (Table, error) {
	if size < 2 || size > MaxSize {
		return nil, fmt.Errorf("gamma: invalid size %d", size)
	}
	if gamma <= 0 || math.IsNaN(gamma) {
		return nil, fmt.Errorf("gamma: invalid gamma %g", gamma)
	}
	if maxBright <= 0 || maxBright > 1 {
		return nil, fmt.Errorf("gamma: invalid brightness %g", maxBright)
	}
	maxValue := float64((size - 1) * 256)
	t := make(Table, size)
	for i := range t {
		x := float64(i) * maxBright / float64(size-1) * maxValue / (maxValue - 1)
		v := math.Pow(x, gamma)*0xff00 + .5
		if v > 0xff00 {
			v = 0xff00
		}
		t[i] = uint16(v)
	}
	return t, nil
}

// Gamma25 is a gamma 2.5 table with 64 intervals.
var Gamma25 = Table{
	0x0000, 0x0002, 0x000b, 0x001f, 0x0040, 0x0070, 0x00b1, 0x0105,
	0x016c, 0x01e9, 0x027c, 0x0327, 0x03ec, 0x04ca, 0x05c3, 0x06d9,
	0x080c, 0x095d, 0x0acd, 0x0c5e, 0x0e0f, 0x0fe2, 0x11d7, 0x13f0,
	0x162d, 0x188f, 0x1b16, 0x1dc5, 0x209a, 0x2397, 0x26bd, 0x2a0c,
	0x2d85, 0x3129, 0x34f9, 0x38f4, 0x3d1c, 0x4171, 0x45f4, 0x4aa5,
	0x4f86, 0x5496, 0x59d7, 0x5f48, 0x64eb, 0x6ac0, 0x70c8, 0x7703,
	0x7d71, 0x8414, 0x8aec, 0x91f8, 0x993b, 0xa0b4, 0xa865, 0xb04c,
	0xb86c, 0xc0c4, 0xc955, 0xd21f, 0xdb23, 0xe462, 0xeddc, 0xf791,
	0xff00,
}

// Linear is a straight line table, useful to disable gamma correction.
var Linear = Table{0x0000, 0xff00}
