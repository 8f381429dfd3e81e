// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"
	"sort"
)

// pattern renders frame n into dst, 3 bytes per pixel in R, G, B order.
type pattern func(n int, dst []byte)

var patterns = map[string]pattern{
	"rainbow": rainbow,
	"chase":   chase,
	"breathe": breathe,
}

func patternNames() []string {
	var out []string
	for k := range patterns {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func getPattern(name string) (pattern, error) {
	p, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q; valid: %s", name, patternNames())
	}
	return p, nil
}

// rainbow scrolls a full hue circle along the strip.
func rainbow(n int, dst []byte) {
	pixels := len(dst) / 3
	for i := 0; i < pixels; i++ {
		h := float64(i)/float64(pixels) + float64(n)/64
		dst[3*i], dst[3*i+1], dst[3*i+2] = hsv(h-math.Floor(h), 1, 1)
	}
}

// chase moves a single white pixel.
func chase(n int, dst []byte) {
	pixels := len(dst) / 3
	for i := range dst {
		dst[i] = 0
	}
	if pixels == 0 {
		return
	}
	i := n % pixels
	dst[3*i], dst[3*i+1], dst[3*i+2] = 255, 255, 255
}

// breathe fades the whole strip in and out over 32 frames.
func breathe(n int, dst []byte) {
	v := byte(255 * (1 - math.Cos(float64(n%32)*math.Pi/16)) / 2)
	for i := range dst {
		dst[i] = v
	}
}

// hsv converts a color with all components in [0, 1].
func hsv(h, s, v float64) (r, g, b byte) {
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	var rf, gf, bf float64
	switch int(i) % 6 {
	case 0:
		rf, gf, bf = v, t, p
	case 1:
		rf, gf, bf = q, v, p
	case 2:
		rf, gf, bf = p, v, t
	case 3:
		rf, gf, bf = p, q, v
	case 4:
		rf, gf, bf = t, p, v
	default:
		rf, gf, bf = v, p, q
	}
	return byte(rf*255 + .5), byte(gf*255 + .5), byte(bf*255 + .5)
}

// toGRB swaps the first two bytes of each pixel, the WS2812 order.
func toGRB(b []byte) {
	for i := 0; i+1 < len(b); i += 3 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}
