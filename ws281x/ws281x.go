// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ws281x drives WS2811/WS2812 LED strips through the MOSI line of a
// SPI port.
//
// Each data bit is encoded as 3 SPI bits, 1x0, x being the data bit. At 3
// times the LED bit rate this produces the NRZ waveform the LEDs expect: a
// short high pulse for 0 and a long one for 1. The SPI peripheral guarantees
// the bytes of a transaction are sent without gap.
//
// Bytes are sent in the order written. WS2812 strips expect green, red then
// blue for each pixel.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/WS2812B.pdf
package ws281x

import (
	"errors"
	"fmt"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
)

// Opts defines the options for the device.
type Opts struct {
	NumChannels int              // Number of bytes per refresh, 3 per RGB pixel.
	Freq        physic.Frequency // LED bit rate, defaults to 800kHz.
	// Invert inverts every SPI bit, for strips driven through an inverting
	// level shifter.
	Invert bool
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	NumChannels: 150 * 3,
	Freq:        800 * physic.KiloHertz,
}

// Dev is a handle to a LED strip.
//
// It implements smoothled.Sink.
type Dev struct {
	c      spi.Conn
	invert bool
	n      int    // Number of channels.
	buf    []byte // Encoded transaction being built.
	open   bool
	freq   physic.Frequency
}

// New opens a handle to a strip on a SPI port.
//
// The port is clocked at 3 times o.Freq.
func New(p spi.Port, o *Opts) (*Dev, error) {
	if o.NumChannels <= 0 {
		return nil, fmt.Errorf("ws281x: invalid number of channels %d", o.NumChannels)
	}
	f := o.Freq
	if f == 0 {
		f = DefaultOpts.Freq
	}
	if f < 400*physic.KiloHertz || f > 1*physic.MegaHertz {
		return nil, fmt.Errorf("ws281x: invalid frequency %s", f)
	}
	c, err := p.Connect(3*f, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	return &Dev{
		c:      c,
		invert: o.Invert,
		n:      o.NumChannels,
		buf:    make([]byte, 0, 3*o.NumChannels+latchBytes(f)),
		freq:   f,
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ws281x{%s, %d}", d.c, d.n)
}

// BeginTransaction implements smoothled.Sink.
func (d *Dev) BeginTransaction() error {
	if d.open {
		return errors.New("ws281x: transaction already started")
	}
	d.open = true
	d.buf = d.buf[:0]
	return nil
}

// WriteByte implements smoothled.Sink.
func (d *Dev) WriteByte(b byte) error {
	if !d.open {
		return errors.New("ws281x: write outside of a transaction")
	}
	if len(d.buf) >= 3*d.n {
		return errors.New("ws281x: too many bytes")
	}
	e := expandNRZ(b)
	d.buf = append(d.buf, byte(e>>16), byte(e>>8), byte(e))
	return nil
}

// EndTransaction implements smoothled.Sink.
//
// It sends the whole transaction followed by the latch gap.
func (d *Dev) EndTransaction() error {
	if !d.open {
		return errors.New("ws281x: no transaction")
	}
	d.open = false
	for i := latchBytes(d.freq); i > 0; i-- {
		d.buf = append(d.buf, 0)
	}
	if d.invert {
		for i := range d.buf {
			d.buf[i] = ^d.buf[i]
		}
	}
	return d.c.Tx(d.buf, nil)
}

// AbortTransaction implements smoothled.Sink.
//
// The bytes written so far are dropped, nothing is sent.
func (d *Dev) AbortTransaction() error {
	if !d.open {
		return errors.New("ws281x: no transaction")
	}
	d.open = false
	d.buf = d.buf[:0]
	return nil
}

// Halt turns off all the LEDs.
func (d *Dev) Halt() error {
	if err := d.BeginTransaction(); err != nil {
		return err
	}
	for i := 0; i < d.n; i++ {
		if err := d.WriteByte(0); err != nil {
			_ = d.AbortTransaction()
			return err
		}
	}
	return d.EndTransaction()
}

// Private details.

// expandNRZ converts a 8 bit channel intensity into the encoded 24 bits.
func expandNRZ(b byte) uint32 {
	// The stream is 1x01x01x01x01x01x01x01x0 with the x bits being the bits from
	// b, most significant first.
	out := uint32(0x924924)
	for i := uint(0); i < 8; i++ {
		out |= uint32((b>>i)&1) << (3*i + 1)
	}
	return out
}

// latchBytes returns the number of zero bytes needed to hold the line low for
// at least 50µs, which latches the data into the LEDs.
func latchBytes(f physic.Frequency) int {
	// 3 SPI bits per LED bit, 8 SPI bits per byte.
	return int((3*f/physic.Hertz*50/1000000 + 7) / 8)
}
