// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package smoothled plays back LED frames received from an unreliable network
// with smooth, gamma corrected and dithered fades.
//
// The pipeline is:
//
//	network -> Receiver.WriteBuffer -> Buffer (one per packet slot)
//	tick    -> Receiver.Update -> Buffer.Update -> Leds fade targets
//	tick    -> Leds.Update -> Interpolator.Update -> Sink
//
// Time is counted in ticks, one tick being one call to Leds.Update(1). Fades
// are scheduled in epochs of the fade clock, see Leds.BeginFade. All the
// arithmetic is 16 bits fixed point, see package fixed.
//
// Nothing in this package is safe for concurrent use. The receive path and
// the tick path must be serialized by the caller; package player does this.
package smoothled

import "io"

// Sink is the LED byte sink.
//
// Every Leds.Update call is one transaction: BeginTransaction, one WriteByte
// per channel, then EndTransaction. The sink is expected to emit the bytes
// of a transaction back to back.
//
// When a WriteByte fails, AbortTransaction is called instead of
// EndTransaction; the partial transaction must not be emitted.
type Sink interface {
	BeginTransaction() error
	io.ByteWriter
	EndTransaction() error
	AbortTransaction() error
}

// Stats is the Receiver's counters.
type Stats struct {
	Packets          int // Accepted packets.
	Frames           int // Distinct network frames seen.
	DroppedPackets   int // Packets with an out of range index or a bad payload length.
	Evictions        int // Buffered frames overwritten before being played.
	Locks            int // Number of times the frame length was captured.
	LinkLosses       int
	DriftAdjustments int // Number of frame length corrections.
	LastDrift        int // Last drift sample, in ticks.
	FrameLength      int // Current frame length in ticks, 0 when not synchronized.
}
