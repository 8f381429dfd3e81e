// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package smoothled

import (
	"fmt"
	"log"

	"github.com/maruel/smoothled/gamma"
)

// Defaults for Receiver.Update and Receiver.Receive.
const (
	DefaultMinUpdatesPerFrame = 25
	DefaultMaxPacketInterval  = 250
	DefaultIdealFrameStart    = 4
)

// ReceiverOpts defines the options for Receiver.
type ReceiverOpts struct {
	PacketsPerFrame int // Number of packets a frame is split into.
	PacketSize      int // Channels per packet.
	BufferedFrames  int // Jitter buffer depth per packet.
	// Lead is how many frames ahead of the network frame number payloads are
	// scheduled. Defaults to BufferedFrames.
	Lead       int
	Gamma      gamma.Table
	DitherMask uint8
}

// DefaultReceiverOpts is the recommended default options.
var DefaultReceiverOpts = ReceiverOpts{
	PacketsPerFrame: 3,
	PacketSize:      150,
	BufferedFrames:  3,
	Gamma:           gamma.Gamma25,
	DitherMask:      0xF8,
}

// Receiver synchronizes local playback to frames received from the network.
//
// It measures the network frame period in ticks and paces local frames to it,
// correcting the period by one tick at a time when packets arrive
// consistently early or late.
//
// On each tick, call Update then Leds().Update(1).
type Receiver struct {
	leds            *Leds
	buffers         []*Buffer
	packetsPerFrame int
	packetSize      int
	lead            uint8

	frameCount         uint8 // Local frame counter.
	lastReceivedFrame  uint8
	updateCount        int // Ticks since the start of the local frame.
	timeSinceLastFrame int // Ticks since the last new network frame.
	frameLength        int // Network frame period in ticks; 0 when not synchronized.
	frameDrift         int // Hysteresis counter.
	linkLost           bool
	stats              Stats
}

// NewReceiver returns a Receiver driving o.PacketsPerFrame*o.PacketSize
// channels written to s.
func NewReceiver(s Sink, o *ReceiverOpts) (*Receiver, error) {
	if o.PacketsPerFrame <= 0 || o.PacketsPerFrame > 256 {
		return nil, fmt.Errorf("smoothled: invalid packets per frame %d", o.PacketsPerFrame)
	}
	if o.PacketSize <= 0 {
		return nil, fmt.Errorf("smoothled: invalid packet size %d", o.PacketSize)
	}
	if o.BufferedFrames <= 0 || o.BufferedFrames > 64 {
		return nil, fmt.Errorf("smoothled: invalid buffered frames %d", o.BufferedFrames)
	}
	lead := o.Lead
	if lead == 0 {
		lead = o.BufferedFrames
	}
	if lead < 1 || lead > 64 {
		return nil, fmt.Errorf("smoothled: invalid lead %d", o.Lead)
	}
	l, err := New(s, &Opts{NumChannels: o.PacketsPerFrame * o.PacketSize, Gamma: o.Gamma, DitherMask: o.DitherMask})
	if err != nil {
		return nil, err
	}
	r := &Receiver{
		leds:            l,
		buffers:         make([]*Buffer, o.PacketsPerFrame),
		packetsPerFrame: o.PacketsPerFrame,
		packetSize:      o.PacketSize,
		lead:            uint8(lead),
		linkLost:        true,
	}
	for i := range r.buffers {
		r.buffers[i] = NewBuffer(o.PacketSize, o.BufferedFrames)
	}
	return r, nil
}

func (r *Receiver) String() string {
	return fmt.Sprintf("Receiver{%d×%d}", r.packetsPerFrame, r.packetSize)
}

// Leds returns the channels driven by the receiver.
func (r *Receiver) Leds() *Leds {
	return r.leds
}

// Buffer returns the jitter buffer of a packet slot.
func (r *Receiver) Buffer(packet int) *Buffer {
	return r.buffers[packet]
}

// FrameLength returns the estimated network frame period in ticks, 0 when not
// synchronized.
func (r *Receiver) FrameLength() int {
	return r.frameLength
}

// FrameCount returns the local frame counter.
func (r *Receiver) FrameCount() uint8 {
	return r.frameCount
}

// PacketSize returns the number of channels per packet.
func (r *Receiver) PacketSize() int {
	return r.packetSize
}

// PacketsPerFrame returns the number of packets per frame.
func (r *Receiver) PacketsPerFrame() int {
	return r.packetsPerFrame
}

// Stats returns a copy of the counters.
func (r *Receiver) Stats() Stats {
	s := r.stats
	s.FrameLength = r.frameLength
	s.Evictions = 0
	for _, b := range r.buffers {
		s.Evictions += b.Evictions()
	}
	return s
}

// Update runs one tick of the receiver and returns the tick index within the
// local frame.
//
// A new local frame starts once at least minUpdatesPerFrame ticks elapsed and
// the current fade epoch is over. The packet slot matching the tick index is
// then played, so slots are spread over the first ticks of the frame. When no
// new network frame is seen for maxPacketInterval ticks, the link is
// considered lost.
func (r *Receiver) Update(minUpdatesPerFrame, maxPacketInterval int) int {
	r.updateCount++
	if r.timeSinceLastFrame < 1<<30 {
		r.timeSinceLastFrame++
	}
	if !r.linkLost && r.timeSinceLastFrame >= maxPacketInterval {
		r.loseLink()
	}
	if r.updateCount >= minUpdatesPerFrame && !r.leds.IsFading() {
		r.frameCount++
		r.updateCount = 0
		if r.frameLength != 0 {
			r.leds.BeginFade(r.frameLength)
		}
	}
	if r.updateCount < r.packetsPerFrame {
		r.buffers[r.updateCount].Update(r.frameCount, r.leds, r.updateCount*r.packetSize)
	}
	return r.updateCount
}

// Receive copies data into the jitter buffer for packet of frame.
//
// It returns false when the packet index is out of range or data is not
// exactly PacketSize bytes, in which case it is ignored. A slot is reused
// from older frames so it must be overwritten in full. See WriteBuffer for
// idealFrameStart.
func (r *Receiver) Receive(frame, packet uint8, data []byte, idealFrameStart int) bool {
	if len(data) != r.packetSize {
		r.stats.DroppedPackets++
		return false
	}
	b := r.WriteBuffer(frame, packet, idealFrameStart)
	if b == nil {
		return false
	}
	copy(b, data)
	return true
}

// WriteBuffer records the arrival of packet of frame and returns the slice
// its payload must be written to, or nil if the packet index is out of range.
// The caller must write the whole slice.
//
// idealFrameStart is the tick within the local frame at which the first
// packet of a network frame is expected to arrive.
func (r *Receiver) WriteBuffer(frame, packet uint8, idealFrameStart int) []byte {
	if int(packet) >= r.packetsPerFrame {
		r.stats.DroppedPackets++
		return nil
	}
	r.stats.Packets++
	elapsed := int8(frame - r.lastReceivedFrame)
	if r.linkLost || elapsed > 0 {
		r.stats.Frames++
		if r.frameLength == 0 {
			if !r.linkLost && elapsed == 1 && r.timeSinceLastFrame > r.packetsPerFrame {
				r.lock(frame, packet, idealFrameStart)
			}
		} else {
			r.trackDrift(packet, idealFrameStart)
		}
		r.lastReceivedFrame = frame
		r.timeSinceLastFrame = 0
		r.linkLost = false
	}
	return r.buffers[packet].WriteBuffer(frame + r.lead)
}

// Private details.

// lock captures the frame length and aligns the local frame on the packet.
func (r *Receiver) lock(frame, packet uint8, idealFrameStart int) {
	r.frameLength = r.timeSinceLastFrame
	r.frameDrift = 0
	r.frameCount = frame
	r.updateCount = idealFrameStart + int(packet)
	for _, b := range r.buffers {
		b.Reset()
	}
	// The tick that delivered this packet already ran, so the epoch is one
	// tick ahead of updateCount.
	r.leds.BeginFade(r.frameLength)
	r.leds.SetFadePosition(uint16(min((r.updateCount+1)*fadeDone/r.frameLength, fadeDone)))
	r.stats.Locks++
	log.Printf("smoothled: locked on %d ticks per frame", r.frameLength)
}

// trackDrift compares the arrival tick of the first packet of a frame with
// where it is expected and corrects the frame length by one tick after two
// consecutive samples of the same sign.
func (r *Receiver) trackDrift(packet uint8, idealFrameStart int) {
	sample := r.updateCount - int(packet) - idealFrameStart
	if half := r.frameLength / 2; sample > half {
		sample -= r.frameLength
	} else if sample <= -half {
		sample += r.frameLength
	}
	r.stats.LastDrift = sample
	switch {
	case sample > 0:
		// Arriving late: local frames are too short.
		if r.frameDrift < 0 {
			r.frameDrift = 0
		}
		if r.frameDrift++; r.frameDrift > 1 {
			r.frameDrift = 0
			r.frameLength++
			r.stats.DriftAdjustments++
		}
	case sample < 0:
		if r.frameDrift > 0 {
			r.frameDrift = 0
		}
		if r.frameDrift--; r.frameDrift < -1 {
			r.frameDrift = 0
			if r.frameLength > 1 {
				r.frameLength--
			}
			r.stats.DriftAdjustments++
		}
	default:
		r.frameDrift = 0
	}
}

// loseLink freezes playback until the next lock.
func (r *Receiver) loseLink() {
	r.linkLost = true
	r.frameLength = 0
	r.frameDrift = 0
	for _, b := range r.buffers {
		b.Reset()
	}
	r.leds.StopFade()
	r.leds.ClearFadeTarget(0, r.leds.NumChannels())
	r.stats.LinkLosses++
	log.Printf("smoothled: link lost")
}
