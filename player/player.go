// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package player runs a smoothled.Receiver: a tick loop driving the LEDs and
// a receive loop feeding it datagrams.
//
// The two loops run in separate goroutines and are serialized by a mutex.
package player

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/maruel/smoothled/smoothled"
	"github.com/maruel/smoothled/wire"
)

// Opts defines the options for Player.
type Opts struct {
	Tick               time.Duration // Period of a tick.
	MinUpdatesPerFrame int           // Minimum number of ticks per local frame.
	MaxPacketInterval  int           // Ticks without a new frame before the link is lost.
	IdealFrameStart    int           // Tick of the local frame at which the first packet should arrive.
	// MaxCatchUp is the maximum number of late ticks replayed at once. Ticks
	// beyond are skipped.
	MaxCatchUp int
}

// DefaultOpts is the recommended default options.
//
// A 450 channels WS2812 refresh takes 4.5ms at 800kHz.
var DefaultOpts = Opts{
	Tick:               5 * time.Millisecond,
	MinUpdatesPerFrame: smoothled.DefaultMinUpdatesPerFrame,
	MaxPacketInterval:  smoothled.DefaultMaxPacketInterval,
	IdealFrameStart:    smoothled.DefaultIdealFrameStart,
	MaxCatchUp:         4,
}

// Stats is a snapshot of the player and its receiver.
type Stats struct {
	smoothled.Stats
	Ticks        int // Ticks run.
	SkippedTicks int // Ticks dropped because the loop was too late.
	Datagrams    int // Datagrams read.
	Malformed    int // Datagrams that could not be decoded.
}

// Player serializes the tick and receive paths of a Receiver.
type Player struct {
	o Opts

	mu    sync.Mutex
	r     *smoothled.Receiver
	stats Stats
}

// New returns a Player for r.
//
// r must not be used directly afterward.
func New(r *smoothled.Receiver, o *Opts) (*Player, error) {
	if o.Tick <= 0 {
		return nil, fmt.Errorf("player: invalid tick %s", o.Tick)
	}
	if o.MinUpdatesPerFrame < 1 {
		return nil, fmt.Errorf("player: invalid minimum updates per frame %d", o.MinUpdatesPerFrame)
	}
	if o.MaxPacketInterval < 1 {
		return nil, fmt.Errorf("player: invalid maximum packet interval %d", o.MaxPacketInterval)
	}
	if o.IdealFrameStart < 0 {
		return nil, fmt.Errorf("player: invalid ideal frame start %d", o.IdealFrameStart)
	}
	p := &Player{o: *o, r: r}
	if p.o.MaxCatchUp < 1 {
		p.o.MaxCatchUp = 1
	}
	return p, nil
}

func (p *Player) String() string {
	return fmt.Sprintf("Player{%s, %s}", p.r, p.o.Tick)
}

// Stats returns a snapshot of the counters.
func (p *Player) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Stats = p.r.Stats()
	return s
}

// Step runs one tick.
func (p *Player) Step() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stepLocked()
}

// Receive feeds one packet to the receiver.
//
// It returns false if the packet was dropped.
func (p *Player) Receive(pkt *wire.Packet) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.Receive(pkt.Frame, pkt.Index, pkt.Payload, p.o.IdealFrameStart)
}

// Run runs the tick loop until ctx is canceled or the sink fails.
//
// Late ticks are replayed, up to MaxCatchUp at a time, so the fades keep
// their duration when the loop is briefly starved.
func (p *Player) Run(ctx context.Context) error {
	t := time.NewTicker(p.o.Tick)
	defer t.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			n := int(now.Sub(last) / p.o.Tick)
			if n == 0 {
				continue
			}
			last = last.Add(time.Duration(n) * p.o.Tick)
			if err := p.catchUp(n); err != nil {
				return err
			}
		}
	}
}

// Serve reads datagrams from conn until ctx is canceled or conn fails.
//
// conn is not closed.
func (p *Player) Serve(ctx context.Context, conn net.PacketConn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// Unblock ReadFrom.
			_ = conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()
	// One extra byte to detect oversized datagrams.
	buf := make([]byte, wire.HeaderSize+p.r.PacketSize()+1)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		pkt, err := wire.Decode(buf[:n], p.r.PacketSize())
		p.mu.Lock()
		p.stats.Datagrams++
		if err != nil {
			p.stats.Malformed++
		}
		p.mu.Unlock()
		if err == nil {
			p.Receive(&pkt)
		}
	}
}

// Private details.

func (p *Player) catchUp(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > p.o.MaxCatchUp {
		p.stats.SkippedTicks += n - p.o.MaxCatchUp
		n = p.o.MaxCatchUp
	}
	for ; n > 0; n-- {
		if err := p.stepLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) stepLocked() error {
	p.r.Update(p.o.MinUpdatesPerFrame, p.o.MaxPacketInterval)
	p.stats.Ticks++
	return p.r.Leds().Update(1)
}
