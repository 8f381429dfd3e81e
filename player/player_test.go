// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package player

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/maruel/smoothled/smoothled"
	"github.com/maruel/smoothled/smoothled/smoothledtest"
	"github.com/maruel/smoothled/wire"
)

func TestNew_fail(t *testing.T) {
	r, _ := newTestReceiver(t)
	data := []Opts{
		{},
		{Tick: time.Millisecond, MaxPacketInterval: 1},
		{Tick: time.Millisecond, MinUpdatesPerFrame: 1},
		{Tick: time.Millisecond, MinUpdatesPerFrame: 1, MaxPacketInterval: 1, IdealFrameStart: -1},
	}
	for i, line := range data {
		if _, err := New(r, &line); err == nil {
			t.Errorf("#%d: expected failure", i)
		}
	}
}

func TestPlayer_step(t *testing.T) {
	r, rec := newTestReceiver(t)
	p, err := New(r, &DefaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	for f := uint8(1); f <= 10; f++ {
		if !p.Receive(&wire.Packet{Frame: f, Index: 0, Payload: []byte{255, 128, 0}}) {
			t.Fatal("dropped")
		}
		for i := 0; i < 50; i++ {
			if err := p.Step(); err != nil {
				t.Fatal(err)
			}
		}
	}
	if p.Receive(&wire.Packet{Frame: 11, Index: 1, Payload: []byte{1, 2, 3}}) {
		t.Fatal("out of range index")
	}
	if p.Receive(&wire.Packet{Frame: 11, Index: 0, Payload: []byte{1}}) {
		t.Fatal("short payload")
	}
	s := p.Stats()
	if s.Ticks != 500 || s.FrameLength != 50 || s.Packets != 10 || s.DroppedPackets != 2 {
		t.Fatalf("%+v", s)
	}
	if len(rec.Ops) != 500 {
		t.Fatal(len(rec.Ops))
	}
	if last := rec.Last(); last[0] == 0 || last[2] != 0 {
		t.Fatalf("%v", last)
	}
}

func TestPlayer_catchUp(t *testing.T) {
	r, _ := newTestReceiver(t)
	p, err := New(r, &Opts{Tick: time.Millisecond, MinUpdatesPerFrame: 25, MaxPacketInterval: 250, MaxCatchUp: 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.catchUp(10); err != nil {
		t.Fatal(err)
	}
	if s := p.Stats(); s.Ticks != 3 || s.SkippedTicks != 7 {
		t.Fatalf("%+v", s)
	}
}

func TestPlayer_run(t *testing.T) {
	r, rec := newTestReceiver(t)
	o := DefaultOpts
	o.Tick = time.Millisecond
	p, err := New(r, &o)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	s := p.Stats()
	if s.Ticks == 0 {
		t.Fatal("no tick")
	}
	if len(rec.Ops) != s.Ticks {
		t.Fatalf("%d != %d", len(rec.Ops), s.Ticks)
	}
}

func TestPlayer_serve(t *testing.T) {
	r, _ := newTestReceiver(t)
	p, err := New(r, &DefaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	conn, err := Listen("127.0.0.1:0", "")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error)
	go func() {
		errc <- p.Serve(ctx, conn)
	}()

	c, err := net.Dial("udp4", conn.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	pkt := wire.Packet{Frame: 1, Index: 0, Payload: []byte{1, 2, 3}}
	data := [][]byte{
		pkt.Append(nil),
		{1},
		{1, 0},
		{1, 0, 9},
		{1, 0, 1, 2, 3, 4},
	}
	for _, d := range data {
		if _, err := c.Write(d); err != nil {
			t.Fatal(err)
		}
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		s := p.Stats()
		if s.Datagrams == 5 {
			if s.Malformed != 4 || s.Packets != 1 || s.DroppedPackets != 0 {
				t.Fatalf("%+v", s)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out: %+v", s)
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}

//

func newTestReceiver(t *testing.T) (*smoothled.Receiver, *smoothledtest.Record) {
	rec := &smoothledtest.Record{}
	r, err := smoothled.NewReceiver(rec, &smoothled.ReceiverOpts{PacketsPerFrame: 1, PacketSize: 3, BufferedFrames: 2})
	if err != nil {
		t.Fatal(err)
	}
	return r, rec
}
