// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"github.com/maruel/smoothled/player"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// newRegistry exports the player's stats.
func newRegistry(p *player.Player) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	counters := []struct {
		name, help string
		get        func(s *player.Stats) int
	}{
		{"ticks_total", "Ticks run.", func(s *player.Stats) int { return s.Ticks }},
		{"skipped_ticks_total", "Ticks dropped because the tick loop was late.", func(s *player.Stats) int { return s.SkippedTicks }},
		{"datagrams_total", "Datagrams read.", func(s *player.Stats) int { return s.Datagrams }},
		{"malformed_datagrams_total", "Datagrams that could not be decoded.", func(s *player.Stats) int { return s.Malformed }},
		{"packets_total", "Packets accepted by the receiver.", func(s *player.Stats) int { return s.Packets }},
		{"dropped_packets_total", "Packets with an out of range index or a bad payload length.", func(s *player.Stats) int { return s.DroppedPackets }},
		{"frames_total", "Network frames seen.", func(s *player.Stats) int { return s.Frames }},
		{"evictions_total", "Buffered frames overwritten before being played.", func(s *player.Stats) int { return s.Evictions }},
		{"locks_total", "Frame length captures.", func(s *player.Stats) int { return s.Locks }},
		{"link_losses_total", "Link losses.", func(s *player.Stats) int { return s.LinkLosses }},
		{"drift_adjustments_total", "Frame length corrections.", func(s *player.Stats) int { return s.DriftAdjustments }},
	}
	for _, c := range counters {
		get := c.get
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "smoothled",
			Name:      c.name,
			Help:      c.help,
		}, func() float64 {
			s := p.Stats()
			return float64(get(&s))
		})
	}
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "smoothled",
		Name:      "frame_length_ticks",
		Help:      "Estimated network frame period, 0 when not synchronized.",
	}, func() float64 { return float64(p.Stats().FrameLength) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "smoothled",
		Name:      "drift_ticks",
		Help:      "Last drift sample.",
	}, func() float64 { return float64(p.Stats().LastDrift) })
	return reg
}
