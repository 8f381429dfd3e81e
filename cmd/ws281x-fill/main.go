// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ws281x-fill fades a whole strip to a single color.
//
// It is a quick way to check the wiring without running the network daemon.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/maruel/smoothled/gamma"
	"github.com/maruel/smoothled/smoothled"
	"github.com/maruel/smoothled/ws281x"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

// parseColor parses a RRGGBB string into the WS2812 G, R, B order.
func parseColor(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 3 {
		return nil, fmt.Errorf("invalid color %q; use RRGGBB", s)
	}
	return []byte{b[1], b[0], b[2]}, nil
}

// fill fades l to color over ticks, one Update per tick period.
func fill(l *smoothled.Leds, color []byte, ticks int, tick time.Duration) error {
	colors := make([]byte, l.NumChannels())
	for i := range colors {
		colors[i] = color[i%len(color)]
	}
	l.BeginFade(ticks)
	l.SetFadeTarget(0, colors)
	for l.IsFading() {
		if err := l.Update(1); err != nil {
			return err
		}
		time.Sleep(tick)
	}
	return nil
}

func mainImpl() error {
	spiName := flag.String("spi", "", "SPI port to use")
	n := flag.Int("n", 150, "number of pixels")
	color := flag.String("color", "ffffff", "color as RRGGBB")
	fade := flag.Duration("fade", time.Second, "fade duration")
	khz := flag.Int("khz", 800, "LED bit rate in kHz")
	invert := flag.Bool("invert", false, "invert the SPI output, for an inverting level shifter")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if *n < 1 {
		return errors.New("-n must be positive")
	}
	c, err := parseColor(*color)
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	p, err := spireg.Open(*spiName)
	if err != nil {
		return err
	}
	defer p.Close()
	d, err := ws281x.New(p, &ws281x.Opts{NumChannels: 3 * *n, Freq: physic.Frequency(*khz) * physic.KiloHertz, Invert: *invert})
	if err != nil {
		return err
	}
	log.Printf("opened %s", d)
	l, err := smoothled.New(d, &smoothled.Opts{NumChannels: 3 * *n, Gamma: gamma.Gamma25, DitherMask: smoothled.DefaultOpts.DitherMask})
	if err != nil {
		return err
	}
	const tick = 10 * time.Millisecond
	return fill(l, c, int(*fade/tick)+1, tick)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nws281x-fill: %s.\n", err)
		os.Exit(1)
	}
}
