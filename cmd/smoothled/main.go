// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// smoothled plays LED frames received over UDP on a WS2812 strip.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/maruel/interrupt"
	"github.com/maruel/smoothled/player"
	"github.com/maruel/smoothled/smoothled"
	"github.com/maruel/smoothled/smoothled/smoothledtest"
	"github.com/maruel/smoothled/ws281x"
	"gopkg.in/yaml.v3"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

// openSink opens the LED strip, or a fake one.
func openSink(c *Config, fake bool) (smoothled.Sink, func() error, error) {
	if fake {
		return &smoothledtest.Discard{}, func() error { return nil }, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	p, err := spireg.Open(c.SPI)
	if err != nil {
		return nil, nil, err
	}
	d, err := ws281x.New(p, c.stripOpts())
	if err != nil {
		p.Close()
		return nil, nil, fmt.Errorf("%s\nIf testing without hardware, use -fake to simulate a strip", err)
	}
	return d, func() error {
		err := d.Halt()
		if err2 := p.Close(); err == nil {
			err = err2
		}
		return err
	}, nil
}

func mainImpl() error {
	configPath := flag.String("config", defaultConfigPath(), "path to the YAML config file")
	port := flag.Int("port", 8010, "http port to listen on, 0 to disable")
	fake := flag.Bool("fake", false, "use a fake strip")
	writeConfig := flag.Bool("writeConfig", false, "write the normalized config file and exit")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	c, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *writeConfig {
		data, err := yaml.Marshal(c)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	interrupt.HandleCtrlC()
	sink, closeSink, err := openSink(c, *fake)
	if err != nil {
		return err
	}
	defer closeSink()

	ro, err := c.receiverOpts()
	if err != nil {
		return err
	}
	// The monitor is wired to the web server once the player exists; nothing
	// is written to the sink before p.Run.
	var m *monitor
	if *port != 0 {
		m = &monitor{Sink: sink, period: 50 * time.Millisecond}
		sink = m
	}
	r, err := smoothled.NewReceiver(sink, ro)
	if err != nil {
		return err
	}
	p, err := player.New(r, c.playerOpts())
	if err != nil {
		return err
	}
	if m != nil {
		m.w = StartWebServer(*port, p)
	}
	conn, err := player.Listen(c.Listen, c.Interface)
	if err != nil {
		return err
	}
	defer conn.Close()
	fmt.Printf("Receiving on %s\n", conn.LocalAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-interrupt.Channel
		cancel()
	}()
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	go func() {
		if err := watchFiles(exe, *configPath); err != nil {
			log.Printf("watch: %s", err)
			return
		}
		interrupt.Set()
	}()

	errc := make(chan error, 2)
	go func() {
		errc <- p.Serve(ctx, conn)
	}()
	go func() {
		errc <- p.Run(ctx)
	}()
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case err := <-errc:
			interrupt.Set()
			if err != nil {
				fmt.Print("\n")
				return err
			}
		case <-ctx.Done():
			fmt.Print("\n")
			return nil
		case <-t.C:
			s := p.Stats()
			fmt.Printf("\r%d ticks %d packets %d frames %d dropped %d evicted %d malformed %d ticks/frame %d drift", s.Ticks, s.Packets, s.Frames, s.DroppedPackets, s.Evictions, s.Malformed, s.FrameLength, s.LastDrift)
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nsmoothled: %s.\n", err)
		os.Exit(1)
	}
}
