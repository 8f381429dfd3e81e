// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// smoothled-send sends a test pattern to smoothled.
//
// It can add jitter and packet loss to exercise the receiver's jitter buffer
// and clock recovery.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"math/rand"
	"net"
	"os"
	"strings"
	"time"

	"github.com/maruel/interrupt"
	"github.com/maruel/smoothled/wire"
)

type sender struct {
	conn    net.Conn
	packets int
	size    int
	jitter  time.Duration
	loss    float64
	rnd     *rand.Rand
	sent    int
	lost    int
}

// sendFrame sends frame n split in packets. With jitter, the whole frame is
// delayed by a random amount so consecutive frames may arrive bunched.
func (s *sender) sendFrame(n int, data []byte) {
	var out [][]byte
	for i := 0; i < s.packets; i++ {
		if s.loss > 0 && s.rnd.Float64() < s.loss {
			s.lost++
			continue
		}
		p := wire.Packet{Frame: uint8(n), Index: uint8(i), Payload: data[i*s.size : (i+1)*s.size]}
		out = append(out, p.Append(nil))
	}
	s.sent += len(out)
	send := func() {
		for _, b := range out {
			if _, err := s.conn.Write(b); err != nil {
				log.Printf("write: %s", err)
			}
		}
	}
	if s.jitter <= 0 {
		send()
		return
	}
	time.AfterFunc(time.Duration(s.rnd.Int63n(int64(s.jitter))), send)
}

func mainImpl() error {
	addr := flag.String("addr", "127.0.0.1:5568", "destination, may be a multicast group")
	fps := flag.Float64("fps", 4, "frames per second")
	packets := flag.Int("packets", 3, "packets per frame")
	size := flag.Int("size", 150, "channels per packet")
	name := flag.String("pattern", "rainbow", "pattern: "+strings.Join(patternNames(), ", "))
	rgb := flag.Bool("rgb", false, "send R, G, B instead of the WS2812 G, R, B order")
	jitter := flag.Duration("jitter", 0, "maximum random delay added to each frame")
	loss := flag.Float64("loss", 0, "probability of dropping a packet")
	seed := flag.Int64("seed", 0, "random seed, 0 for time based")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if *fps <= 0 {
		return errors.New("-fps must be positive")
	}
	if *packets < 1 || *packets > 256 {
		return errors.New("-packets must be in [1, 256]")
	}
	if *size < 1 {
		return errors.New("-size must be positive")
	}
	if *loss < 0 || *loss >= 1 {
		return errors.New("-loss must be in [0, 1)")
	}
	p, err := getPattern(*name)
	if err != nil {
		return err
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	conn, err := net.Dial("udp4", *addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	s := &sender{
		conn:    conn,
		packets: *packets,
		size:    *size,
		jitter:  *jitter,
		loss:    *loss,
		rnd:     rand.New(rand.NewSource(*seed)),
	}

	interrupt.HandleCtrlC()
	t := time.NewTicker(time.Duration(float64(time.Second) / *fps))
	defer t.Stop()
	data := make([]byte, *packets**size)
	for n := 0; !interrupt.IsSet(); n++ {
		p(n, data)
		if !*rgb {
			toGRB(data)
		}
		s.sendFrame(n, data)
		fmt.Printf("\r%d frames %d packets %d lost", n+1, s.sent, s.lost)
		select {
		case <-t.C:
		case <-interrupt.Channel:
		}
	}
	fmt.Print("\n")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nsmoothled-send: %s.\n", err)
		os.Exit(1)
	}
}
