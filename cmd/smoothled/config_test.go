// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maruel/smoothled/gamma"
	"gopkg.in/yaml.v3"
	"periph.io/x/periph/conn/physic"
)

func TestDefaultConfig(t *testing.T) {
	c := defaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	lut, err := c.gammaTable()
	if err != nil {
		t.Fatal(err)
	}
	if &lut[0] != &gamma.Gamma25[0] {
		t.Fatal("expected the built-in table")
	}
	if o := c.stripOpts(); o.NumChannels != 450 || o.Freq != 800*physic.KiloHertz {
		t.Fatalf("%+v", o)
	}
	if o := c.playerOpts(); o.Tick != 5*time.Millisecond {
		t.Fatalf("%+v", o)
	}
}

func TestConfig_Validate(t *testing.T) {
	data := []func(c *Config){
		func(c *Config) { c.Listen = "" },
		func(c *Config) { c.PacketsPerFrame = 0 },
		func(c *Config) { c.PacketsPerFrame = 257 },
		func(c *Config) { c.PacketSize = 0 },
		func(c *Config) { c.Tick = 0 },
		func(c *Config) { c.Gamma = 0 },
		func(c *Config) { c.Brightness = 1.5 },
	}
	for i, mutate := range data {
		c := defaultConfig()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("#%d: expected failure", i)
		}
	}
}

func TestConfig_gammaGenerated(t *testing.T) {
	c := defaultConfig()
	c.Brightness = .5
	lut, err := c.gammaTable()
	if err != nil {
		t.Fatal(err)
	}
	if len(lut) != len(gamma.Gamma25) || lut[len(lut)-1] >= gamma.Gamma25[len(lut)-1] {
		t.Fatalf("%v", lut)
	}
	o, err := c.receiverOpts()
	if err != nil {
		t.Fatal(err)
	}
	if o.PacketsPerFrame != 3 || len(o.Gamma) != len(lut) {
		t.Fatalf("%+v", o)
	}
}

func TestConfig_yaml(t *testing.T) {
	c := defaultConfig()
	src := "listen: 239.1.2.3:5568\ntick: 2ms\npacket_size: 30\ninvert: true\n"
	if err := yaml.Unmarshal([]byte(src), c); err != nil {
		t.Fatal(err)
	}
	if c.Listen != "239.1.2.3:5568" || c.Tick != 2*time.Millisecond || c.PacketSize != 30 || !c.Invert {
		t.Fatalf("%+v", c)
	}
	// Untouched fields keep their default.
	if c.PacketsPerFrame != 3 {
		t.Fatal(c.PacketsPerFrame)
	}
}

func TestLoadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "smoothled.yaml")
	c, err := loadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Listen != ":5568" {
		t.Fatal(c.Listen)
	}
	// The missing file was created in normalized form.
	data, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "tick: 5ms\n") {
		t.Fatalf("%s", data)
	}
	if err := ioutil.WriteFile(p, []byte("packet_size: 10\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if c, err = loadConfig(p); err != nil {
		t.Fatal(err)
	}
	if c.PacketSize != 10 {
		t.Fatal(c.PacketSize)
	}
	if data, _ = ioutil.ReadFile(p); !strings.Contains(string(data), "packets_per_frame: 3\n") {
		t.Fatalf("%s", data)
	}
}

func TestLoadConfig_fail(t *testing.T) {
	p := filepath.Join(t.TempDir(), "smoothled.yaml")
	if err := ioutil.WriteFile(p, []byte("packet_size: [\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(p); err == nil {
		t.Fatal("invalid yaml")
	}
	if err := ioutil.WriteFile(p, []byte("packet_size: 0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(p); err == nil {
		t.Fatal("invalid config")
	}
}
