// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/maruel/smoothled/gamma"
	"github.com/maruel/smoothled/player"
	"github.com/maruel/smoothled/smoothled"
	"github.com/maruel/smoothled/ws281x"
	"gopkg.in/yaml.v3"
	"periph.io/x/periph/conn/physic"
)

// Config is the daemon's persistent configuration.
type Config struct {
	// Network.
	Listen    string `yaml:"listen"`    // UDP address, may be a multicast group.
	Interface string `yaml:"interface"` // Interface to join the multicast group on.

	// Frame layout.
	PacketsPerFrame int `yaml:"packets_per_frame"`
	PacketSize      int `yaml:"packet_size"`
	BufferedFrames  int `yaml:"buffered_frames"`
	Lead            int `yaml:"lead"`

	// Playback.
	Tick               time.Duration `yaml:"tick"`
	MinUpdatesPerFrame int           `yaml:"min_updates_per_frame"`
	MaxPacketInterval  int           `yaml:"max_packet_interval"`
	IdealFrameStart    int           `yaml:"ideal_frame_start"`
	Gamma              float64       `yaml:"gamma"`
	Brightness         float64       `yaml:"brightness"`
	DitherMask         uint8         `yaml:"dither_mask"`

	// Strip.
	SPI    string `yaml:"spi"` // Empty selects the first SPI port.
	LEDKHz int    `yaml:"led_khz"`
	Invert bool   `yaml:"invert"`
}

func defaultConfig() *Config {
	return &Config{
		Listen:             ":5568",
		PacketsPerFrame:    smoothled.DefaultReceiverOpts.PacketsPerFrame,
		PacketSize:         smoothled.DefaultReceiverOpts.PacketSize,
		BufferedFrames:     smoothled.DefaultReceiverOpts.BufferedFrames,
		Tick:               player.DefaultOpts.Tick,
		MinUpdatesPerFrame: player.DefaultOpts.MinUpdatesPerFrame,
		MaxPacketInterval:  player.DefaultOpts.MaxPacketInterval,
		IdealFrameStart:    player.DefaultOpts.IdealFrameStart,
		Gamma:              2.5,
		Brightness:         1,
		DitherMask:         smoothled.DefaultReceiverOpts.DitherMask,
		LEDKHz:             int(ws281x.DefaultOpts.Freq / physic.KiloHertz),
	}
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen is required")
	}
	if c.PacketsPerFrame < 1 || c.PacketsPerFrame > 256 {
		return fmt.Errorf("packets_per_frame %d is out of range", c.PacketsPerFrame)
	}
	if c.PacketSize < 1 || c.PacketSize > 1400 {
		return fmt.Errorf("packet_size %d is out of range", c.PacketSize)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("tick %s must be positive", c.Tick)
	}
	if c.Gamma <= 0 {
		return fmt.Errorf("gamma %g must be positive", c.Gamma)
	}
	if c.Brightness <= 0 || c.Brightness > 1 {
		return fmt.Errorf("brightness %g must be in (0, 1]", c.Brightness)
	}
	return nil
}

// gammaTable returns the built-in table when possible.
func (c *Config) gammaTable() (gamma.Table, error) {
	if c.Gamma == 2.5 && c.Brightness == 1 {
		return gamma.Gamma25, nil
	}
	return gamma.Generate(c.Gamma, c.Brightness, len(gamma.Gamma25))
}

func (c *Config) receiverOpts() (*smoothled.ReceiverOpts, error) {
	lut, err := c.gammaTable()
	if err != nil {
		return nil, err
	}
	return &smoothled.ReceiverOpts{
		PacketsPerFrame: c.PacketsPerFrame,
		PacketSize:      c.PacketSize,
		BufferedFrames:  c.BufferedFrames,
		Lead:            c.Lead,
		Gamma:           lut,
		DitherMask:      c.DitherMask,
	}, nil
}

func (c *Config) playerOpts() *player.Opts {
	o := player.DefaultOpts
	o.Tick = c.Tick
	o.MinUpdatesPerFrame = c.MinUpdatesPerFrame
	o.MaxPacketInterval = c.MaxPacketInterval
	o.IdealFrameStart = c.IdealFrameStart
	return &o
}

func (c *Config) stripOpts() *ws281x.Opts {
	return &ws281x.Opts{
		NumChannels: c.PacketsPerFrame * c.PacketSize,
		Freq:        physic.Frequency(c.LEDKHz) * physic.KiloHertz,
		Invert:      c.Invert,
	}
}

// defaultConfigPath returns ~/.config/smoothled/smoothled.yaml.
func defaultConfigPath() string {
	usr, err := user.Current()
	if err != nil {
		return "smoothled.yaml"
	}
	return filepath.Join(usr.HomeDir, ".config", "smoothled", "smoothled.yaml")
}

// loadConfig loads the configuration at path, starting from the defaults.
//
// The file is rewritten in normalized form when it differs, so new fields
// show up with their default value. A missing file is created.
func loadConfig(path string) (*Config, error) {
	c := defaultConfig()
	src, err := ioutil.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(src, c); err != nil {
			return nil, fmt.Errorf("%s is invalid yaml: %w", path, err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(src, data) {
		if err := writeConfig(path, data); err != nil {
			log.Printf("failed to normalize %s: %s", path, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func writeConfig(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0600)
}
