// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package wire encodes and decodes the datagrams carrying LED frames.
//
// A frame is split into packets, each sent as one datagram:
//
//	frame uint8 | index uint8 | payload
//
// The payload is one byte per channel and always covers every channel of its
// packet. The frame number wraps at 256.
package wire

import (
	"errors"
	"fmt"
)

// HeaderSize is the number of bytes before the payload.
const HeaderSize = 2

// Packet is a decoded datagram.
type Packet struct {
	Frame   uint8  // Sender's frame number.
	Index   uint8  // Position of the packet within the frame.
	Payload []byte // Channel values.
}

func (p *Packet) String() string {
	return fmt.Sprintf("Packet{%d, %d, %d bytes}", p.Frame, p.Index, len(p.Payload))
}

// Append appends the encoded datagram to dst and returns the extended slice.
func (p *Packet) Append(dst []byte) []byte {
	dst = append(dst, p.Frame, p.Index)
	return append(dst, p.Payload...)
}

// Decode decodes a datagram.
//
// The payload must be exactly payloadSize bytes. p.Payload aliases b.
func Decode(b []byte, payloadSize int) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, errors.New("wire: datagram too short")
	}
	if n := len(b) - HeaderSize; n != payloadSize {
		return Packet{}, fmt.Errorf("wire: payload is %d bytes; expected %d", n, payloadSize)
	}
	return Packet{Frame: b[0], Index: b[1], Payload: b[HeaderSize:]}, nil
}
