// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package smoothled

// Buffer is a jitter buffer for one packet slot.
//
// It is a ring of payloads keyed by an 8 bits frame stamp. A payload is played
// when the local frame counter reaches its stamp, by fading the packet's
// channels so they land on the payload exactly at that frame.
type Buffer struct {
	stamps    []uint8
	data      []byte // len(stamps) * size bytes.
	size      int
	read      int
	write     int // Index of the most recent entry.
	used      int
	timeToRun int8 // Frames until the playing fade completes.
	evictions int
}

// NewBuffer returns a Buffer holding up to depth payloads of size bytes.
func NewBuffer(size, depth int) *Buffer {
	if depth < 1 {
		depth = 1
	}
	b := &Buffer{
		stamps: make([]uint8, depth),
		data:   make([]byte, depth*size),
		size:   size,
	}
	b.Reset()
	return b
}

// Reset drops all the entries.
func (b *Buffer) Reset() {
	b.read = 0
	b.write = len(b.stamps) - 1
	b.used = 0
	b.timeToRun = 0
}

// Used returns the number of pending entries.
func (b *Buffer) Used() int {
	return b.used
}

// Evictions returns the number of entries overwritten before being played.
func (b *Buffer) Evictions() int {
	return b.evictions
}

// WriteBuffer returns the payload slice for stamp.
//
// Successive calls with the same stamp return the same slice. A new stamp
// takes a new entry, evicting the oldest one when full. The slice is only
// valid until the next call.
func (b *Buffer) WriteBuffer(stamp uint8) []byte {
	if b.used == 0 || b.stamps[b.write] != stamp {
		if b.used < len(b.stamps) {
			b.used++
		} else {
			b.read = b.next(b.read)
			b.evictions++
		}
		b.write = b.next(b.write)
		b.stamps[b.write] = stamp
	}
	return b.entry(b.write)
}

// Update plays the buffered entries due at frame now.
//
// It must be called once per frame, at the same tick of each frame. While a
// fade is in flight it only counts down. Once it is due, entries that are already late are skipped and the
// first one in the future is scheduled on the channels starting at offset. If
// there is none, the channels are frozen.
func (b *Buffer) Update(now uint8, l *Leds, offset int) {
	if b.timeToRun > 0 {
		if b.timeToRun--; b.timeToRun > 0 {
			return
		}
	}
	var data []byte
	for b.timeToRun <= 0 && b.used > 0 {
		data = b.entry(b.read)
		b.timeToRun = int8(b.stamps[b.read] - now)
		b.read = b.next(b.read)
		b.used--
	}
	if b.timeToRun > 0 {
		// One epoch per frame. Rounded up so the fade is never short; the
		// channels stop on the target.
		ttr := int(b.timeToRun)
		l.SetFadeTargetFraction(offset, data, uint16((fadeDone+ttr-1)/ttr))
	} else {
		l.ClearFadeTarget(offset, b.size)
	}
}

// Private details.

func (b *Buffer) next(i int) int {
	if i++; i == len(b.stamps) {
		return 0
	}
	return i
}

func (b *Buffer) entry(i int) []byte {
	return b.data[i*b.size : (i+1)*b.size : (i+1)*b.size]
}
