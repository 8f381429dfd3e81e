// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package smoothledtest implements fake LED byte sinks.
package smoothledtest

import (
	"errors"
	"sync"
)

// Record is a smoothled.Sink that records every transaction.
type Record struct {
	sync.Mutex
	Ops     [][]byte // One entry per completed transaction.
	Aborted int      // Number of aborted transactions.
	pending []byte
	open    bool
}

// BeginTransaction implements smoothled.Sink.
func (r *Record) BeginTransaction() error {
	r.Lock()
	defer r.Unlock()
	if r.open {
		return errors.New("smoothledtest: nested transaction")
	}
	r.open = true
	r.pending = nil
	return nil
}

// WriteByte implements smoothled.Sink.
func (r *Record) WriteByte(b byte) error {
	r.Lock()
	defer r.Unlock()
	if !r.open {
		return errors.New("smoothledtest: write outside of a transaction")
	}
	r.pending = append(r.pending, b)
	return nil
}

// EndTransaction implements smoothled.Sink.
func (r *Record) EndTransaction() error {
	r.Lock()
	defer r.Unlock()
	if !r.open {
		return errors.New("smoothledtest: no transaction")
	}
	r.open = false
	r.Ops = append(r.Ops, r.pending)
	r.pending = nil
	return nil
}

// AbortTransaction implements smoothled.Sink.
func (r *Record) AbortTransaction() error {
	r.Lock()
	defer r.Unlock()
	if !r.open {
		return errors.New("smoothledtest: no transaction")
	}
	r.open = false
	r.Aborted++
	r.pending = nil
	return nil
}

// Last returns the last completed transaction, or nil.
func (r *Record) Last() []byte {
	r.Lock()
	defer r.Unlock()
	if len(r.Ops) == 0 {
		return nil
	}
	return r.Ops[len(r.Ops)-1]
}

// Discard is a smoothled.Sink that keeps only the last transaction.
//
// It is used when there is no LED strip connected.
type Discard struct {
	sync.Mutex
	last []byte
	buf  []byte
}

// BeginTransaction implements smoothled.Sink.
func (d *Discard) BeginTransaction() error {
	d.Lock()
	d.buf = d.buf[:0]
	d.Unlock()
	return nil
}

// WriteByte implements smoothled.Sink.
func (d *Discard) WriteByte(b byte) error {
	d.Lock()
	d.buf = append(d.buf, b)
	d.Unlock()
	return nil
}

// EndTransaction implements smoothled.Sink.
func (d *Discard) EndTransaction() error {
	d.Lock()
	d.last, d.buf = d.buf, d.last
	d.Unlock()
	return nil
}

// AbortTransaction implements smoothled.Sink.
func (d *Discard) AbortTransaction() error {
	d.Lock()
	d.buf = d.buf[:0]
	d.Unlock()
	return nil
}

// Last returns a copy of the last completed transaction.
func (d *Discard) Last() []byte {
	d.Lock()
	defer d.Unlock()
	return append([]byte(nil), d.last...)
}
