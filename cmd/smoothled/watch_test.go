// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build linux

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchFiles(t *testing.T) {
	p := filepath.Join(t.TempDir(), "smoothled.yaml")
	if err := ioutil.WriteFile(p, []byte("a"), 0600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(p, old, old); err != nil {
		t.Fatal(err)
	}
	errc := make(chan error)
	go func() {
		errc <- watchFiles(p)
	}()
	deadline := time.After(5 * time.Second)
	for {
		// The watcher may not be installed yet, so keep touching the file.
		if err := ioutil.WriteFile(p, []byte("b"), 0600); err != nil {
			t.Fatal(err)
		}
		select {
		case err := <-errc:
			if err != nil {
				t.Fatal(err)
			}
			return
		case <-deadline:
			t.Fatal("timed out")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatchFiles_missing(t *testing.T) {
	if err := watchFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected failure")
	}
}
