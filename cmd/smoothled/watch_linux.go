// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"log"
	"os"
	"time"

	"github.com/maruel/interrupt"
	fsnotify "gopkg.in/fsnotify.v1"
)

// watchFiles returns when one of the files is modified or on Ctrl-C.
//
// The executable and the config file are watched so an upgrade or a config
// edit restarts the daemon under its supervisor.
func watchFiles(paths ...string) error {
	mods := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return err
		}
		mods[p] = fi.ModTime()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, p := range paths {
		if err = watcher.Add(p); err != nil {
			return err
		}
	}
	for {
		select {
		case <-interrupt.Channel:
			return nil
		case err = <-watcher.Errors:
			return err
		case e := <-watcher.Events:
			mod0, ok := mods[e.Name]
			if !ok {
				continue
			}
			fi, err := os.Stat(e.Name)
			if err != nil {
				return err
			}
			if !fi.ModTime().Equal(mod0) {
				log.Printf("%s changed", e.Name)
				return nil
			}
		}
	}
}
