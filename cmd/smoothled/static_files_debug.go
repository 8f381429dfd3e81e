// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build debug

package main

import (
	"io/ioutil"
	"path/filepath"
	"runtime"
)

// read reads the file from the source tree so the page can be edited without
// regenerating static_files_gen.go.
func read(name string) []byte {
	_, self, _, _ := runtime.Caller(0)
	content, err := ioutil.ReadFile(filepath.Join(filepath.Dir(self), "static", name))
	if err != nil {
		panic(err)
	}
	return content
}
