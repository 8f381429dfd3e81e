// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !debug

package main

func read(name string) []byte {
	content, ok := staticFiles[name]
	if !ok {
		panic("missing static file " + name)
	}
	return []byte(content)
}
