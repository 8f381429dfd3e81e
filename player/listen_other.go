// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package player

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
