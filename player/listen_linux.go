// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package player

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddr lets a restarted daemon bind while the old socket lingers.
func reuseAddr(network, address string, c syscall.RawConn) error {
	var err error
	if err2 := c.Control(func(fd uintptr) {
		err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err2 != nil {
		return err2
	}
	return err
}
