// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package player

import (
	"context"
	"fmt"
	"log"
	"net"

	"golang.org/x/net/ipv4"
)

// Listen opens an UDP socket on addr.
//
// When addr is a multicast group, the group is joined on the interface named
// ifname, or the system default one when ifname is empty.
func Listen(addr, ifname string) (net.PacketConn, error) {
	ua, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	lc := net.ListenConfig{Control: reuseAddr}
	c, err := lc.ListenPacket(context.Background(), "udp4", ua.String())
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	if !ua.IP.IsMulticast() {
		return c, nil
	}
	var ifi *net.Interface
	if ifname != "" {
		if ifi, err = net.InterfaceByName(ifname); err != nil {
			c.Close()
			return nil, fmt.Errorf("player: %w", err)
		}
	}
	if err := ipv4.NewPacketConn(c).JoinGroup(ifi, &net.UDPAddr{IP: ua.IP}); err != nil {
		c.Close()
		return nil, fmt.Errorf("player: failed to join %s: %w", ua.IP, err)
	}
	log.Printf("player: joined %s", ua)
	return c, nil
}
