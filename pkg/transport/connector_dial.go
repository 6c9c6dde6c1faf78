// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux
// +build !linux

package transport

import (
	"net"
	"time"
)

// This file implements the dialer for operating systems next to Linux. The
// other file additionally sets specific socket options for a better detection
// of connection losses.

// dial a new TCP connection with a bounded connect timeout and keepalive.
func dial(address string, timeout time.Duration) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 5 * time.Second,
	}
	return dialer.Dial("tcp", address)
}
