// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !windows
// +build !windows

package transport

import (
	"net"
	"time"

	"github.com/felixge/tcpkeepalive"
)

func setKeepAlive(conn net.Conn) error {
	return tcpkeepalive.SetKeepAlive(conn, 10*time.Second, 3, 5*time.Second)
}
