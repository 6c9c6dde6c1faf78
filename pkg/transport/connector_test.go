// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"net"
	"testing"
	"time"
)

func TestConnectFresh(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = ln.Close() }()

	tcpAddr := ln.Addr().(*net.TCPAddr)

	conn, err := Connect(ConnectorConfig{
		Address:        tcpAddr.IP.String(),
		Port:           tcpAddr.Port,
		ConnectTimeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	_ = conn.Close()
}

func TestConnectRefused(t *testing.T) {
	// bind and release a port so nobody listens there
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	tcpAddr := ln.Addr().(*net.TCPAddr)
	_ = ln.Close()

	_, err = Connect(ConnectorConfig{
		Address:        tcpAddr.IP.String(),
		Port:           tcpAddr.Port,
		ConnectTimeout: time.Second,
	})
	if err == nil {
		t.Fatal("connecting to a dead port did not error")
	}
}

func TestConnectAdoptExisting(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = ln.Close() }()

	existing, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	conn, err := Connect(ConnectorConfig{Conn: existing})
	if err != nil {
		t.Fatal(err)
	} else if conn != existing {
		t.Fatal("an adopted connection must be returned as-is")
	}

	_ = conn.Close()
}
