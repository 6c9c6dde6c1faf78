// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"fmt"
	"net"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/smppd/smppd-go/pkg/pdu"
)

// DefaultConnectTimeout bounds an outbound connection attempt.
const DefaultConnectTimeout = 30 * time.Second

// ConnectorConfig describes how to obtain an outbound connection. Either an
// existing connection is adopted through Conn, or a fresh one is dialed to
// Address and Port.
type ConnectorConfig struct {
	// Conn is an optional pre-existing connection to be reconfigured and
	// adopted instead of dialing.
	Conn net.Conn

	Address string

	// Port defaults to the well-known SMPP port.
	Port int

	// ConnectTimeout defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

func (cc ConnectorConfig) addr() string {
	port := cc.Port
	if port == 0 {
		port = pdu.DefaultPort
	}
	return net.JoinHostPort(cc.Address, strconv.Itoa(port))
}

// Connect returns a ready outbound connection: the adopted existing one,
// reconfigured in place, or a freshly dialed one. Exclusive ownership of the
// returned connection passes to the caller.
func Connect(config ConnectorConfig) (net.Conn, error) {
	if config.Conn != nil {
		if err := configureConn(config.Conn); err != nil {
			return nil, fmt.Errorf("reconfiguring existing connection: %w", err)
		}
		return config.Conn, nil
	}

	timeout := config.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	conn, err := dial(config.addr(), timeout)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"address": config.addr(),
	}).Debug("Connector established an outbound connection")

	return conn, nil
}

// configureConn applies the required socket options to an adopted
// connection: no pending deadlines and keepalive probing.
func configureConn(conn net.Conn) error {
	if err := conn.SetDeadline(time.Time{}); err != nil {
		return err
	}

	return setKeepAlive(conn)
}
