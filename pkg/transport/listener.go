// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/smppd/smppd-go/pkg/pdu"
	"github.com/smppd/smppd-go/pkg/session"
)

// SessionFunc returns the inbox of the session taking exclusive ownership of
// an accepted connection. Returning a nil channel refuses the connection.
type SessionFunc func(conn net.Conn, peer net.Addr) chan<- session.Status

// ListenerConfig describes how to obtain a listening socket. Either an
// existing one is adopted through Listener, or a fresh one is bound to
// Address and Port.
type ListenerConfig struct {
	// Listener is an optional pre-existing listening socket to be
	// reconfigured and adopted instead of binding a fresh one.
	Listener net.Listener

	// Address is the bind address; resolved from the local host's own
	// address when empty.
	Address string

	// Port defaults to the well-known SMPP port.
	Port int
}

// resolveAddr determines the bind address, falling back to the local host's
// own address.
func (lc ListenerConfig) resolveAddr() (string, error) {
	address := lc.Address
	if address == "" {
		host, err := os.Hostname()
		if err != nil {
			return "", fmt.Errorf("resolving bind address: %w", err)
		}

		addrs, err := net.LookupHost(host)
		if err != nil {
			return "", fmt.Errorf("resolving bind address for %s: %w", host, err)
		} else if len(addrs) == 0 {
			return "", fmt.Errorf("no address known for %s", host)
		}

		address = addrs[0]
	}

	port := lc.Port
	if port == 0 {
		port = pdu.DefaultPort
	}

	return net.JoinHostPort(address, strconv.Itoa(port)), nil
}

// Listener accepts inbound connections and hands each one over to a fresh
// session: ownership of the accepted socket is transferred exactly once, an
// AcceptedStatus is delivered into the new session's inbox and a FrameReader
// loop is started for the connection. Transient accept failures are
// swallowed; a failing listening socket is reported once on Channel and
// terminates the accept loop.
type Listener struct {
	config      ListenerConfig
	codec       pdu.Codec
	raw         RawLogger
	sessionFunc SessionFunc

	addr       net.Addr
	reportChan chan session.Status

	stopSyn chan struct{}
	stopAck chan struct{}
}

// NewListener for the given configuration. A nil RawLogger discards the raw
// traffic of accepted connections.
func NewListener(config ListenerConfig, codec pdu.Codec, raw RawLogger, sessionFunc SessionFunc) *Listener {
	if raw == nil {
		raw = DiscardRawLogger()
	}

	return &Listener{
		config:      config,
		codec:       codec,
		raw:         raw,
		sessionFunc: sessionFunc,
		reportChan:  make(chan session.Status, 32),
		stopSyn:     make(chan struct{}),
		stopAck:     make(chan struct{}),
	}
}

// Start binds or adopts the listening socket and spawns the accept loop.
func (l *Listener) Start() error {
	ln := l.config.Listener

	if ln == nil {
		addr, err := l.config.resolveAddr()
		if err != nil {
			return err
		}

		listenConfig := net.ListenConfig{Control: listenControl}
		if ln, err = listenConfig.Listen(context.Background(), "tcp", addr); err != nil {
			return err
		}
	} else if sc, ok := ln.(syscall.Conn); ok {
		// adopted listeners get the address-reuse option as well; a failing
		// reconfiguration is surfaced, not swallowed
		rawConn, err := sc.SyscallConn()
		if err != nil {
			return err
		}
		if err := listenControl("", "", rawConn); err != nil {
			return err
		}
	}

	l.addr = ln.Addr()

	log.WithFields(log.Fields{
		"address": l.addr,
	}).Info("Listener started")

	go l.handler(ln)

	return nil
}

// Addr returns the bound address, nil before Start.
func (l *Listener) Addr() net.Addr {
	return l.addr
}

// Channel returns the channel listen errors are reported on.
func (l *Listener) Channel() chan session.Status {
	return l.reportChan
}

// Close shuts this Listener down. Already running sessions stay untouched.
func (l *Listener) Close() {
	close(l.stopSyn)
	<-l.stopAck
}

func (l *Listener) handler(ln net.Listener) {
	defer close(l.stopAck)

	for {
		select {
		case <-l.stopSyn:
			_ = ln.Close()
			return

		default:
			if tcpLn, ok := ln.(*net.TCPListener); ok {
				_ = tcpLn.SetDeadline(time.Now().Add(50 * time.Millisecond))
			}

			conn, err := ln.Accept()
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}

				log.WithFields(log.Fields{
					"address": l.addr,
					"error":   err,
				}).Warn("Listener's accept failed, terminating")

				_ = ln.Close()
				l.reportChan <- session.NewListenErrorStatus(err)
				return
			}

			l.handleAccept(conn)
		}
	}
}

// handleAccept transfers an accepted connection to its new session. If the
// connection cannot be configured or its peer resolved, most likely because
// the peer already hung up, it is discarded and accepting continues.
func (l *Listener) handleAccept(conn net.Conn) {
	peer := conn.RemoteAddr()
	if peer == nil {
		_ = conn.Close()
		return
	}

	if err := setKeepAlive(conn); err != nil {
		log.WithFields(log.Fields{
			"address": l.addr,
			"error":   err,
		}).Debug("Listener discards a connection it could not configure")

		_ = conn.Close()
		return
	}

	inbox := l.sessionFunc(conn, peer)
	if inbox == nil {
		_ = conn.Close()
		return
	}

	log.WithFields(log.Fields{
		"address": l.addr,
		"peer":    peer,
	}).Info("Listener accepted a connection")

	inbox <- session.NewAcceptedStatus(conn, peer)

	go NewFrameReader(conn, l.codec, l.raw, inbox).Handle()
}
