// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// smppd is a TOML-configured daemon accepting SMPP sessions: it listens for
// inbound connections, frames their PDU streams and runs the transport-level
// session actor (liveness probing, congestion tracking) for each. The timer
// settings are re-read from the configuration file on change and apply to
// sessions created afterwards.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/smppd/smppd-go/pkg/pdu"
	"github.com/smppd/smppd-go/pkg/session"
	"github.com/smppd/smppd-go/pkg/transport"
)

// daemon tracks the running sessions and the timer settings new sessions
// are created with.
type daemon struct {
	timersMutex sync.RWMutex
	timers      session.TimerConfig

	sessionsMutex sync.Mutex
	sessions      []*session.Session
}

func (d *daemon) currentTimers() session.TimerConfig {
	d.timersMutex.RLock()
	defer d.timersMutex.RUnlock()

	return d.timers
}

func (d *daemon) setTimers(timers session.TimerConfig) {
	d.timersMutex.Lock()
	defer d.timersMutex.Unlock()

	d.timers = timers
}

// newSession is the transport.SessionFunc: each accepted connection becomes
// one Session, owning the connection from here on.
func (d *daemon) newSession(conn net.Conn, _ net.Addr) chan<- session.Status {
	s := session.New(conn, d.currentTimers())

	d.sessionsMutex.Lock()
	d.sessions = append(d.sessions, s)
	d.sessionsMutex.Unlock()

	return s.Channel()
}

func (d *daemon) closeSessions() error {
	d.sessionsMutex.Lock()
	defer d.sessionsMutex.Unlock()

	var err *multierror.Error
	for _, s := range d.sessions {
		err = multierror.Append(err, s.Close())
	}
	d.sessions = nil

	return err.ErrorOrNil()
}

// watchConfiguration re-reads the timer settings whenever the configuration
// file is written.
func (d *daemon) watchConfiguration(ctx context.Context, filename string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filename); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&fsnotify.Write == 0 {
				continue
			}

			if timers, timersErr := parseTimers(filename); timersErr != nil {
				log.WithFields(log.Fields{
					"file":  filename,
					"error": timersErr,
				}).Warn("Re-reading the configuration failed, keeping the old timers")
			} else {
				d.setTimers(timers)

				log.WithFields(log.Fields{
					"file": filename,
				}).Info("Timer configuration updated")
			}

		case watchErr := <-watcher.Errors:
			log.WithFields(log.Fields{
				"file":  filename,
				"error": watchErr,
			}).Warn("Configuration watcher errored")
		}
	}
}

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: %s configuration.toml", os.Args[0])
	}
	filename := os.Args[1]

	listenerConfig, timers, raw, err := parseConfiguration(filename)
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Fatal("Failed to parse config")
	}

	d := &daemon{timers: timers}

	listener := transport.NewListener(listenerConfig, pdu.HeaderCodec{}, raw, d.newSession)
	if err := listener.Start(); err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Fatal("Failed to start listener")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return d.watchConfiguration(ctx, filename)
	})

	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil

			case status := <-listener.Channel():
				if status.Type == session.ListenErrorStatus {
					return status.Message.(error)
				}
			}
		}
	})

	if err := group.Wait(); err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Error("Daemon failed")
	}

	log.Info("Shutting down..")

	listener.Close()

	if err := d.closeSessions(); err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Warn("Closing sessions errored")
	}
}
