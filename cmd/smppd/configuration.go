// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/BurntSushi/toml"

	"github.com/smppd/smppd-go/pkg/session"
	"github.com/smppd/smppd-go/pkg/transport"
)

// tomlConfig describes the TOML-configuration.
type tomlConfig struct {
	Logging logConf
	Listen  listenConf
	Timers  timerConf
}

// logConf describes the Logging-configuration block.
type logConf struct {
	Level        string
	ReportCaller bool `toml:"report-caller"`
	Format       string
	RawTraffic   bool `toml:"raw-traffic"`
}

// listenConf describes the Listen-configuration block.
type listenConf struct {
	Address string
	Port    int
}

// timerConf describes the Timers-configuration block. All durations are in
// seconds; zero means no bound.
type timerConf struct {
	SessionInit uint `toml:"session-init"`
	EnquireLink uint `toml:"enquire-link"`
	Inactivity  uint
	Response    uint
}

// timerConfig converts the configured seconds into a session.TimerConfig,
// mapping zero to the infinite sentinel.
func (tc timerConf) timerConfig() session.TimerConfig {
	seconds := func(s uint) time.Duration {
		if s == 0 {
			return session.InfiniteTime
		}
		return time.Duration(s) * time.Second
	}

	return session.TimerConfig{
		SessionInit: seconds(tc.SessionInit),
		EnquireLink: seconds(tc.EnquireLink),
		Inactivity:  seconds(tc.Inactivity),
		Response:    seconds(tc.Response),
	}
}

// configureLogging applies the Logging block to logrus.
func configureLogging(conf logConf) {
	if conf.Level != "" {
		if lvl, err := log.ParseLevel(conf.Level); err != nil {
			log.WithFields(log.Fields{
				"level":    conf.Level,
				"error":    err,
				"provided": "panic,fatal,error,warn,info,debug,trace",
			}).Warn("Failed to set log level. Please select one of the provided ones")
		} else {
			log.SetLevel(lvl)
		}
	}

	log.SetReportCaller(conf.ReportCaller)

	switch conf.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})

	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})

	default:
		log.Warn("Unknown logging format")
	}
}

// parseConfiguration reads the TOML configuration and derives the listener
// and timer settings from it.
func parseConfiguration(filename string) (listenerConfig transport.ListenerConfig, timers session.TimerConfig, raw transport.RawLogger, err error) {
	var conf tomlConfig
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		err = fmt.Errorf("decoding %s: %w", filename, err)
		return
	}

	configureLogging(conf.Logging)

	listenerConfig = transport.ListenerConfig{
		Address: conf.Listen.Address,
		Port:    conf.Listen.Port,
	}

	timers = conf.Timers.timerConfig()

	raw = transport.DiscardRawLogger()
	if conf.Logging.RawTraffic {
		raw = transport.DebugRawLogger()
	}

	return
}

// parseTimers re-reads only the Timers block, used by the configuration
// watcher. The settings apply to sessions created afterwards.
func parseTimers(filename string) (session.TimerConfig, error) {
	var conf tomlConfig
	if _, err := toml.DecodeFile(filename, &conf); err != nil {
		return session.TimerConfig{}, fmt.Errorf("decoding %s: %w", filename, err)
	}

	return conf.Timers.timerConfig(), nil
}
