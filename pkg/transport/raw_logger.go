// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"encoding/hex"

	log "github.com/sirupsen/logrus"
)

// RawLogger receives the exact bytes of every successfully framed PDU span,
// before and regardless of decoding. Implementations must copy the slice if
// they retain it; it aliases the reader's buffer.
type RawLogger interface {
	RecordRaw(data []byte)
}

type discardRawLogger struct{}

func (discardRawLogger) RecordRaw(_ []byte) {}

// DiscardRawLogger returns a RawLogger dropping all traffic.
func DiscardRawLogger() RawLogger {
	return discardRawLogger{}
}

type debugRawLogger struct{}

func (debugRawLogger) RecordRaw(data []byte) {
	log.WithFields(log.Fields{
		"length": len(data),
		"data":   hex.EncodeToString(data),
	}).Debug("Raw PDU span received")
}

// DebugRawLogger returns a RawLogger hex-dumping each span at debug level.
func DebugRawLogger() RawLogger {
	return debugRawLogger{}
}
