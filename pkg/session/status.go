// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session holds the session-facing half of the transport core: the
// Status events produced by the socket and timer machinery, the congestion
// estimator, the timer Scheduler and a minimal Session actor consuming it
// all. The SMPP state machine proper (bind, submit, deliver) sits on top of
// this package.
package session

import (
	"fmt"
	"net"
	"time"

	"github.com/smppd/smppd-go/pkg/pdu"
)

// StatusType indicates the kind of a Status.
type StatusType uint

const (
	_ StatusType = iota

	// InputStatus shows the reception of a decoded PDU. The Status' Message
	// must be an Input struct.
	InputStatus

	// DecodeErrorStatus shows a framed span the codec rejected. The Status'
	// Message must be a DecodeError struct.
	DecodeErrorStatus

	// SocketErrorStatus shows a fatal error on the session's socket. The
	// Status' Message must be an error.
	SocketErrorStatus

	// ListenErrorStatus shows a fatal error on a listening socket. The
	// Status' Message must be an error.
	ListenErrorStatus

	// AcceptedStatus shows an inbound connection handed over to its session.
	// The Status' Message must be an Accepted struct.
	AcceptedStatus

	// TimeoutStatus shows a fired timer. The Status' Message must be a
	// TimerKind.
	TimeoutStatus
)

func (st StatusType) String() string {
	switch st {
	case InputStatus:
		return "Input"
	case DecodeErrorStatus:
		return "Decode Error"
	case SocketErrorStatus:
		return "Socket Error"
	case ListenErrorStatus:
		return "Listen Error"
	case AcceptedStatus:
		return "Accepted"
	case TimeoutStatus:
		return "Timeout"
	default:
		return "Unknown Type"
	}
}

// Status is one event delivered into a Session's inbox. Producers hold only
// the channel, never the Session itself.
type Status struct {
	Type    StatusType
	Message interface{}
}

func (s Status) String() string {
	return fmt.Sprintf("%v-Status: %v", s.Type, s.Message)
}

// Input is the Message of an InputStatus: one decoded PDU together with its
// dispatch timing.
type Input struct {
	CommandID uint32
	PDU       *pdu.PDU

	// WaitLapse is the blocking time of the socket read this PDU arrived in,
	// amortized over all PDUs extracted from that read.
	WaitLapse time.Duration

	// Timestamp is the moment the PDU became available for dispatch.
	Timestamp time.Time
}

// DecodeError is the Message of a DecodeErrorStatus, carrying the best-effort
// header fields of a span the codec rejected. All fields are zero and the
// status an unknown error if nothing was recoverable.
type DecodeError struct {
	CommandID     uint32
	CommandStatus uint32
	Sequence      uint32
}

// Accepted is the Message of an AcceptedStatus: the socket whose exclusive
// ownership just passed to the receiving session, and its peer address.
type Accepted struct {
	Conn net.Conn
	Peer net.Addr
}

// NewInputStatus creates a Status for a decoded PDU.
func NewInputStatus(p *pdu.PDU, waitLapse time.Duration, timestamp time.Time) Status {
	return Status{
		Type: InputStatus,
		Message: Input{
			CommandID: p.CommandID,
			PDU:       p,
			WaitLapse: waitLapse,
			Timestamp: timestamp,
		},
	}
}

// NewDecodeErrorStatus creates a Status for a rejected span.
func NewDecodeErrorStatus(commandID, commandStatus, sequence uint32) Status {
	return Status{
		Type: DecodeErrorStatus,
		Message: DecodeError{
			CommandID:     commandID,
			CommandStatus: commandStatus,
			Sequence:      sequence,
		},
	}
}

// NewSocketErrorStatus creates a Status for a fatal socket error.
func NewSocketErrorStatus(reason error) Status {
	return Status{
		Type:    SocketErrorStatus,
		Message: reason,
	}
}

// NewListenErrorStatus creates a Status for a fatal listener error.
func NewListenErrorStatus(reason error) Status {
	return Status{
		Type:    ListenErrorStatus,
		Message: reason,
	}
}

// NewAcceptedStatus creates a Status for a handed-over inbound connection.
func NewAcceptedStatus(conn net.Conn, peer net.Addr) Status {
	return Status{
		Type: AcceptedStatus,
		Message: Accepted{
			Conn: conn,
			Peer: peer,
		},
	}
}

// NewTimeoutStatus creates a Status for a fired timer.
func NewTimeoutStatus(kind TimerKind) Status {
	return Status{
		Type:    TimeoutStatus,
		Message: kind,
	}
}
