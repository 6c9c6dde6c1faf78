// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"fmt"
	"sync/atomic"
	"time"
)

// TimerType enumerates the liveness and response timeouts a session tracks.
type TimerType uint

const (
	_ TimerType = iota

	// SessionInitTimer bounds the time between connection establishment and
	// a successful bind.
	SessionInitTimer

	// EnquireLinkTimer drives the periodic enquire_link probing.
	EnquireLinkTimer

	// InactivityTimer bounds the time a session may stay silent.
	InactivityTimer

	// ResponseTimer bounds the time a request may stay unanswered. A
	// TimerKind of this type carries the request's sequence number.
	ResponseTimer

	// EnquireLinkFailure bounds the time an enquire_link may stay
	// unanswered.
	EnquireLinkFailure
)

func (tt TimerType) String() string {
	switch tt {
	case SessionInitTimer:
		return "session_init_timer"
	case EnquireLinkTimer:
		return "enquire_link_timer"
	case InactivityTimer:
		return "inactivity_timer"
	case ResponseTimer:
		return "response_timer"
	case EnquireLinkFailure:
		return "enquire_link_failure"
	default:
		return "INVALID"
	}
}

// TimerKind identifies one logical timeout: its type and, for a
// ResponseTimer, the sequence number of the awaited response.
type TimerKind struct {
	Type     TimerType
	Sequence uint32
}

// Kind creates a TimerKind without a sequence number.
func Kind(timerType TimerType) TimerKind {
	return TimerKind{Type: timerType}
}

// ResponseKind creates the TimerKind of the ResponseTimer awaiting the given
// sequence number.
func ResponseKind(sequence uint32) TimerKind {
	return TimerKind{Type: ResponseTimer, Sequence: sequence}
}

func (tk TimerKind) String() string {
	if tk.Type == ResponseTimer {
		return fmt.Sprintf("%v(%d)", tk.Type, tk.Sequence)
	}
	return tk.Type.String()
}

// InfiniteTime is the sentinel duration meaning "never schedule". Every
// negative duration is treated as this sentinel.
const InfiniteTime time.Duration = -1

// TimerConfig holds the four duration settings the timer kinds map onto.
// It is immutable for the life of a session; ResponseTimer and
// EnquireLinkFailure both map to Response.
type TimerConfig struct {
	SessionInit time.Duration
	EnquireLink time.Duration
	Inactivity  time.Duration
	Response    time.Duration
}

// DefaultTimerConfig returns the customary SMPP timer settings: three
// minutes for session establishment, one minute of enquire_link probing and
// response patience, no inactivity bound.
func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		SessionInit: 3 * time.Minute,
		EnquireLink: time.Minute,
		Inactivity:  InfiniteTime,
		Response:    time.Minute,
	}
}

// Duration returns the configured duration the given kind maps to.
func (tc TimerConfig) Duration(kind TimerKind) time.Duration {
	switch kind.Type {
	case SessionInitTimer:
		return tc.SessionInit
	case EnquireLinkTimer:
		return tc.EnquireLink
	case InactivityTimer:
		return tc.Inactivity
	case ResponseTimer, EnquireLinkFailure:
		return tc.Response
	default:
		return InfiniteTime
	}
}

// Timer is the cancellable handle of one scheduled timeout. A nil Timer is
// the "none" handle of a kind whose configured duration is infinite; Cancel
// is safe on it.
type Timer struct {
	kind  TimerKind
	timer *time.Timer

	// done is accessed by sync.atomic functions; zero means pending, everything else fired or cancelled
	done uint32
}

// Kind returns the TimerKind this Timer was scheduled for.
func (t *Timer) Kind() TimerKind {
	return t.kind
}

// Cancel a pending timeout delivery. Cancelling a nil, fired or already
// cancelled Timer is a no-op.
func (t *Timer) Cancel() {
	if t == nil {
		return
	}

	if atomic.CompareAndSwapUint32(&t.done, 0, 1) {
		t.timer.Stop()
	}
}

// Scheduler arranges timeout Status deliveries into one session's inbox.
// The Scheduler holds only the channel, never the session's state.
type Scheduler struct {
	statusChan chan<- Status
}

// NewScheduler for the given inbox.
func NewScheduler(statusChan chan<- Status) *Scheduler {
	return &Scheduler{statusChan: statusChan}
}

// Schedule a timeout of the given kind. If the configuration maps the kind
// to InfiniteTime, no timer is created and the nil handle is returned.
// Otherwise a TimeoutStatus tagged with the kind is delivered exactly once
// after the configured duration, unless the handle is cancelled first.
func (s *Scheduler) Schedule(config TimerConfig, kind TimerKind) *Timer {
	delay := config.Duration(kind)
	if delay < 0 {
		return nil
	}

	t := &Timer{kind: kind}
	t.timer = time.AfterFunc(delay, func() {
		if atomic.CompareAndSwapUint32(&t.done, 0, 1) {
			s.statusChan <- NewTimeoutStatus(kind)
		}
	})

	return t
}
