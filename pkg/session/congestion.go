// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"time"
)

// CongestionOptimum is the congestion value a PDU dispatched exactly on its
// wait budget maps to.
const CongestionOptimum = 85

// EstimateCongestion computes a session's next congestion state from the
// previous one and the timing of a just-dispatched PDU.
//
// The congestion state is an integer in [0, 99]. The elapsed time since
// dispatch is measured with microsecond resolution and scaled against the
// waitTime budget so that elapsed == waitTime lands on CongestionOptimum.
// A negligible fresh sample resets the state to zero immediately; everything
// else is smoothed exponentially with factor 1/20, clamped at 99. The
// denominator is always waitTime plus one microsecond, so a zero budget
// cannot divide by zero.
//
// This is a pure function; the caller stores the result as the session's new
// congestion state.
func EstimateCongestion(previous int, waitTime time.Duration, dispatch time.Time) int {
	elapsed := time.Since(dispatch).Microseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	budget := waitTime.Microseconds()
	if budget < 0 {
		budget = 0
	}

	sample := (elapsed * CongestionOptimum) / (budget + 1)

	switch {
	case sample < 1:
		return 0
	case sample > 99:
		return (19*previous + 99) / 20
	default:
		return (19*previous + int(sample)) / 20
	}
}
