// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"testing"
	"time"
)

func TestEstimateCongestionRange(t *testing.T) {
	waitTimes := []time.Duration{0, time.Microsecond, time.Millisecond, time.Second, time.Hour}
	ages := []time.Duration{0, time.Microsecond, 500 * time.Microsecond, time.Millisecond, time.Second}

	for previous := 0; previous <= 99; previous += 9 {
		for _, waitTime := range waitTimes {
			for _, age := range ages {
				congestion := EstimateCongestion(previous, waitTime, time.Now().Add(-age))
				if congestion < 0 || congestion > 99 {
					t.Fatalf("congestion %d out of range for previous=%d, waitTime=%v, age=%v",
						congestion, previous, waitTime, age)
				}
			}
		}
	}
}

func TestEstimateCongestionReset(t *testing.T) {
	// A fresh dispatch against a generous budget is negligible load and must
	// reset the state without smoothing, whatever came before.
	for _, previous := range []int{0, 1, 50, 99} {
		if congestion := EstimateCongestion(previous, time.Hour, time.Now()); congestion != 0 {
			t.Fatalf("expected hard reset to 0, got %d for previous=%d", congestion, previous)
		}
	}
}

func TestEstimateCongestionClamped(t *testing.T) {
	// A dispatch far beyond its budget smooths toward the clamp value 99
	// with factor 1/20.
	tests := []struct {
		previous int
		expected int
	}{
		{0, 4},   // (19*0 + 99) / 20
		{50, 52}, // (19*50 + 99) / 20
		{99, 99}, // (19*99 + 99) / 20
	}

	for _, test := range tests {
		congestion := EstimateCongestion(test.previous, time.Microsecond, time.Now().Add(-time.Second))
		if congestion != test.expected {
			t.Fatalf("expected %d, got %d for previous=%d", test.expected, congestion, test.previous)
		}
	}
}

func TestEstimateCongestionZeroBudget(t *testing.T) {
	// waitTime of zero must not divide by zero.
	if congestion := EstimateCongestion(50, 0, time.Now().Add(-time.Second)); congestion < 0 || congestion > 99 {
		t.Fatalf("congestion %d out of range for a zero budget", congestion)
	}
}
