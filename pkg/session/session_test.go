// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/smppd/smppd-go/pkg/pdu"
)

// quietTimers returns a TimerConfig with every bound infinite, keeping the
// Session's own liveness machinery out of the test's way.
func quietTimers() TimerConfig {
	return TimerConfig{
		SessionInit: InfiniteTime,
		EnquireLink: InfiniteTime,
		Inactivity:  InfiniteTime,
		Response:    InfiniteTime,
	}
}

func readPDU(t *testing.T, conn net.Conn) *pdu.PDU {
	t.Helper()

	head := make([]byte, pdu.HeaderLen)
	if _, err := io.ReadFull(conn, head); err != nil {
		t.Fatal(err)
	}

	p, err := pdu.HeaderCodec{}.Decode(head)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSessionAnswersEnquireLink(t *testing.T) {
	local, peer := net.Pipe()

	s := New(local, quietTimers())
	defer func() { _ = s.Close() }()

	enquire := pdu.NewPDU(pdu.EnquireLink, pdu.StatusOK, 7)
	s.Channel() <- NewInputStatus(enquire, 0, time.Now())

	resp := readPDU(t, peer)
	if resp.CommandID != pdu.EnquireLinkResp {
		t.Fatalf("expected enquire_link_resp, got %v", resp)
	} else if resp.Sequence != 7 {
		t.Fatalf("response carries sequence %d, expected 7", resp.Sequence)
	}
}

func TestSessionRejectsMalformedPDU(t *testing.T) {
	local, peer := net.Pipe()

	s := New(local, quietTimers())
	defer func() { _ = s.Close() }()

	s.Channel() <- NewDecodeErrorStatus(0, pdu.StatusUnknownError, 0)

	nack := readPDU(t, peer)
	if nack.CommandID != pdu.GenericNack {
		t.Fatalf("expected generic_nack, got %v", nack)
	} else if nack.CommandStatus != pdu.StatusUnknownError {
		t.Fatalf("generic_nack carries status %#x", nack.CommandStatus)
	}
}

func TestSessionCongestion(t *testing.T) {
	local, _ := net.Pipe()

	s := New(local, quietTimers())
	defer func() { _ = s.Close() }()

	if s.Congestion() != 0 {
		t.Fatalf("fresh session reports congestion %d", s.Congestion())
	}

	// a PDU dispatched way past its amortized wait budget raises the state
	p := pdu.NewPDU(pdu.EnquireLinkResp, pdu.StatusOK, 1)
	s.Channel() <- NewInputStatus(p, time.Microsecond, time.Now().Add(-time.Second))

	deadline := time.Now().Add(time.Second)
	for s.Congestion() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("congestion state never rose")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSessionSocketErrorTerminates(t *testing.T) {
	local, _ := net.Pipe()

	s := New(local, quietTimers())
	s.Channel() <- NewSocketErrorStatus(io.ErrClosedPipe)

	done := make(chan struct{})
	go func() {
		_ = s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session did not terminate on a socket error")
	}
}

func TestSessionEnquireLinkProbing(t *testing.T) {
	local, peer := net.Pipe()

	timers := quietTimers()
	timers.EnquireLink = 50 * time.Millisecond

	s := New(local, timers)
	defer func() { _ = s.Close() }()

	probe := readPDU(t, peer)
	if probe.CommandID != pdu.EnquireLink {
		t.Fatalf("expected an enquire_link probe, got %v", probe)
	}

	// answering the probe must reschedule it
	s.Channel() <- NewInputStatus(pdu.NewPDU(pdu.EnquireLinkResp, pdu.StatusOK, probe.Sequence), 0, time.Now())

	again := readPDU(t, peer)
	if again.CommandID != pdu.EnquireLink {
		t.Fatalf("expected a second enquire_link probe, got %v", again)
	}
}
