// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hashicorp/go-multierror"

	"github.com/smppd/smppd-go/pkg/pdu"
)

// errLivenessExpired terminates a Session's handler after a fatal timeout.
var errLivenessExpired = errors.New("liveness timer expired")

// Session is the actor owning one socket and its transport-level state: the
// congestion value, the liveness timer handles and the outstanding response
// timers. It consumes the Status events the FrameReader, Listener and
// Scheduler deliver into its inbox, strictly one at a time.
//
// The Session answers enquire_link requests and probes the peer itself; the
// bind/submit/deliver transition logic is expected to be layered on top by
// consuming the same events.
type Session struct {
	conn   net.Conn
	peer   net.Addr
	timers TimerConfig

	statusChan chan Status
	scheduler  *Scheduler

	congestion int32

	initTimer       *Timer
	enquireTimer    *Timer
	enquireFailure  *Timer
	inactivityTimer *Timer

	// pduMutex guards sequence, responseTimers and writes to conn.
	pduMutex       sync.Mutex
	sequence       uint32
	responseTimers map[uint32]*Timer

	closeOnce sync.Once
	closeErr  error
	stopSyn   chan struct{}
	stopAck   chan struct{}
}

// New creates a Session owning the given connection. The session_init and
// enquire_link timers are armed immediately; the inactivity timer on the
// first received PDU.
func New(conn net.Conn, timers TimerConfig) *Session {
	s := &Session{
		conn:           conn,
		timers:         timers,
		statusChan:     make(chan Status, 32),
		responseTimers: make(map[uint32]*Timer),
		stopSyn:        make(chan struct{}),
		stopAck:        make(chan struct{}),
	}

	s.scheduler = NewScheduler(s.statusChan)
	s.initTimer = s.scheduler.Schedule(s.timers, Kind(SessionInitTimer))
	s.enquireTimer = s.scheduler.Schedule(s.timers, Kind(EnquireLinkTimer))

	go s.handler()

	return s
}

// Channel returns this Session's inbox. The FrameReader and Listener hold
// only this channel.
func (s *Session) Channel() chan Status {
	return s.statusChan
}

// Congestion returns the session's current congestion state in [0, 99].
func (s *Session) Congestion() int {
	return int(atomic.LoadInt32(&s.congestion))
}

func (s *Session) String() string {
	if s.peer != nil {
		return fmt.Sprintf("session(%v)", s.peer)
	}
	return fmt.Sprintf("session(%v)", s.conn.RemoteAddr())
}

func (s *Session) handler() {
	defer s.shutdown()

	for {
		select {
		case <-s.stopSyn:
			return

		case status := <-s.statusChan:
			if err := s.handle(status); err != nil {
				log.WithFields(log.Fields{
					"session": s,
					"error":   err,
				}).Info("Session terminates")
				return
			}
		}
	}
}

// shutdown cancels every outstanding timer and closes the socket, surfacing
// the aggregated errors through Close.
func (s *Session) shutdown() {
	s.initTimer.Cancel()
	s.enquireTimer.Cancel()
	s.enquireFailure.Cancel()
	s.inactivityTimer.Cancel()

	s.pduMutex.Lock()
	for _, t := range s.responseTimers {
		t.Cancel()
	}
	s.responseTimers = nil
	s.pduMutex.Unlock()

	if err := s.conn.Close(); err != nil {
		s.closeErr = multierror.Append(s.closeErr, err).ErrorOrNil()
	}

	close(s.stopAck)
}

// Close shuts this Session down and releases its socket. Closing an already
// terminated Session is safe.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopSyn)

		// unblock a handler stuck in a socket write
		_ = s.conn.SetDeadline(time.Now())
	})
	<-s.stopAck

	return s.closeErr
}

// handle processes one Status. A non-nil error terminates the Session.
func (s *Session) handle(status Status) error {
	switch status.Type {
	case AcceptedStatus:
		accepted := status.Message.(Accepted)
		s.peer = accepted.Peer

		log.WithFields(log.Fields{
			"session": s,
			"peer":    accepted.Peer,
		}).Info("Session adopted an inbound connection")
		return nil

	case InputStatus:
		return s.handleInput(status.Message.(Input))

	case DecodeErrorStatus:
		return s.handleDecodeError(status.Message.(DecodeError))

	case TimeoutStatus:
		return s.handleTimeout(status.Message.(TimerKind))

	case SocketErrorStatus:
		return fmt.Errorf("socket failed: %w", status.Message.(error))

	case ListenErrorStatus:
		return fmt.Errorf("listener failed: %w", status.Message.(error))

	default:
		log.WithFields(log.Fields{
			"session": s,
			"status":  status,
		}).Warn("Session received an unknown status")
		return nil
	}
}

func (s *Session) handleInput(input Input) error {
	congestion := EstimateCongestion(s.Congestion(), input.WaitLapse, input.Timestamp)
	atomic.StoreInt32(&s.congestion, int32(congestion))

	// any traffic restarts the inactivity bound
	s.inactivityTimer.Cancel()
	s.inactivityTimer = s.scheduler.Schedule(s.timers, Kind(InactivityTimer))

	log.WithFields(log.Fields{
		"session":    s,
		"pdu":        input.PDU,
		"waitLapse":  input.WaitLapse,
		"congestion": congestion,
	}).Debug("Session received a PDU")

	p := input.PDU
	switch {
	case isBindOperation(p.CommandID):
		s.initTimer.Cancel()

	case p.CommandID == pdu.EnquireLink:
		return s.WritePDU(pdu.NewPDU(pdu.EnquireLinkResp, pdu.StatusOK, p.Sequence))

	case p.CommandID == pdu.EnquireLinkResp:
		s.enquireFailure.Cancel()
		s.enquireFailure = nil
		s.enquireTimer = s.scheduler.Schedule(s.timers, Kind(EnquireLinkTimer))
	}

	if p.IsResponse() {
		s.cancelResponseTimer(p.Sequence)
	}

	return nil
}

func (s *Session) handleDecodeError(decodeErr DecodeError) error {
	log.WithFields(log.Fields{
		"session":   s,
		"commandId": decodeErr.CommandID,
		"status":    decodeErr.CommandStatus,
		"sequence":  decodeErr.Sequence,
	}).Warn("Session received a malformed PDU")

	return s.WritePDU(pdu.NewPDU(pdu.GenericNack, decodeErr.CommandStatus, decodeErr.Sequence))
}

func (s *Session) handleTimeout(kind TimerKind) error {
	switch kind.Type {
	case EnquireLinkTimer:
		if err := s.SendRequest(pdu.NewPDU(pdu.EnquireLink, pdu.StatusOK, 0)); err != nil {
			return err
		}

		s.enquireFailure = s.scheduler.Schedule(s.timers, Kind(EnquireLinkFailure))
		return nil

	case ResponseTimer:
		s.cancelResponseTimer(kind.Sequence)

		log.WithFields(log.Fields{
			"session":  s,
			"sequence": kind.Sequence,
		}).Warn("Session request went unanswered")
		return nil

	case SessionInitTimer, InactivityTimer, EnquireLinkFailure:
		return fmt.Errorf("%w: %v", errLivenessExpired, kind)

	default:
		return nil
	}
}

// WritePDU marshals one PDU to the socket. Safe for concurrent use.
func (s *Session) WritePDU(p *pdu.PDU) error {
	s.pduMutex.Lock()
	defer s.pduMutex.Unlock()

	return s.writePDU(p)
}

func (s *Session) writePDU(p *pdu.PDU) error {
	w := bufio.NewWriter(s.conn)
	if err := p.Marshal(w); err != nil {
		return err
	}
	return w.Flush()
}

// SendRequest assigns the next sequence number to the request PDU, writes it
// and arms a response timer for its sequence. The timer is cancelled when
// the matching response arrives, or fires a ResponseTimer timeout.
func (s *Session) SendRequest(p *pdu.PDU) error {
	s.pduMutex.Lock()
	defer s.pduMutex.Unlock()

	s.sequence++
	p.Sequence = s.sequence

	if err := s.writePDU(p); err != nil {
		return err
	}

	if s.responseTimers != nil {
		s.responseTimers[p.Sequence] = s.scheduler.Schedule(s.timers, ResponseKind(p.Sequence))
	}
	return nil
}

func (s *Session) cancelResponseTimer(sequence uint32) {
	s.pduMutex.Lock()
	defer s.pduMutex.Unlock()

	if t, ok := s.responseTimers[sequence]; ok {
		t.Cancel()
		delete(s.responseTimers, sequence)
	}
}

// isBindOperation checks for the bind_receiver, bind_transmitter and
// bind_transceiver command ids, response bit ignored.
func isBindOperation(commandID uint32) bool {
	req := commandID &^ pdu.RespMask
	return req >= 0x00000001 && req <= 0x00000003
}
