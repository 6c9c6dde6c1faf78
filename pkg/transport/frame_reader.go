// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transport implements the socket side of an SMPP session: outbound
// connection establishment (Connector), inbound connection acceptance
// (Listener) and the per-connection FrameReader cutting the TCP byte stream
// into PDU spans for the codec.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/smppd/smppd-go/pkg/pdu"
	"github.com/smppd/smppd-go/pkg/session"
)

// defaultDrainTimeout is the read deadline of the non-blocking drain reads
// following a successful blocking read.
const defaultDrainTimeout = time.Millisecond

// FrameReader owns one connection's receive loop: it accumulates socket
// bytes in a private buffer, cuts the stream into length-prefixed PDU spans,
// runs the codec on each span and delivers the outcome into the owning
// session's inbox. The buffer holds exactly the bytes not yet consumed into
// a complete span; a partial trailing span survives byte-exact across reads.
type FrameReader struct {
	conn       net.Conn
	codec      pdu.Codec
	raw        RawLogger
	statusChan chan<- session.Status

	buffer []byte

	drainTimeout time.Duration
}

// NewFrameReader for a connection whose exclusive ownership passes to the
// returned reader's loop. A nil RawLogger discards the raw traffic. Run the
// loop with "go fr.Handle()".
func NewFrameReader(conn net.Conn, codec pdu.Codec, raw RawLogger, statusChan chan<- session.Status) *FrameReader {
	if raw == nil {
		raw = DiscardRawLogger()
	}

	return &FrameReader{
		conn:         conn,
		codec:        codec,
		raw:          raw,
		statusChan:   statusChan,
		drainTimeout: defaultDrainTimeout,
	}
}

// Handle runs the receive loop until the socket fails or is closed. The
// terminating error is delivered once as a SocketErrorStatus.
func (fr *FrameReader) Handle() {
	chunk := make([]byte, 4096)

	for {
		// blocking receive; the elapsed time is this read's wait cost
		_ = fr.conn.SetReadDeadline(time.Time{})

		t0 := time.Now()
		n, err := fr.conn.Read(chunk)

		if n > 0 {
			fr.buffer = append(fr.buffer, chunk[:n]...)
			fr.dispatch(time.Since(t0))
		}

		if err != nil {
			fr.terminate(err)
			return
		}

		// drain bytes that piled up while dispatching; already-buffered data
		// costs no incremental wait
		for {
			_ = fr.conn.SetReadDeadline(time.Now().Add(fr.drainTimeout))

			n, err := fr.conn.Read(chunk)
			if n > 0 {
				fr.buffer = append(fr.buffer, chunk[:n]...)
				fr.dispatch(0)
			}

			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					break
				}

				fr.terminate(err)
				return
			}
		}
	}
}

func (fr *FrameReader) terminate(reason error) {
	log.WithFields(log.Fields{
		"conn":  fr.conn.RemoteAddr(),
		"error": reason,
	}).Debug("FrameReader's connection failed")

	fr.statusChan <- session.NewSocketErrorStatus(reason)
}

// dispatch runs one framing pass over the buffer: every complete span is
// handed to the codec and reported, the incomplete-or-empty tail becomes the
// new buffer. The read's elapsed wait is amortized over all spans of the
// pass.
func (fr *FrameReader) dispatch(elapsed time.Duration) {
	spans, rest := splitFrames(fr.buffer)
	if len(spans) == 0 {
		return
	}

	waitLapse := elapsed / time.Duration(len(spans))
	for _, span := range spans {
		fr.deliver(span, waitLapse)
	}

	fr.buffer = append([]byte(nil), rest...)
}

// deliver reports one complete span: the raw logger always receives the
// exact bytes, then the codec's verdict decides between an Input and a
// DecodeError status. The span stays consumed whatever the codec says, which
// keeps the stream aligned.
func (fr *FrameReader) deliver(span []byte, waitLapse time.Duration) {
	fr.raw.RecordRaw(span)

	p, err := fr.decode(span)

	var pduErr *pdu.Error
	switch {
	case err == nil:
		fr.statusChan <- session.NewInputStatus(p, waitLapse, time.Now())

	case errors.As(err, &pduErr):
		fr.statusChan <- session.NewDecodeErrorStatus(pduErr.CommandID, pduErr.CommandStatus, pduErr.Sequence)

	default:
		log.WithFields(log.Fields{
			"conn":  fr.conn.RemoteAddr(),
			"error": err,
		}).Warn("FrameReader's codec failed unexpectedly")

		fr.statusChan <- session.NewDecodeErrorStatus(0, pdu.StatusUnknownError, 0)
	}
}

// decode guards the codec invocation; a panicking codec is reported like any
// other unexpected failure.
func (fr *FrameReader) decode(span []byte) (p *pdu.PDU, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("codec panicked: %v", r)
		}
	}()

	return fr.codec.Decode(span)
}

// splitFrames cuts the leading complete PDU spans off the buffer. A span's
// length is declared by its first four bytes, a big-endian total length
// including themselves. An incomplete length field or body leaves the whole
// tail untouched for the next read; a declared length below four is
// self-contradictory and consumes just the length field to keep the stream
// aligned.
func splitFrames(buffer []byte) (spans [][]byte, rest []byte) {
	rest = buffer

	for len(rest) >= pdu.FrameLenFieldLen {
		cmdLen := int(binary.BigEndian.Uint32(rest))
		if cmdLen < pdu.FrameLenFieldLen {
			cmdLen = pdu.FrameLenFieldLen
		}

		if len(rest) < cmdLen {
			break
		}

		spans = append(spans, rest[:cmdLen])
		rest = rest[cmdLen:]
	}

	return
}
