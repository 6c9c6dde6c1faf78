// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pdu

import (
	"encoding/binary"
	"fmt"
)

// Error is a structured protocol error raised while decoding a PDU whose
// header fields were still recoverable. The transport copies these fields
// into its decode-error event; everything else decoding can fail with is
// reported as an unknown error.
type Error struct {
	CommandID     uint32
	CommandStatus uint32
	Sequence      uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("pdu error: id=%#08x, status=%#08x, seq=%d",
		e.CommandID, e.CommandStatus, e.Sequence)
}

// Codec decodes one complete framed byte span into a PDU. The input is
// exactly the span the stream framing cut out, command_length field included.
//
// Decode returns either the PDU, an *Error for a malformed PDU with
// recoverable header fields, or any other error if nothing can be said about
// the input.
type Codec interface {
	Decode(data []byte) (*PDU, error)
}

// HeaderCodec is a Codec for the mandatory 16 byte SMPP header. The body is
// carried along undecoded.
type HeaderCodec struct{}

// Decode the header of one complete PDU span.
func (hc HeaderCodec) Decode(data []byte) (*PDU, error) {
	// A span shorter than the header can still be length-valid on the wire,
	// e.g. a command_length of exactly four. No fields are recoverable then.
	if len(data) < HeaderLen {
		return nil, &Error{CommandStatus: StatusInvalidCommandLength}
	}

	var (
		cmdLen   = binary.BigEndian.Uint32(data[0:4])
		cmdID    = binary.BigEndian.Uint32(data[4:8])
		cmdState = binary.BigEndian.Uint32(data[8:12])
		sequence = binary.BigEndian.Uint32(data[12:16])
	)

	if cmdLen != uint32(len(data)) {
		return nil, &Error{
			CommandID:     cmdID,
			CommandStatus: StatusInvalidCommandLength,
			Sequence:      sequence,
		}
	}

	if !validCommandID(cmdID) {
		return nil, &Error{
			CommandID:     cmdID,
			CommandStatus: StatusInvalidCommandID,
			Sequence:      sequence,
		}
	}

	pdu := NewPDU(cmdID, cmdState, sequence)
	if len(data) > HeaderLen {
		pdu.Body = append([]byte(nil), data[HeaderLen:]...)
	}

	return pdu, nil
}

// validCommandID checks a command_id against the range of ids the SMPP
// specification assigns, response bit masked out.
func validCommandID(cmdID uint32) bool {
	req := cmdID &^ RespMask

	switch {
	case cmdID == GenericNack:
		return true
	case req >= 0x00000001 && req <= 0x00000009:
		return true
	case req == 0x0000000B || req == 0x00000015 || req == 0x00000021:
		return true
	case req == 0x00000102 || req == 0x00000103:
		return true
	default:
		return false
	}
}
