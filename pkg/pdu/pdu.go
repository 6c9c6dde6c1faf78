// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pdu implements the SMPP Protocol Data Unit header: its constants,
// a PDU value type and the Codec used by the transport to turn framed byte
// spans into PDUs. The command-specific body stays opaque; interpreting it is
// the protocol state machine's job, not the transport's.
package pdu

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderLen is the length of the mandatory SMPP header: four big-endian
// uint32 fields, command_length, command_id, command_status and
// sequence_number.
const HeaderLen = 16

// FrameLenFieldLen is the length of the leading command_length field, the
// only part of a PDU the stream framing inspects.
const FrameLenFieldLen = 4

// DefaultPort is the well-known SMPP port.
const DefaultPort = 2775

// Command ids for the liveness-related operations the transport core knows
// about. All other command ids pass through uninterpreted.
const (
	GenericNack     uint32 = 0x80000000
	EnquireLink     uint32 = 0x00000015
	EnquireLinkResp uint32 = 0x80000015
	Unbind          uint32 = 0x00000006
	UnbindResp      uint32 = 0x80000006
)

// Command statuses used for error reporting.
const (
	// StatusOK indicates no error.
	StatusOK uint32 = 0x00000000

	// StatusInvalidCommandLength is ESME_RINVCMDLEN, a command_length that
	// contradicts the header it claims to carry.
	StatusInvalidCommandLength uint32 = 0x00000002

	// StatusInvalidCommandID is ESME_RINVCMDID, an unknown command_id.
	StatusInvalidCommandID uint32 = 0x00000003

	// StatusUnknownError is ESME_RUNKNOWNERR, reported when decoding fails
	// for no classifiable reason.
	StatusUnknownError uint32 = 0x000000FF
)

// RespMask is set in the command_id of every response PDU.
const RespMask uint32 = 0x80000000

// PDU is one SMPP Protocol Data Unit, a decoded header plus its opaque body.
type PDU struct {
	CommandID     uint32
	CommandStatus uint32
	Sequence      uint32
	Body          []byte
}

// NewPDU creates a PDU with an empty body.
func NewPDU(commandID, commandStatus, sequence uint32) *PDU {
	return &PDU{
		CommandID:     commandID,
		CommandStatus: commandStatus,
		Sequence:      sequence,
	}
}

func (p PDU) String() string {
	return fmt.Sprintf("PDU(id=%#08x, status=%#08x, seq=%d, body=%d bytes)",
		p.CommandID, p.CommandStatus, p.Sequence, len(p.Body))
}

// IsResponse checks if this PDU's command_id carries the response bit.
func (p PDU) IsResponse() bool {
	return p.CommandID&RespMask != 0
}

// Len returns the command_length this PDU marshals to.
func (p PDU) Len() int {
	return HeaderLen + len(p.Body)
}

// Marshal writes this PDU, header first, to the Writer.
func (p PDU) Marshal(w io.Writer) error {
	var fields = []uint32{uint32(p.Len()), p.CommandID, p.CommandStatus, p.Sequence}

	for _, field := range fields {
		if err := binary.Write(w, binary.BigEndian, field); err != nil {
			return err
		}
	}

	if _, err := w.Write(p.Body); err != nil {
		return err
	}

	return nil
}
