// SPDX-FileCopyrightText: 2026 The smppd-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pdu

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestHeaderCodecDecode(t *testing.T) {
	enquireLink := []byte{
		// command_length:
		0x00, 0x00, 0x00, 0x10,
		// command_id:
		0x00, 0x00, 0x00, 0x15,
		// command_status:
		0x00, 0x00, 0x00, 0x00,
		// sequence_number:
		0x00, 0x00, 0x00, 0x2A,
	}

	submitSm := []byte{
		// command_length:
		0x00, 0x00, 0x00, 0x13,
		// command_id:
		0x00, 0x00, 0x00, 0x04,
		// command_status:
		0x00, 0x00, 0x00, 0x00,
		// sequence_number:
		0x00, 0x00, 0x00, 0x01,
		// body:
		0xAA, 0xBB, 0xCC,
	}

	tests := []struct {
		data []byte
		pdu  *PDU
	}{
		{enquireLink, NewPDU(EnquireLink, StatusOK, 42)},
		{submitSm, &PDU{CommandID: 0x04, Sequence: 1, Body: []byte{0xAA, 0xBB, 0xCC}}},
	}

	for _, test := range tests {
		pdu, err := HeaderCodec{}.Decode(test.data)
		if err != nil {
			t.Fatal(err)
		} else if !reflect.DeepEqual(test.pdu, pdu) {
			t.Fatalf("PDU does not match, expected %v and got %v", test.pdu, pdu)
		}
	}
}

func TestHeaderCodecDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		err  Error
	}{
		{
			"length field contradicts span",
			[]byte{
				0x00, 0x00, 0x00, 0x20,
				0x00, 0x00, 0x00, 0x15,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x07,
			},
			Error{CommandID: EnquireLink, CommandStatus: StatusInvalidCommandLength, Sequence: 7},
		},
		{
			"unassigned command id",
			[]byte{
				0x00, 0x00, 0x00, 0x10,
				0x00, 0x00, 0x13, 0x37,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x03,
			},
			Error{CommandID: 0x1337, CommandStatus: StatusInvalidCommandID, Sequence: 3},
		},
		{
			"span shorter than the header",
			[]byte{0x00, 0x00, 0x00, 0x04},
			Error{CommandStatus: StatusInvalidCommandLength},
		},
	}

	for _, test := range tests {
		if _, err := (HeaderCodec{}).Decode(test.data); err == nil {
			t.Fatalf("%s: decoding did not error", test.name)
		} else {
			var pduErr *Error
			if !errors.As(err, &pduErr) {
				t.Fatalf("%s: error %v is no pdu.Error", test.name, err)
			} else if *pduErr != test.err {
				t.Fatalf("%s: expected %v, got %v", test.name, test.err, *pduErr)
			}
		}
	}
}

func TestPDUMarshalDecode(t *testing.T) {
	pdus := []*PDU{
		NewPDU(EnquireLink, StatusOK, 1),
		NewPDU(EnquireLinkResp, StatusOK, 1),
		{CommandID: 0x00000004, Sequence: 23, Body: []byte("short message")},
	}

	for _, p := range pdus {
		var buf bytes.Buffer
		if err := p.Marshal(&buf); err != nil {
			t.Fatal(err)
		} else if buf.Len() != p.Len() {
			t.Fatalf("marshalled %d bytes, Len promised %d", buf.Len(), p.Len())
		}

		if pdu, err := (HeaderCodec{}).Decode(buf.Bytes()); err != nil {
			t.Fatal(err)
		} else if !reflect.DeepEqual(p, pdu) {
			t.Fatalf("PDU does not match, expected %v and got %v", p, pdu)
		}
	}
}

func TestPDUIsResponse(t *testing.T) {
	if NewPDU(EnquireLink, StatusOK, 1).IsResponse() {
		t.Fatal("enquire_link is no response")
	}
	if !NewPDU(EnquireLinkResp, StatusOK, 1).IsResponse() {
		t.Fatal("enquire_link_resp is a response")
	}
}
