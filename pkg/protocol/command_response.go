package protocol

import (
	"bytes"
	"fmt"

	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// CommandResponse is the decoded payload shared by opcode 0x21 (universal)
// and opcode 0x15 (JM01, no server-flag field). Neither opcode is
// acknowledged; instead the session correlates Sequence against its
// pending-command map.
type CommandResponse struct {
	Sequence uint16
	Opcode   Opcode
	Text     string
}

func (CommandResponse) isValue() {}

func trimResponseText(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	b = bytes.TrimSpace(b)
	return string(b)
}

// ParseCommandResponse decodes a 0x21 payload: server-flag(4),
// response-length (1 byte for short frames, 2 for long), response-text.
func ParseCommandResponse(body []byte, headerSize int) (CommandResponse, error) {
	start := frame.PayloadStart(headerSize)
	const serverFlagSize = 4
	lenFieldSize := 1
	if headerSize == 4 {
		lenFieldSize = 2
	}
	if len(body) < start+serverFlagSize+lenFieldSize {
		return CommandResponse{}, fmt.Errorf("%w: command response", ErrShortPayload)
	}

	lenFieldStart := start + serverFlagSize
	declared := int(be32(body[lenFieldStart : lenFieldStart+lenFieldSize]))

	textStart := lenFieldStart + lenFieldSize
	textEnd := textStart + declared
	maxEnd := len(body) - 6
	if textEnd > maxEnd {
		textEnd = maxEnd
	}
	if textEnd < textStart {
		textEnd = textStart
	}

	return CommandResponse{
		Sequence: frame.SequenceBE(body),
		Opcode:   OpCommandResponse,
		Text:     trimResponseText(body[textStart:textEnd]),
	}, nil
}

// ParseCommandResponseJM01 decodes a 0x15 payload: like 0x21 but with no
// server-flag field.
func ParseCommandResponseJM01(body []byte, headerSize int) (CommandResponse, error) {
	start := frame.PayloadStart(headerSize)
	lenFieldSize := 1
	if headerSize == 4 {
		lenFieldSize = 2
	}
	if len(body) < start+lenFieldSize {
		return CommandResponse{}, fmt.Errorf("%w: command response jm01", ErrShortPayload)
	}

	declared := int(be32(body[start : start+lenFieldSize]))

	textStart := start + lenFieldSize
	textEnd := textStart + declared
	maxEnd := len(body) - 6
	if textEnd > maxEnd {
		textEnd = maxEnd
	}
	if textEnd < textStart {
		textEnd = textStart
	}

	return CommandResponse{
		Sequence: frame.SequenceBE(body),
		Opcode:   OpCommandResponseJM01,
		Text:     trimResponseText(body[textStart:textEnd]),
	}, nil
}
