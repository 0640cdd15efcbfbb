package protocol

import (
	"fmt"

	"github.com/fleetwire/gt06-gateway/pkg/bcd"
	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// Login is the decoded payload of opcode 0x01.
type Login struct {
	Sequence   uint16
	Identifier string
}

func (Login) isValue() {}

// ParseLogin decodes an 8-byte BCD identifier from the login payload.
func ParseLogin(body []byte, headerSize int) (Login, error) {
	start := frame.PayloadStart(headerSize)
	if len(body) < start+8 {
		return Login{}, fmt.Errorf("%w: login", ErrShortPayload)
	}
	id, err := bcd.DecodeIdentifier(body[start : start+8])
	if err != nil {
		return Login{}, fmt.Errorf("protocol: login identifier: %w", err)
	}
	return Login{
		Sequence:   frame.SequenceBE(body),
		Identifier: id,
	}, nil
}
