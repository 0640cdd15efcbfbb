package protocol

import (
	"fmt"

	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// ExtDeviceTransfer is the decoded payload of opcode 0x9B: data-length(1),
// data(data-length bytes). Acknowledged with BuildExtDeviceAck.
type ExtDeviceTransfer struct {
	Sequence uint16
	Data     []byte
}

func (ExtDeviceTransfer) isValue() {}

// ParseExtDeviceTransfer decodes a 0x9B payload.
func ParseExtDeviceTransfer(body []byte, headerSize int) (ExtDeviceTransfer, error) {
	start := frame.PayloadStart(headerSize)
	if len(body) < start+1 {
		return ExtDeviceTransfer{}, fmt.Errorf("%w: ext device transfer", ErrShortPayload)
	}
	n := int(body[start])
	if len(body) < start+1+n {
		return ExtDeviceTransfer{}, fmt.Errorf("%w: ext device transfer data", ErrShortPayload)
	}
	return ExtDeviceTransfer{
		Sequence: frame.SequenceBE(body),
		Data:     append([]byte(nil), body[start+1:start+1+n]...),
	}, nil
}

// ExtModuleTransmission is the decoded payload of opcode 0x9C:
// module-id(1), data-length(1), data(data-length bytes). Acknowledged with
// BuildExtModuleAck, which echoes ModuleID.
type ExtModuleTransmission struct {
	Sequence uint16
	ModuleID byte
	Data     []byte
}

func (ExtModuleTransmission) isValue() {}

// ParseExtModuleTransmission decodes a 0x9C payload.
func ParseExtModuleTransmission(body []byte, headerSize int) (ExtModuleTransmission, error) {
	start := frame.PayloadStart(headerSize)
	if len(body) < start+2 {
		return ExtModuleTransmission{}, fmt.Errorf("%w: ext module transmission", ErrShortPayload)
	}
	moduleID := body[start]
	n := int(body[start+1])
	if len(body) < start+2+n {
		return ExtModuleTransmission{}, fmt.Errorf("%w: ext module transmission data", ErrShortPayload)
	}
	return ExtModuleTransmission{
		Sequence: frame.SequenceBE(body),
		ModuleID: moduleID,
		Data:     append([]byte(nil), body[start+2:start+2+n]...),
	}, nil
}
