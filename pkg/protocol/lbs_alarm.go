package protocol

import (
	"fmt"

	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// LBSAlarm is the decoded payload of opcode 0x19.
type LBSAlarm struct {
	Sequence uint16

	MCC    uint32
	MNC    byte
	LAC    uint32
	CellID uint32

	TerminalInfo  byte
	VoltageLevel  byte
	GSMSignal     byte
	AlarmCode     byte
	AlarmText     string
	Language      byte
}

func (LBSAlarm) isValue() {}

// ParseLBSAlarm decodes a 0x19 LBS-alarm payload: MCC(2) MNC(1) LAC(2)
// Cell-ID(3) terminal-info(1) voltage-level(1) gsm(1) alarm(1) language(1).
func ParseLBSAlarm(body []byte, headerSize int) (LBSAlarm, error) {
	start := frame.PayloadStart(headerSize)
	const size = 13
	if len(body) < start+size {
		return LBSAlarm{}, fmt.Errorf("%w: lbs alarm", ErrShortPayload)
	}
	b := body[start : start+size]

	alarm := b[11]
	return LBSAlarm{
		Sequence:     frame.SequenceBE(body),
		MCC:          be32(b[0:2]),
		MNC:          b[2],
		LAC:          be32(b[3:5]),
		CellID:       be32(b[5:8]),
		TerminalInfo: b[8],
		VoltageLevel: b[9],
		GSMSignal:    b[10],
		AlarmCode:    alarm,
		AlarmText:    AlarmCodeText[alarm],
		Language:     b[12],
	}, nil
}
