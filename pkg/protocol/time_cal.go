package protocol

import "github.com/fleetwire/gt06-gateway/pkg/frame"

// TimeCalibration is the decoded (empty) payload of opcode 0x8A.
type TimeCalibration struct {
	Sequence uint16
}

func (TimeCalibration) isValue() {}

// ParseTimeCalibration decodes a 0x8A request. The payload carries no
// fields; only the sequence matters.
func ParseTimeCalibration(body []byte, _ int) (TimeCalibration, error) {
	return TimeCalibration{Sequence: frame.SequenceBE(body)}, nil
}
