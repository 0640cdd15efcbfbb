package protocol

import "github.com/fleetwire/gt06-gateway/pkg/frame"

// Parse dispatches a decoded frame to its opcode's parser via an exhaustive
// switch (spec.md §9: a static tagged union, not a table of virtual
// handlers). Unknown opcodes are returned as Unknown rather than an error,
// matching spec.md §7's "log at info, do not disconnect" policy.
func Parse(res frame.Result) (Value, error) {
	switch Opcode(res.Opcode) {
	case OpLogin:
		return ParseLogin(res.Body, res.HeaderSize)
	case OpHeartbeat:
		return ParseHeartbeat(res.Body, res.HeaderSize)
	case OpGPSLocation:
		return ParseGPSLocation(res.Body, res.HeaderSize)
	case OpAlarm:
		return ParseAlarm(res.Body, res.HeaderSize)
	case OpAlarmHVT001:
		return ParseAlarmHVT001(res.Body, res.HeaderSize)
	case OpLBSAlarm:
		return ParseLBSAlarm(res.Body, res.HeaderSize)
	case OpLBSMultiBase:
		return ParseLBSMultiBase(res.Body, res.HeaderSize)
	case OpWiFi:
		return ParseWiFi(res.Body, res.HeaderSize)
	case OpCommandResponse:
		return ParseCommandResponse(res.Body, res.HeaderSize)
	case OpCommandResponseJM01:
		return ParseCommandResponseJM01(res.Body, res.HeaderSize)
	case OpTimeCalibration:
		return ParseTimeCalibration(res.Body, res.HeaderSize)
	case OpInfoTransmission:
		return ParseInfoTransmission(res.Body, res.HeaderSize)
	case OpLargeFileTransfer:
		return ParseLargeFileTransfer(res.Body, res.HeaderSize)
	case OpExtDeviceTransfer:
		return ParseExtDeviceTransfer(res.Body, res.HeaderSize)
	case OpExtModuleTransmission:
		return ParseExtModuleTransmission(res.Body, res.HeaderSize)
	default:
		start := frame.PayloadStart(res.HeaderSize)
		seqStart := len(res.Body) - 6
		var raw []byte
		if seqStart > start {
			raw = append([]byte(nil), res.Body[start:seqStart]...)
		}
		return Unknown{
			Sequence: frame.SequenceBE(res.Body),
			Opcode:   res.Opcode,
			Raw:      raw,
		}, nil
	}
}

// HasAck reports whether opcode op requires the session to write an
// acknowledgment/response frame after a successful parse.
func HasAck(op Opcode) bool {
	switch op {
	case OpLogin, OpHeartbeat, OpAlarm, OpAlarmHVT001, OpLBSAlarm, OpWiFi,
		OpTimeCalibration, OpLargeFileTransfer, OpExtDeviceTransfer, OpExtModuleTransmission:
		return true
	default:
		return false
	}
}
