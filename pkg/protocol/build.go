package protocol

import (
	"math/rand"

	"github.com/fleetwire/gt06-gateway/pkg/crc"
	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// assemble builds a complete outbound frame: start marker, length field,
// opcode, afterOpcode (any opcode-specific bytes preceding the sequence),
// sequence, CRC-ITU over [length..sequence], and terminator. forceLong
// pins long (0x7979) framing even when the packet would fit in a short
// frame, as §4.3.12's large-file-transfer ack requires.
func assemble(opcode byte, afterOpcode []byte, seq uint16, forceLong bool) []byte {
	packetLen := 1 + len(afterOpcode) + 2 + 2 // opcode + afterOpcode + seq + crc

	var lengthField []byte
	var start uint16
	if !forceLong && packetLen < 256 {
		start = frame.StartShort
		lengthField = []byte{byte(packetLen)}
	} else {
		start = frame.StartLong
		lengthField = []byte{byte(packetLen >> 8), byte(packetLen)}
	}

	content := make([]byte, 0, len(lengthField)+1+len(afterOpcode)+2)
	content = append(content, lengthField...)
	content = append(content, opcode)
	content = append(content, afterOpcode...)
	content = append(content, byte(seq>>8), byte(seq))

	out := make([]byte, 0, 2+len(content)+2+2)
	out = append(out, byte(start>>8), byte(start))
	out = append(out, content...)
	out = crc.AppendBE(out, content)
	out = append(out, 0x0D, 0x0A)
	return out
}

// simpleAck builds the common "05 <opcode> seq_hi seq_lo crc crc" ack body
// shared by login, heartbeat, LBS alarm, LBS multi-base has none, WiFi,
// alarm, and alarm-HVT001 acknowledgments (spec §9: one ack builder per
// opcode, but the fixed-shape ones share this helper to avoid repetition).
func simpleAck(opcode byte, seq uint16) []byte {
	return assemble(opcode, nil, seq, false)
}

// BuildLoginAck builds the 0x01 login acknowledgment.
func BuildLoginAck(seq uint16) []byte { return simpleAck(byte(OpLogin), seq) }

// BuildHeartbeatAck builds the 0x13 heartbeat acknowledgment.
func BuildHeartbeatAck(seq uint16) []byte { return simpleAck(byte(OpHeartbeat), seq) }

// BuildAlarmAck builds the 0x26 alarm acknowledgment.
func BuildAlarmAck(seq uint16) []byte { return simpleAck(byte(OpAlarm), seq) }

// BuildAlarmHVT001Ack builds the 0x27 alarm-HVT001 acknowledgment.
func BuildAlarmHVT001Ack(seq uint16) []byte { return simpleAck(byte(OpAlarmHVT001), seq) }

// BuildLBSAlarmAck builds the 0x19 LBS-alarm acknowledgment.
func BuildLBSAlarmAck(seq uint16) []byte { return simpleAck(byte(OpLBSAlarm), seq) }

// BuildWiFiAck builds the 0x2C WiFi acknowledgment.
func BuildWiFiAck(seq uint16) []byte { return simpleAck(byte(OpWiFi), seq) }

// BuildExtDeviceAck builds the 0x9B external-device-transfer acknowledgment.
func BuildExtDeviceAck(seq uint16) []byte { return simpleAck(byte(OpExtDeviceTransfer), seq) }

// BuildExtModuleAck builds the 0x9C external-module-transmission
// acknowledgment: "06 9C module_id seq…" — one byte longer than the other
// acks because it echoes the module ID.
func BuildExtModuleAck(moduleID byte, seq uint16) []byte {
	return assemble(byte(OpExtModuleTransmission), []byte{moduleID}, seq, false)
}

// BuildLargeFileTransferAck builds the long-framed 0x8D ack:
// "79 79 00 06 8D success_flag seq_hi seq_lo crc crc 0D 0A".
func BuildLargeFileTransferAck(seq uint16, success bool) []byte {
	flag := byte(0x01)
	if !success {
		flag = 0x00
	}
	return assemble(byte(OpLargeFileTransfer), []byte{flag}, seq, true)
}

// BuildTimeCalibrationResponse builds the 0x8A response:
// "0B 8A YY MM DD hh mm ss seq_hi seq_lo crc crc", where the date-time
// bytes are dt as given (the session passes the current UTC time).
func BuildTimeCalibrationResponse(seq uint16, dt [6]byte) []byte {
	return assemble(byte(OpTimeCalibration), dt[:], seq, false)
}

// NewSequence returns a random 16-bit sequence for an outbound command,
// matching the source behaviour described in spec §4.4. Session-level
// command issuance prefers a monotonic per-session counter (see
// pkg/session) to remove the collision window noted in spec §9; this
// helper remains for callers that genuinely want a random sequence.
func NewSequence() uint16 {
	return uint16(rand.Intn(1 << 16))
}

// BuildCommand encodes an outbound online command (opcode 0x80): server
// flag 00 00 00 00, ASCII command bytes (must end with '#'), language
// 00 02 (English), using the supplied sequence.
func BuildCommand(command string, seq uint16) []byte {
	serverFlag := [4]byte{0, 0, 0, 0}
	language := [2]byte{0x00, 0x02}

	inner := make([]byte, 0, 4+len(command)+2)
	inner = append(inner, serverFlag[:]...)
	inner = append(inner, command...)
	inner = append(inner, language[:]...)

	commandLength := byte(len(inner))
	if len(inner) > 255 {
		// The command-length byte can only hold 0..255; callers must not
		// exceed that. Clamp defensively rather than silently truncate.
		commandLength = 255
	}

	afterOpcode := make([]byte, 0, 1+len(inner))
	afterOpcode = append(afterOpcode, commandLength)
	afterOpcode = append(afterOpcode, inner...)

	return assemble(byte(OpCommand), afterOpcode, seq, false)
}
