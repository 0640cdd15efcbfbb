package protocol

import (
	"fmt"
	"time"

	"github.com/fleetwire/gt06-gateway/pkg/bcd"
	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// AlarmCodeText is the §4.3.4 alarm code table. It holds only the eleven
// codes listed below; any other code renders as the empty string.
var AlarmCodeText = map[byte]string{
	0x01: "SOS",
	0x02: "Power Cut Alarm",
	0x03: "Vibration Alarm",
	0x04: "Enter Fence Alarm",
	0x05: "Exit Fence Alarm",
	0x06: "Over Speed Alarm",
	0x0E: "External Low Battery Alarm",
	0x13: "Tamper Alarm",
	0x19: "Internal Low Battery Alarm",
	0xFE: "ACC On",
	0xFF: "ACC Off",
}

// Alarm is the decoded payload shared by opcode 0x26 (Alarm) and opcode
// 0x27 (Alarm-HVT001, which may additionally carry a GPS fix).
type Alarm struct {
	Sequence uint16
	Opcode   Opcode

	Time time.Time

	HasGPS bool
	GPS    GPSBlock

	AlarmCode byte
	AlarmText string

	// Middle holds the bytes between the date/optional-GPS prefix and the
	// trailing alarm code: spec.md §4.3.4 does not give a byte-exact
	// layout for this region across both opcodes, so it is kept raw
	// rather than guessed field-by-field.
	Middle []byte
}

func (Alarm) isValue() {}

// alarmCodeOffset locates the alarm code byte. spec.md §4.3.4 places it at
// "frame_length - 8", where frame_length is the wire length field (bytes
// from opcode through CRC inclusive, per spec.md §3) rather than the total
// frame size; since total = headerSize + declaredLen + 2, that resolves to
// a header-size-independent len(body)-10. Verified against the §8 S3
// worked example (alarm code 0x02 at that exact index).
func alarmCodeOffset(body []byte) int {
	return len(body) - 10
}

// parseAlarmCommon implements both 0x26 and 0x27: only 0x27 ever decodes an
// embedded GPS block, per spec.md §4.3.4.
func parseAlarmCommon(body []byte, headerSize int, op Opcode, allowGPS bool) (Alarm, error) {
	start := frame.PayloadStart(headerSize)
	if len(body) < start+6 {
		return Alarm{}, fmt.Errorf("%w: alarm", ErrShortPayload)
	}
	t, err := bcd.DateTime(body[start : start+6])
	if err != nil {
		return Alarm{}, err
	}

	out := Alarm{
		Sequence: frame.SequenceBE(body),
		Opcode:   op,
		Time:     t,
	}

	cursor := start + 6
	if allowGPS && len(body) >= cursor+1 {
		gpsInfo := body[cursor]
		if gpsInfo&0x0F > 0 && len(body) >= cursor+gpsBlockSize {
			gps, err := decodeGPSBlock(body[cursor : cursor+gpsBlockSize])
			if err == nil {
				out.HasGPS = true
				out.GPS = gps
				cursor += gpsBlockSize
			}
		}
	}

	alarmIdx := alarmCodeOffset(body)
	if alarmIdx < cursor || alarmIdx >= len(body) {
		return Alarm{}, fmt.Errorf("%w: alarm code out of range", ErrShortPayload)
	}

	out.Middle = body[cursor:alarmIdx]
	out.AlarmCode = body[alarmIdx]
	out.AlarmText = AlarmCodeText[out.AlarmCode]

	return out, nil
}

// ParseAlarm decodes a 0x26 alarm payload.
func ParseAlarm(body []byte, headerSize int) (Alarm, error) {
	return parseAlarmCommon(body, headerSize, OpAlarm, false)
}

// ParseAlarmHVT001 decodes a 0x27 alarm-HVT001 payload, including its
// optional embedded GPS fix.
func ParseAlarmHVT001(body []byte, headerSize int) (Alarm, error) {
	return parseAlarmCommon(body, headerSize, OpAlarmHVT001, true)
}
