// Package protocol implements the fifteen GT06 payload parsers, their
// acknowledgment/response builders, and the outbound command encoder.
//
// Dispatch is a static, exhaustive switch on Opcode rather than a table of
// virtual handlers: Parse returns a Value, a tagged union over the decoded
// payload variants, and callers type-switch on the concrete type.
package protocol

import "errors"

// Opcode identifies a GT06 frame's protocol number.
type Opcode byte

const (
	OpLogin                 Opcode = 0x01
	OpLBSAlarm              Opcode = 0x19
	OpGPSLocation           Opcode = 0x22
	OpCommandResponse       Opcode = 0x21
	OpCommandResponseJM01   Opcode = 0x15
	OpHeartbeat             Opcode = 0x13
	OpAlarm                 Opcode = 0x26
	OpAlarmHVT001           Opcode = 0x27
	OpLBSMultiBase          Opcode = 0x28
	OpWiFi                  Opcode = 0x2C
	OpTimeCalibration       Opcode = 0x8A
	OpLargeFileTransfer     Opcode = 0x8D
	OpInfoTransmission      Opcode = 0x94
	OpExtDeviceTransfer     Opcode = 0x9B
	OpExtModuleTransmission Opcode = 0x9C
	OpCommand               Opcode = 0x80 // outbound only
)

func (o Opcode) String() string {
	switch o {
	case OpLogin:
		return "login"
	case OpLBSAlarm:
		return "lbs_alarm"
	case OpGPSLocation:
		return "gps_location"
	case OpCommandResponse:
		return "command_response"
	case OpCommandResponseJM01:
		return "command_response_jm01"
	case OpHeartbeat:
		return "heartbeat"
	case OpAlarm:
		return "alarm"
	case OpAlarmHVT001:
		return "alarm_hvt001"
	case OpLBSMultiBase:
		return "lbs_multi_base"
	case OpWiFi:
		return "wifi"
	case OpTimeCalibration:
		return "time_calibration"
	case OpLargeFileTransfer:
		return "large_file_transfer"
	case OpInfoTransmission:
		return "info_transmission"
	case OpExtDeviceTransfer:
		return "ext_device_transfer"
	case OpExtModuleTransmission:
		return "ext_module_transmission"
	case OpCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Errors returned by parsers. Structural errors are contained within a
// single frame by the caller: they never abort the connection.
var (
	ErrShortPayload  = errors.New("protocol: payload shorter than opcode requires")
	ErrUnknownOpcode = errors.New("protocol: unknown opcode")
)

// Value is the tagged union over every opcode's decoded payload. Each
// variant below implements it with a no-op marker method so the compiler
// enforces the closed set of cases; dispatch is an exhaustive type switch,
// not a registry of interfaces.
type Value interface {
	isValue()
}

// Unknown wraps the raw payload of an opcode with no dedicated parser.
type Unknown struct {
	Sequence uint16
	Opcode   byte
	Raw      []byte
}

func (Unknown) isValue() {}

// GPSBlock is the GPS fix sub-structure shared by GPS location (0x22) and,
// when present, the HVT001 alarm (0x27).
type GPSBlock struct {
	Satellites     int
	Latitude       float64
	Longitude      float64
	SpeedKMH       int
	Course         int // 10-bit raw value, 0..1023
	Positioned     bool
	Differential   bool
	MCC            uint32
	MNC            byte
	LAC            uint32
	CellID         uint32
}
