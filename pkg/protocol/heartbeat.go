package protocol

import (
	"fmt"

	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

var batteryLevelText = map[byte]string{
	0: "No Power",
	1: "Extremely Low",
	2: "Very Low",
	3: "Low",
	4: "Medium",
	5: "High",
	6: "Full",
}

var gsmSignalText = map[byte]string{
	0: "No Signal",
	1: "Weak",
	2: "Medium",
	3: "Good",
	4: "Strong",
}

// Heartbeat is the decoded payload of opcode 0x13.
type Heartbeat struct {
	Sequence uint16

	OilElectricityDisconnected bool
	GPSTracking                bool
	ChargingExternal           bool
	AccHigh                    bool
	DefenseActivated           bool

	BatteryLevel byte
	BatteryText  string
	GSMSignal    byte
	GSMText      string
	Language     uint16
}

// ParseHeartbeat decodes terminal-info, battery level, GSM signal, and
// language from a heartbeat payload.
func ParseHeartbeat(body []byte, headerSize int) (Heartbeat, error) {
	start := frame.PayloadStart(headerSize)
	if len(body) < start+5 {
		return Heartbeat{}, fmt.Errorf("%w: heartbeat", ErrShortPayload)
	}

	terminalInfo := body[start]
	batteryLevel := body[start+1]
	gsmSignal := body[start+2]
	language := uint16(body[start+3])<<8 | uint16(body[start+4])

	return Heartbeat{
		Sequence:                   frame.SequenceBE(body),
		OilElectricityDisconnected: terminalInfo&(1<<7) != 0,
		GPSTracking:                terminalInfo&(1<<6) != 0,
		ChargingExternal:           terminalInfo&(1<<2) != 0,
		AccHigh:                    terminalInfo&(1<<1) != 0,
		DefenseActivated:           terminalInfo&(1<<0) != 0,
		BatteryLevel:               batteryLevel,
		BatteryText:                batteryLevelText[batteryLevel],
		GSMSignal:                  gsmSignal,
		GSMText:                    gsmSignalText[gsmSignal],
		Language:                   language,
	}, nil
}

func (Heartbeat) isValue() {}
