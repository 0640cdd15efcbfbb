package protocol

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// Information-transmission sub-opcodes (§4.3.11).
const (
	InfoSubExternalVoltage    byte = 0x00
	InfoSubStatusSync         byte = 0x04
	InfoSubDoorStatus         byte = 0x05
	InfoSubICCID              byte = 0x0A
)

// InfoTransmission is the decoded payload of opcode 0x94. No
// acknowledgment is sent for this opcode.
type InfoTransmission struct {
	Sequence  uint16
	SubOpcode byte

	// Populated when SubOpcode == InfoSubExternalVoltage.
	ExternalVoltage float64

	// Populated when SubOpcode == InfoSubStatusSync.
	StatusFields      map[string]string
	FuelElectricityCut bool

	// Populated when SubOpcode == InfoSubDoorStatus.
	DoorOpen       bool
	DoorTriggering bool
	DoorIOHigh     bool

	// Populated when SubOpcode == InfoSubICCID.
	ICCID string

	// Populated for any other sub-opcode.
	Raw []byte
}

func (InfoTransmission) isValue() {}

// ParseInfoTransmission decodes a 0x94 payload. The first byte after the
// opcode is the sub-opcode; its meaning governs the rest of the layout.
func ParseInfoTransmission(body []byte, headerSize int) (InfoTransmission, error) {
	start := frame.PayloadStart(headerSize)
	if len(body) < start+7 {
		return InfoTransmission{}, fmt.Errorf("%w: info transmission", ErrShortPayload)
	}
	sub := body[start]
	rest := body[start+1 : len(body)-6]

	out := InfoTransmission{
		Sequence:  frame.SequenceBE(body),
		SubOpcode: sub,
	}

	switch sub {
	case InfoSubExternalVoltage:
		if len(rest) < 2 {
			return InfoTransmission{}, fmt.Errorf("%w: info external voltage", ErrShortPayload)
		}
		out.ExternalVoltage = float64(be32(rest[:2])) / 100

	case InfoSubStatusSync:
		out.StatusFields = parseStatusSync(string(rest))
		if dyd, ok := out.StatusFields["DYD"]; ok {
			out.FuelElectricityCut = dydFuelCut(dyd)
		}

	case InfoSubDoorStatus:
		if len(rest) < 1 {
			return InfoTransmission{}, fmt.Errorf("%w: info door status", ErrShortPayload)
		}
		b := rest[0]
		out.DoorOpen = b&(1<<0) != 0
		out.DoorTriggering = b&(1<<1) != 0
		out.DoorIOHigh = b&(1<<2) != 0

	case InfoSubICCID:
		if len(rest) < 10 {
			return InfoTransmission{}, fmt.Errorf("%w: info iccid", ErrShortPayload)
		}
		out.ICCID = strings.ToUpper(hex.EncodeToString(rest[:10]))

	default:
		out.Raw = append([]byte(nil), rest...)
	}

	return out, nil
}

// parseStatusSync parses "KEY=VAL;KEY=VAL;..." into a map.
func parseStatusSync(s string) map[string]string {
	out := make(map[string]string)
	for _, kv := range strings.Split(s, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}

// dydFuelCut reports whether the DYD status field's bit1 (fuel/electricity
// cut) is set. DYD is transmitted as a hex string.
func dydFuelCut(hexVal string) bool {
	v, err := strconv.ParseUint(strings.TrimPrefix(hexVal, "0x"), 16, 64)
	if err != nil {
		return false
	}
	return v&(1<<1) != 0
}
