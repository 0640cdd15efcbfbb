package protocol

import (
	"fmt"
	"time"

	"github.com/fleetwire/gt06-gateway/pkg/bcd"
	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// AccessPoint is one WiFi access point record inside a 0x2C payload.
type AccessPoint struct {
	MAC      string // six hex pairs joined by ':'
	Strength int8   // signed, two's complement
	SSID     string
}

// WiFi is the decoded payload of opcode 0x2C.
type WiFi struct {
	Sequence uint16
	Time     time.Time

	MCC       uint32
	MNC       byte
	LAC       uint32
	CellID    uint32
	RSSI      byte
	Neighbors [6]NeighborCell

	TimeLeads byte
	APs       []AccessPoint
}

func (WiFi) isValue() {}

// ParseWiFi decodes a 0x2C payload: date(6), LBS block (45), time-leads(1),
// ap_count(1), then ap_count records of mac(6) strength(1) ssid_len(1)
// ssid(ssid_len).
func ParseWiFi(body []byte, headerSize int) (WiFi, error) {
	start := frame.PayloadStart(headerSize)
	const fixedSize = 6 + lbsMultiBlockSize + 1 + 1
	if len(body) < start+fixedSize {
		return WiFi{}, fmt.Errorf("%w: wifi", ErrShortPayload)
	}

	t, err := bcd.DateTime(body[start : start+6])
	if err != nil {
		return WiFi{}, err
	}

	cursor := start + 6
	out := WiFi{Sequence: frame.SequenceBE(body), Time: t}
	out.MCC, out.MNC, out.LAC, out.CellID, out.RSSI, out.Neighbors = decodeLBSMultiBlock(body[cursor : cursor+lbsMultiBlockSize])
	cursor += lbsMultiBlockSize

	out.TimeLeads = body[cursor]
	cursor++
	apCount := int(body[cursor])
	cursor++

	out.APs = make([]AccessPoint, 0, apCount)
	for i := 0; i < apCount; i++ {
		if len(body) < cursor+8 {
			return WiFi{}, fmt.Errorf("%w: wifi ap header", ErrShortPayload)
		}
		mac := body[cursor : cursor+6]
		strength := int8(body[cursor+6])
		ssidLen := int(body[cursor+7])
		cursor += 8

		if len(body) < cursor+ssidLen {
			return WiFi{}, fmt.Errorf("%w: wifi ssid", ErrShortPayload)
		}
		ssid := string(body[cursor : cursor+ssidLen])
		cursor += ssidLen

		out.APs = append(out.APs, AccessPoint{
			MAC:      formatMAC(mac),
			Strength: strength,
			SSID:     ssid,
		})
	}

	return out, nil
}

func formatMAC(b []byte) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, 0, 17)
	for i, x := range b {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, hexDigits[x>>4], hexDigits[x&0x0F])
	}
	return string(out)
}
