package protocol

import (
	"fmt"
	"time"

	"github.com/fleetwire/gt06-gateway/pkg/bcd"
	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// gpsBlockSize is the fixed portion of a GPS fix: gps_info(1) + lat(4) +
// lon(4) + speed(1) + course_status(2) + mcc(2) + mnc(1) + lac(2) +
// cellid(3).
const gpsBlockSize = 20

// decodeGPSBlock decodes the GPS fix sub-structure shared by 0x22 and the
// HVT001 alarm (0x27). b must hold at least gpsBlockSize bytes.
//
// Latitude sign follows the HVT001 interpretation per spec.md §4.3.3/§9:
// bit2 of the course-status high byte set means north (positive).
func decodeGPSBlock(b []byte) (GPSBlock, error) {
	if len(b) < gpsBlockSize {
		return GPSBlock{}, fmt.Errorf("%w: gps block", ErrShortPayload)
	}

	gpsInfo := b[0]
	latRaw := be32(b[1:5])
	lonRaw := be32(b[5:9])
	speed := int(b[9])

	b1, b2 := b[10], b[11]
	course := int(b1&0x03)<<8 | int(b2)
	positioned := b1&(1<<4) != 0
	differential := b1&(1<<5) != 0
	lonWest := b1&(1<<3) != 0
	latNorth := b1&(1<<2) != 0

	lat := float64(latRaw) / 1800000
	if !latNorth {
		lat = -lat
	}
	lon := float64(lonRaw) / 1800000
	if lonWest {
		lon = -lon
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		positioned = false
	}

	mcc := be32(b[12:14])
	mnc := b[14]
	lac := be32(b[15:17])
	cellID := be32(b[17:20])

	return GPSBlock{
		Satellites:   int(gpsInfo & 0x0F),
		Latitude:     lat,
		Longitude:    lon,
		SpeedKMH:     speed,
		Course:       course,
		Positioned:   positioned,
		Differential: differential,
		MCC:          mcc,
		MNC:          mnc,
		LAC:          lac,
		CellID:       cellID,
	}, nil
}

func be32(b []byte) uint32 {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v
}

// UploadModeText maps the §4.3.3 upload-mode code table, supplemented with
// the remaining JM-VL03 codes the source's complete device manual defines.
var UploadModeText = map[byte]string{
	0x00: "Time",
	0x01: "Distance",
	0x02: "Inflection",
	0x03: "ACC",
	0x04: "Re-upload",
	0x05: "Network Recovery",
	0x06: "Refresh Ephemeris",
	0x07: "Key Press",
	0x08: "Power On",
	0x0A: "After Still",
	0x0B: "WiFi",
	0x0C: "Immediate",
	0x0D: "Last Still",
	0x0E: "GPS Dup",
	0x0F: "Exit Tracking",
}

// GPSLocation is the decoded payload of opcode 0x22. No acknowledgment is
// sent for this opcode.
type GPSLocation struct {
	Sequence uint16
	Time     time.Time
	GPS      GPSBlock

	HasExtra    bool
	ACCState    byte
	UploadMode  byte
	UploadText  string
	GPSReupload byte

	HasOdometer bool
	OdometerM   uint32
}

func (GPSLocation) isValue() {}

// ParseGPSLocation decodes a 0x22 GPS-location payload.
func ParseGPSLocation(body []byte, headerSize int) (GPSLocation, error) {
	start := frame.PayloadStart(headerSize)
	if len(body) < start+6+gpsBlockSize {
		return GPSLocation{}, fmt.Errorf("%w: gps location", ErrShortPayload)
	}

	t, err := bcd.DateTime(body[start : start+6])
	if err != nil {
		return GPSLocation{}, err
	}

	gps, err := decodeGPSBlock(body[start+6 : start+6+gpsBlockSize])
	if err != nil {
		return GPSLocation{}, err
	}

	out := GPSLocation{
		Sequence: frame.SequenceBE(body),
		Time:     t,
		GPS:      gps,
	}

	mandatoryEnd := start + 6 + gpsBlockSize
	seqStart := len(body) - 6
	if seqStart < mandatoryEnd {
		return out, nil
	}
	rest := body[mandatoryEnd:seqStart]

	if len(rest) >= 4 {
		out.HasOdometer = true
		odo := rest[len(rest)-4:]
		out.OdometerM = be32(odo)
		rest = rest[:len(rest)-4]
	}
	if len(rest) >= 3 {
		out.HasExtra = true
		out.ACCState = rest[0]
		out.UploadMode = rest[1]
		out.UploadText = UploadModeText[rest[1]]
		out.GPSReupload = rest[2]
	}

	return out, nil
}
