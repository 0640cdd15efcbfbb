package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetwire/gt06-gateway/pkg/frame"
)

// s1Login is the literal S1 login example from the wire test scenarios.
var s1Login = []byte{
	0x78, 0x78, 0x11, 0x01, 0x03, 0x55, 0x17, 0x21, 0x07, 0x46, 0x10, 0x53,
	0x00, 0x36, 0x00, 0x01, 0x00, 0x01, 0xE0, 0xD1, 0x0D, 0x0A,
}

func decodeOne(t *testing.T, buf []byte) frame.Result {
	t.Helper()
	res := frame.Decode(buf)
	require.Equal(t, frame.Frame, res.Outcome)
	return res
}

func TestParseLoginS1(t *testing.T) {
	res := decodeOne(t, s1Login)
	v, err := Parse(res)
	require.NoError(t, err)
	login, ok := v.(Login)
	require.True(t, ok)
	assert.Equal(t, "355172107461053", login.Identifier)
	assert.Equal(t, uint16(0x0001), login.Sequence)

	ack := BuildLoginAck(login.Sequence)
	assert.Equal(t, []byte{0x78, 0x78, 0x05, 0x01, 0x00, 0x01, 0xD9, 0xDC, 0x0D, 0x0A}, ack)

	// The ack itself round-trips through the frame codec to opcode 0x01
	// carrying the same sequence (spec §8, property 3).
	ackRes := frame.Decode(ack)
	require.Equal(t, frame.Frame, ackRes.Outcome)
	assert.Equal(t, byte(OpLogin), ackRes.Opcode)
	assert.Equal(t, uint16(0x0001), frame.SequenceBE(ackRes.Body))
}

func TestParseHeartbeatS2(t *testing.T) {
	body := buildShortFrame(byte(OpHeartbeat), []byte{0x47, 0x06, 0x04, 0x00, 0x02}, 0x0010)
	res := decodeOne(t, body)
	v, err := Parse(res)
	require.NoError(t, err)
	hb, ok := v.(Heartbeat)
	require.True(t, ok)

	assert.False(t, hb.OilElectricityDisconnected)
	assert.True(t, hb.GPSTracking)
	assert.True(t, hb.ChargingExternal)
	assert.True(t, hb.AccHigh)
	assert.True(t, hb.DefenseActivated)
	assert.Equal(t, "Full", hb.BatteryText)
	assert.Equal(t, "Strong", hb.GSMText)

	ack := BuildHeartbeatAck(hb.Sequence)
	ackRes := frame.Decode(ack)
	require.Equal(t, frame.Frame, ackRes.Outcome)
	assert.Equal(t, byte(OpHeartbeat), ackRes.Opcode)
	assert.Equal(t, uint16(0x0010), frame.SequenceBE(ackRes.Body))
}

func TestParseAlarmS3CorruptedExample(t *testing.T) {
	raw := mustHex(t, "787825261A0209061114CF01DBD3430869E777001400090194EA4EB800FFA34002043202008122CC0D0A")
	res := decodeOne(t, raw)
	assert.False(t, res.BadTerminator)

	v, err := Parse(res)
	require.NoError(t, err)
	alarm, ok := v.(Alarm)
	require.True(t, ok)

	assert.Equal(t, 2026, alarm.Time.Year())
	assert.Equal(t, byte(0x02), alarm.AlarmCode)
	assert.Equal(t, "Power Cut Alarm", alarm.AlarmText)

	ack := BuildAlarmAck(alarm.Sequence)
	ackRes := frame.Decode(ack)
	require.Equal(t, frame.Frame, ackRes.Outcome)
	assert.Equal(t, byte(OpAlarm), ackRes.Opcode)
}

func TestCommandEncoderAndResponseCorrelationS5(t *testing.T) {
	seq := uint16(42)
	cmd := BuildCommand("STATUS#", seq)

	res := decodeOne(t, cmd)
	assert.Equal(t, byte(OpCommand), res.Opcode)
	assert.Contains(t, string(res.Body), "STATUS#")
	assert.Equal(t, seq, frame.SequenceBE(res.Body))

	// Device replies with a 0x21 frame carrying the same sequence.
	respBody := []byte("STATUS OK")
	inner := append([]byte{0, 0, 0, 0}, byte(len(respBody)))
	inner = append(inner, respBody...)
	respFrame := buildShortFrame(byte(OpCommandResponse), inner, seq)

	respRes := decodeOne(t, respFrame)
	v, err := Parse(respRes)
	require.NoError(t, err)
	cr, ok := v.(CommandResponse)
	require.True(t, ok)
	assert.Equal(t, seq, cr.Sequence)
	assert.Equal(t, "STATUS OK", cr.Text)
}

func TestParseWiFiAPCountBoundS6(t *testing.T) {
	lbs := make([]byte, 6+45+1+1) // date + lbs block + time-leads + ap_count
	lbs[45+6] = 0                 // time-leads
	lbs[45+6+1] = 2                // ap_count

	ap := func(mac [6]byte, strength byte, ssid string) []byte {
		out := append([]byte{}, mac[:]...)
		out = append(out, strength, byte(len(ssid)))
		out = append(out, ssid...)
		return out
	}
	body := append([]byte{}, lbs...)
	body = append(body, ap([6]byte{0xAA, 0xBB, 0xCC, 0x00, 0x11, 0x22}, 0xF0, "net1")...)
	body = append(body, ap([6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, 0x10, "net2")...)

	frameBytes := buildShortFrame(byte(OpWiFi), body, 0x0099)
	res := decodeOne(t, frameBytes)
	v, err := Parse(res)
	require.NoError(t, err)
	wifi, ok := v.(WiFi)
	require.True(t, ok)
	require.Len(t, wifi.APs, 2)
	for i, a := range wifi.APs {
		assert.Regexp(t, `^[0-9A-F]{2}(:[0-9A-F]{2}){5}$`, a.MAC)
		assert.Len(t, a.SSID, len([]byte(a.SSID)))
		_ = i
	}
	assert.Equal(t, "net1", wifi.APs[0].SSID)
	assert.Equal(t, "net2", wifi.APs[1].SSID)
}

func TestUnknownOpcodeDoesNotError(t *testing.T) {
	frameBytes := buildShortFrame(0xEE, []byte{0x01, 0x02}, 0x0005)
	res := decodeOne(t, frameBytes)
	v, err := Parse(res)
	require.NoError(t, err)
	unk, ok := v.(Unknown)
	require.True(t, ok)
	assert.Equal(t, byte(0xEE), unk.Opcode)
	assert.Equal(t, uint16(0x0005), unk.Sequence)
}

// buildShortFrame assembles a short-framed (0x7878) test frame: opcode,
// afterOpcode bytes, sequence, CRC-ITU, terminator.
func buildShortFrame(opcode byte, afterOpcode []byte, seq uint16) []byte {
	content := make([]byte, 0, 1+len(afterOpcode)+2)
	content = append(content, opcode)
	content = append(content, afterOpcode...)
	content = append(content, byte(seq>>8), byte(seq))

	packetLen := byte(len(content) + 2)
	lenAndContent := append([]byte{packetLen}, content...)

	out := []byte{0x78, 0x78}
	out = append(out, lenAndContent...)
	out = appendCRC(out, lenAndContent)
	out = append(out, 0x0D, 0x0A)
	return out
}

func appendCRC(dst []byte, data []byte) []byte {
	fcs := uint16(0xFFFF)
	const poly = 0x8408
	table := func() [256]uint16 {
		var t [256]uint16
		for i := 0; i < 256; i++ {
			c := uint16(i)
			for b := 0; b < 8; b++ {
				if c&1 != 0 {
					c = (c >> 1) ^ poly
				} else {
					c >>= 1
				}
			}
			t[i] = c
		}
		return t
	}()
	for _, b := range data {
		fcs = (fcs >> 8) ^ table[(fcs^uint16(b))&0xFF]
	}
	sum := ^fcs
	return append(dst, byte(sum>>8), byte(sum))
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi := hexNibble(t, s[i*2])
		lo := hexNibble(t, s[i*2+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexNibble(t *testing.T, c byte) byte {
	t.Helper()
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	t.Fatalf("invalid hex char %q", c)
	return 0
}
