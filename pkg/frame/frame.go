// Package frame implements the stateful GT06 stream decoder: it extracts
// one complete frame at a time from a growing, arbitrarily-fragmented byte
// buffer, resynchronising on corrupted start markers.
package frame

import "encoding/binary"

// Start markers.
const (
	StartShort uint16 = 0x7878
	StartLong  uint16 = 0x7979
)

// Terminator bytes.
var terminator = [2]byte{0x0D, 0x0A}

// Outcome classifies the result of a single Decode call.
type Outcome int

const (
	// NeedMoreBytes means the buffer does not yet hold a complete frame.
	NeedMoreBytes Outcome = iota
	// Resync means the buffer's head is not a valid start marker; Advance
	// bytes should be discarded (skipping to the next plausible start, or
	// the whole buffer if none was found) before decoding again.
	Resync
	// Frame means a complete frame was extracted.
	Frame
)

// Result is the outcome of one Decode call.
type Result struct {
	Outcome Outcome

	// Advance is how many bytes the caller should drop from the front of
	// the buffer before calling Decode again. For Frame it equals
	// len(Body); for Resync it is the skip distance; for NeedMoreBytes it
	// is always zero.
	Advance int

	// Start is the frame's start marker (valid only when Outcome == Frame).
	Start uint16

	// HeaderSize is the number of bytes from the start marker through and
	// including the length field (3 for short frames, 4 for long frames).
	HeaderSize int

	// Opcode is the frame's protocol opcode (valid only when Outcome == Frame).
	Opcode byte

	// Body is the complete frame, start marker through terminator
	// inclusive (valid only when Outcome == Frame).
	Body []byte

	// BadTerminator is true when a frame was extracted despite its
	// terminator bytes not matching 0x0D 0x0A — the permissive-inbound
	// policy of spec §4.2/§7 still returns the frame.
	BadTerminator bool
}

// Decode inspects buf and returns the next decoding step. It never mutates
// buf. The caller is expected to discard Result.Advance bytes from the
// front of its buffer and call Decode again until it receives
// NeedMoreBytes.
func Decode(buf []byte) Result {
	if len(buf) < 5 {
		return Result{Outcome: NeedMoreBytes}
	}

	start := binary.BigEndian.Uint16(buf[0:2])

	var headerSize int
	var declaredLen int

	switch start {
	case StartShort:
		headerSize = 3
		declaredLen = int(buf[2])
	case StartLong:
		if len(buf) < 6 {
			return Result{Outcome: NeedMoreBytes}
		}
		headerSize = 4
		declaredLen = int(binary.BigEndian.Uint16(buf[2:4]))
	default:
		return findResync(buf)
	}

	total := headerSize + declaredLen + 2
	if len(buf) < total {
		return Result{Outcome: NeedMoreBytes}
	}

	opcode := buf[headerSize]
	body := buf[:total]
	badTerm := body[total-2] != terminator[0] || body[total-1] != terminator[1]

	return Result{
		Outcome:       Frame,
		Advance:       total,
		Start:         start,
		HeaderSize:    headerSize,
		Opcode:        opcode,
		Body:          body,
		BadTerminator: badTerm,
	}
}

// findResync searches buf (from index 1 onward) for the next byte that
// could begin a start marker (0x78 or 0x79), and returns a Resync result
// advancing to that index. If none is found, it advances past the whole
// buffer, discarding it as garbage.
func findResync(buf []byte) Result {
	for i := 1; i < len(buf); i++ {
		if buf[i] == 0x78 || buf[i] == 0x79 {
			return Result{Outcome: Resync, Advance: i}
		}
	}
	return Result{Outcome: Resync, Advance: len(buf)}
}

// SequenceBE reads the two-byte big-endian sequence from the end of a frame
// body: body[len-6:len-4], i.e. immediately before the CRC.
func SequenceBE(body []byte) uint16 {
	n := len(body)
	return binary.BigEndian.Uint16(body[n-6 : n-4])
}

// CRCBE reads the two-byte big-endian CRC trailer from a frame body.
func CRCBE(body []byte) uint16 {
	n := len(body)
	return binary.BigEndian.Uint16(body[n-4 : n-2])
}

// CRCRegion returns the byte range a frame's CRC is computed over: from the
// length field (just past the start marker) through the sequence,
// inclusive.
func CRCRegion(body []byte) []byte {
	n := len(body)
	return body[2 : n-4]
}

// PayloadStart returns the offset of the first payload byte (just past the
// opcode) for a frame with the given header size.
func PayloadStart(headerSize int) int {
	return headerSize + 1
}
