package frame

import "testing"

// s1Login is the literal S1 login example.
var s1Login = []byte{
	0x78, 0x78, 0x11, 0x01, 0x03, 0x55, 0x17, 0x21, 0x07, 0x46, 0x10, 0x53,
	0x00, 0x36, 0x00, 0x01, 0x00, 0x01, 0xE0, 0xD1, 0x0D, 0x0A,
}

func TestDecodeSingleFrame(t *testing.T) {
	res := Decode(s1Login)
	if res.Outcome != Frame {
		t.Fatalf("Outcome = %v, want Frame", res.Outcome)
	}
	if res.Opcode != 0x01 {
		t.Fatalf("Opcode = %#x, want 0x01", res.Opcode)
	}
	if res.Advance != len(s1Login) {
		t.Fatalf("Advance = %d, want %d", res.Advance, len(s1Login))
	}
	if res.HeaderSize != 3 {
		t.Fatalf("HeaderSize = %d, want 3", res.HeaderSize)
	}
	seq := SequenceBE(res.Body)
	if seq != 0x0001 {
		t.Fatalf("sequence = %#x, want 0x0001", seq)
	}
}

func TestDecodeFragmentedDelivery(t *testing.T) {
	chunks := [][]byte{
		s1Login[:7],
		s1Login[7:13],
		s1Login[13:],
	}
	var buf []byte
	frames := 0
	for _, c := range chunks {
		buf = append(buf, c...)
		for {
			res := Decode(buf)
			switch res.Outcome {
			case NeedMoreBytes:
				goto nextChunk
			case Resync:
				buf = buf[res.Advance:]
			case Frame:
				frames++
				buf = buf[res.Advance:]
			}
		}
	nextChunk:
	}
	if frames != 1 {
		t.Fatalf("got %d frames, want exactly 1", frames)
	}
	if len(buf) != 0 {
		t.Fatalf("residual buffer len = %d, want 0", len(buf))
	}
}

func TestDecodeNeedMoreBytes(t *testing.T) {
	res := Decode(s1Login[:4])
	if res.Outcome != NeedMoreBytes {
		t.Fatalf("Outcome = %v, want NeedMoreBytes", res.Outcome)
	}
}

func TestDecodeResyncOnGarbage(t *testing.T) {
	buf := append([]byte{0x00, 0x00, 0x00}, s1Login...)
	res := Decode(buf)
	if res.Outcome != Resync {
		t.Fatalf("Outcome = %v, want Resync", res.Outcome)
	}
	if res.Advance != 3 {
		t.Fatalf("Advance = %d, want 3 (index of the 0x78 byte)", res.Advance)
	}
}

func TestDecodeResyncDiscardsAllWhenNoStartFound(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	res := Decode(buf)
	if res.Outcome != Resync {
		t.Fatalf("Outcome = %v, want Resync", res.Outcome)
	}
	if res.Advance != len(buf) {
		t.Fatalf("Advance = %d, want %d", res.Advance, len(buf))
	}
}

func TestDecodeLongFrame(t *testing.T) {
	// 79 79, length 0x0007 (opcode+2byte payload+seq+crc), opcode 0x8A,
	// 2-byte payload, sequence, crc, terminator.
	buf := []byte{0x79, 0x79, 0x00, 0x07, 0x8A, 0xAA, 0xBB, 0x00, 0x01, 0x00, 0x00, 0x0D, 0x0A}
	res := Decode(buf)
	if res.Outcome != Frame {
		t.Fatalf("Outcome = %v, want Frame", res.Outcome)
	}
	if res.HeaderSize != 4 {
		t.Fatalf("HeaderSize = %d, want 4", res.HeaderSize)
	}
	if res.Start != StartLong {
		t.Fatalf("Start = %#x, want %#x", res.Start, StartLong)
	}
}

func TestDecodeBadTerminatorStillReturnsFrame(t *testing.T) {
	buf := append([]byte(nil), s1Login...)
	buf[len(buf)-2] = 0xFF
	res := Decode(buf)
	if res.Outcome != Frame {
		t.Fatalf("Outcome = %v, want Frame despite bad terminator", res.Outcome)
	}
	if !res.BadTerminator {
		t.Fatalf("BadTerminator = false, want true")
	}
}

func TestPayloadStart(t *testing.T) {
	if got := PayloadStart(3); got != 4 {
		t.Fatalf("PayloadStart(3) = %d, want 4", got)
	}
	if got := PayloadStart(4); got != 5 {
		t.Fatalf("PayloadStart(4) = %d, want 5", got)
	}
}
