package bcd

import (
	"testing"
	"time"
)

func TestDecodeIdentifierFromLoginExample(t *testing.T) {
	raw := []byte{0x03, 0x55, 0x17, 0x21, 0x07, 0x46, 0x10, 0x53}
	id, err := DecodeIdentifier(raw)
	if err != nil {
		t.Fatalf("DecodeIdentifier: %v", err)
	}
	if id != "355172107461053" {
		t.Fatalf("DecodeIdentifier = %q, want 355172107461053", id)
	}
}

func TestIdentifierRoundTrip(t *testing.T) {
	for _, id := range []string{"355172107461053", "1", "123456789012345"} {
		raw, err := EncodeIdentifier(id)
		if err != nil {
			t.Fatalf("EncodeIdentifier(%q): %v", id, err)
		}
		got, err := DecodeIdentifier(raw[:])
		if err != nil {
			t.Fatalf("DecodeIdentifier: %v", err)
		}
		if got != id {
			t.Fatalf("round trip: got %q, want %q", got, id)
		}
	}
}

func TestDateTime(t *testing.T) {
	b := []byte{0x1A, 0x02, 0x09, 0x06, 0x11, 0x14}
	got, err := DateTime(b)
	if err != nil {
		t.Fatalf("DateTime: %v", err)
	}
	want := time.Date(2026, time.February, 9, 6, 17, 20, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DateTime = %v, want %v", got, want)
	}
}

func TestUintWidths(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03, 0x04}
	cases := []struct {
		width int
		want  uint32
	}{
		{1, 0x01},
		{2, 0x0102},
		{3, 0x010203},
		{4, 0x01020304},
	}
	for _, c := range cases {
		got, err := Uint(b, c.width)
		if err != nil {
			t.Fatalf("Uint width %d: %v", c.width, err)
		}
		if got != c.want {
			t.Fatalf("Uint width %d = %#x, want %#x", c.width, got, c.want)
		}
	}
}

func TestUintTooShort(t *testing.T) {
	if _, err := Uint([]byte{0x01}, 4); err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}
