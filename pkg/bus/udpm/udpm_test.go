package udpm

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte{0x12, 0x34, 0x56, 0x78, 0x00, 0xFF}
	frame, err := encodeFrame("TELEMETRY", payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ch, body, err := decodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ch != "TELEMETRY" || !bytes.Equal(body, payload) {
		t.Fatalf("round trip lost data: %q %x", ch, body)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x01, 0x02},
		{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0},            // wrong magic
		{0x45, 0x49, 0x47, 0x42, 0xff, 0xff, 0xff, 0xff}, // absurd channel length
	}
	for i, frame := range cases {
		if _, _, err := decodeFrame(frame); err == nil {
			t.Fatalf("case %d: garbage frame must be rejected", i)
		}
	}
}

func TestEncodeEnforcesDatagramLimit(t *testing.T) {
	if _, err := encodeFrame("A", make([]byte, maxDatagram)); err == nil {
		t.Fatalf("oversized frame must be rejected")
	}
}
