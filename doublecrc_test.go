package solarman

import (
	"bytes"
	"testing"

	"github.com/oss-modbus/solarman-v5/rtu"
)

// TestCorrectDoubleCRCScenario4 is spec §8 scenario 4.
func TestCorrectDoubleCRCScenario4(t *testing.T) {
	frame := []byte{0x01, 0x03, 0x02, 0x12, 0x34, 0xB5, 0x33, 0x00, 0x00}
	want := []byte{0x01, 0x03, 0x02, 0x12, 0x34, 0xB5, 0x33}

	codec := rtu.Codec{}
	got, ok := CorrectDoubleCRC(frame, codec.CRC16)
	if !ok {
		t.Fatalf("CorrectDoubleCRC: ok = false, want true")
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("CorrectDoubleCRC = % X, want % X", got, want)
	}
}

func TestCorrectDoubleCRCNeverTruncatesOnBadTrailingZeros(t *testing.T) {
	codec := rtu.Codec{}
	// Trailing zero bytes, but the frame preceding them does not itself
	// carry a valid CRC.
	frame := []byte{0x01, 0x03, 0x02, 0xAA, 0xBB, 0x00, 0x00, 0x00, 0x00}
	got, ok := CorrectDoubleCRC(frame, codec.CRC16)
	if ok {
		t.Fatalf("CorrectDoubleCRC: ok = true, want false")
	}
	if !bytes.Equal(got, frame) {
		t.Fatalf("CorrectDoubleCRC returned truncated bytes on failure: % X", got)
	}
}

func TestCorrectDoubleCRCRejectsNonZeroTrailer(t *testing.T) {
	codec := rtu.Codec{}
	frame := []byte{0x01, 0x03, 0x02, 0x12, 0x34, 0xB5, 0x33, 0x01, 0x00}
	_, ok := CorrectDoubleCRC(frame, codec.CRC16)
	if ok {
		t.Fatalf("CorrectDoubleCRC: ok = true, want false (non-zero trailer)")
	}
}

func TestCorrectDoubleCRCRejectsTooShort(t *testing.T) {
	codec := rtu.Codec{}
	_, ok := CorrectDoubleCRC([]byte{0x00, 0x00, 0x00, 0x00}, codec.CRC16)
	if ok {
		t.Fatalf("CorrectDoubleCRC: ok = true, want false (too short)")
	}
}
