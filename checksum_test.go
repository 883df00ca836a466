package solarman

import "testing"

func TestChecksumEmpty(t *testing.T) {
	if got := Checksum(nil); got != 0 {
		t.Fatalf("Checksum(nil) = %d, want 0", got)
	}
}

func TestChecksumSelfConsistency(t *testing.T) {
	cases := [][]byte{
		{},
		{0x01},
		{0xFF, 0xFF},
		{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0},
	}
	for _, b := range cases {
		var want byte
		for _, v := range b {
			want += v
		}
		if got := Checksum(b); got != want {
			t.Errorf("Checksum(% x) = 0x%02X, want 0x%02X", b, got, want)
		}
	}
}

func TestChecksumAppendIsAdditive(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03}
	base := Checksum(b)
	for x := 0; x < 256; x++ {
		got := Checksum(append(append([]byte{}, b...), byte(x)))
		want := base + byte(x)
		if got != want {
			t.Fatalf("Checksum(B ++ [%d]) = 0x%02X, want 0x%02X", x, got, want)
		}
	}
}
