package solarman

import "testing"

// scenario1Envelope is spec §8 scenario 1's literal request bytes (see
// frame_test.go TestBuildRequestScenario1), reused here to exercise the
// streaming decoder rather than BuildRequest itself.
var scenario1Envelope = []byte{
	0xA5, 0x17, 0x00, 0x10, 0x45, 0x01, 0x00, 0x78, 0x56, 0x34, 0x12,
	0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x01, 0x03, 0x00, 0x00, 0x00, 0x01, 0x84, 0x0A,
	0x16, 0x15,
}

// TestDecoderSplitFeed is spec §8 scenario 6: the same 36-byte envelope
// arrives in two TCP reads, 10 bytes then the remaining 26; the decoder
// must emit nothing on the first Next and exactly one frame after the
// second.
func TestDecoderSplitFeed(t *testing.T) {
	d := NewDecoder()
	d.Feed(scenario1Envelope[:10])

	if _, err := d.Next(); err != ErrNeedMore {
		t.Fatalf("Next after partial feed = %v, want ErrNeedMore", err)
	}

	d.Feed(scenario1Envelope[10:])
	frame, err := d.Next()
	if err != nil {
		t.Fatalf("Next after full feed: %v", err)
	}
	if len(frame) != len(scenario1Envelope) {
		t.Fatalf("frame len = %d, want %d", len(frame), len(scenario1Envelope))
	}

	if _, err := d.Next(); err != ErrNeedMore {
		t.Fatalf("Next after drain = %v, want ErrNeedMore", err)
	}
}

func TestDecoderExtractsBackToBackFrames(t *testing.T) {
	d := NewDecoder()
	d.Feed(scenario1Envelope)
	d.Feed(scenario1Envelope)

	for i := 0; i < 2; i++ {
		frame, err := d.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if len(frame) != len(scenario1Envelope) {
			t.Fatalf("frame %d len = %d, want %d", i, len(frame), len(scenario1Envelope))
		}
	}
	if _, err := d.Next(); err != ErrNeedMore {
		t.Fatalf("Next after draining two frames = %v, want ErrNeedMore", err)
	}
}

func TestDecoderRejectsInvalidStartByte(t *testing.T) {
	d := NewDecoder()
	bad := append([]byte{}, scenario1Envelope...)
	bad[0] = 0x00
	_, err := d.Next()
	if err != ErrNeedMore {
		t.Fatalf("Next before feed = %v, want ErrNeedMore", err)
	}
	d.Feed(bad)
	_, err = d.Next()
	serr, ok := err.(*Error)
	if !ok || serr.FrameKind != InvalidStartByte {
		t.Fatalf("Next = %v, want InvalidStartByte", err)
	}
}

func TestDecoderRejectsInvalidLength(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte{startMarker, 0x00, 0x00})
	_, err := d.Next()
	serr, ok := err.(*Error)
	if !ok || serr.FrameKind != InvalidLength {
		t.Fatalf("Next = %v, want InvalidLength", err)
	}
}

func TestDecoderRejectsFrameTooLarge(t *testing.T) {
	d := NewDecoder()
	// l = 0xFFFF gives size = 0xFFFF+13, far past maxFrameSize.
	d.Feed([]byte{startMarker, 0xFF, 0xFF})
	_, err := d.Next()
	serr, ok := err.(*Error)
	if !ok || serr.FrameKind != FrameTooLarge {
		t.Fatalf("Next = %v, want FrameTooLarge", err)
	}
}

func TestDecoderCloseReportsIncompleteFrame(t *testing.T) {
	d := NewDecoder()
	d.Feed(scenario1Envelope[:10])
	if _, err := d.Next(); err != ErrNeedMore {
		t.Fatalf("Next = %v, want ErrNeedMore", err)
	}
	err := d.Close()
	serr, ok := err.(*Error)
	if !ok || serr.FrameKind != IncompleteFrameAtEOF {
		t.Fatalf("Close = %v, want IncompleteFrameAtEOF", err)
	}
}

func TestDecoderCloseCleanAtBoundary(t *testing.T) {
	d := NewDecoder()
	d.Feed(scenario1Envelope)
	if _, err := d.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close after full drain = %v, want nil", err)
	}
}
