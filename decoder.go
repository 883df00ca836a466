package solarman

import (
	"encoding/binary"
	"errors"
)

// maxFrameSize is the hard ceiling from spec §4.E step 4.
const maxFrameSize = 1024

// ErrNeedMore is returned by Decoder.Next when the buffered bytes do not
// yet contain a complete frame. It is a sentinel, not a member of the
// closed error taxonomy — callers should not surface it to users.
var ErrNeedMore = errors.New("solarman: need more data")

// Decoder is the streaming frame decoder of spec §4.E: an append-only
// byte accumulator that extracts one complete V5 envelope at a time from
// a TCP byte stream, with no resynchronization on malformed input.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends newly read bytes to the decoder's buffer.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Next attempts to extract one complete frame from the buffered bytes. It
// returns ErrNeedMore if fewer than a complete frame is buffered, the raw
// frame bytes on success, or a *Error of Kind KindV5FrameError on a
// structural violation. A single call never returns more than one frame;
// callers should call Next again on the same buffer to drain back-to-back
// frames.
func (d *Decoder) Next() ([]byte, error) {
	if len(d.buf) < 3 {
		return nil, ErrNeedMore
	}
	if d.buf[0] != startMarker {
		return nil, errV5Frame(InvalidStartByte)
	}

	l := binary.LittleEndian.Uint16(d.buf[1:3])
	if l < 1 {
		return nil, errV5Frame(InvalidLength)
	}

	size := int(l) + 13
	if size > maxFrameSize {
		return nil, errV5Frame(FrameTooLarge)
	}
	if len(d.buf) < size {
		return nil, ErrNeedMore
	}

	frame := make([]byte, size)
	copy(frame, d.buf[:size])
	d.buf = d.buf[size:]
	return frame, nil
}

// Close reports the decoder's end-of-stream disposition: if unconsumed
// bytes remain after all complete frames have been drained, it returns
// IncompleteFrameAtEOF; otherwise it returns nil.
func (d *Decoder) Close() error {
	if len(d.buf) > 0 {
		return errV5Frame(IncompleteFrameAtEOF)
	}
	return nil
}
