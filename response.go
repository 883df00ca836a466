package solarman

import "encoding/binary"

// Response is the validated product type from spec §3: it is only
// constructible after every structural check in ParseResponse has passed.
// It owns a private copy of the envelope bytes; ModbusFrame is a bounded
// slice into that copy, so no caller can observe or retain a view into
// shared decoder buffers.
type Response struct {
	Sequence         uint16
	Serial           uint32
	FrameType        byte
	Status           byte
	TotalWorkingTime uint32
	PowerOnTime      uint32
	OffsetTime       uint32

	modbusFrame []byte
}

// ModbusFrame returns the embedded Modbus RTU frame, including its
// trailing CRC-16.
func (r *Response) ModbusFrame() []byte { return r.modbusFrame }

// ParseResponse validates a complete candidate envelope and projects it
// into a Response, per the ordered checks of spec §4.C. Each failure maps
// to a distinct FrameErrorKind wrapped in a *Error of Kind
// KindV5FrameError; parsing aborts on the first one.
func ParseResponse(data []byte) (*Response, error) {
	if len(data) < minResponseSize {
		return nil, errV5Frame(FrameTooShort)
	}
	if data[0] != startMarker {
		return nil, errV5Frame(InvalidStartByte)
	}
	if data[len(data)-1] != endMarker {
		return nil, errV5Frame(InvalidEndByte)
	}

	l := binary.LittleEndian.Uint16(data[1:3])
	if len(data) != int(l)+13 {
		return nil, errV5Frame(LengthMismatch)
	}

	wantChecksum := Checksum(data[1 : len(data)-2])
	if data[len(data)-2] != wantChecksum {
		return nil, errV5Frame(InvalidChecksum)
	}

	if binary.LittleEndian.Uint16(data[3:5]) != responseControlCode {
		return nil, errV5Frame(InvalidControlCode)
	}

	// Structurally implied by the minimum-size check above at this fixed
	// offset; retained for defense in depth per spec §4.C step 6.
	if len(data)-25-2 < 5 {
		return nil, errV5Frame(ModbusTooShort)
	}

	frame := make([]byte, len(data)-25-2)
	copy(frame, data[25:len(data)-2])

	return &Response{
		Sequence:         binary.LittleEndian.Uint16(data[5:7]),
		Serial:           binary.LittleEndian.Uint32(data[7:11]),
		FrameType:        data[11],
		Status:           data[12],
		TotalWorkingTime: binary.LittleEndian.Uint32(data[13:17]),
		PowerOnTime:      binary.LittleEndian.Uint32(data[17:21]),
		OffsetTime:       binary.LittleEndian.Uint32(data[21:25]),
		modbusFrame:      frame,
	}, nil
}
