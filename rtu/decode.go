package rtu

import (
	"encoding/binary"
	"fmt"
)

// DecodeRegisters decodes a byte-count-prefixed register read response
// (function codes 0x03, 0x04) into its 16-bit values.
func DecodeRegisters(data []byte) ([]uint16, error) {
	if len(data) < 1 {
		return nil, &FrameError{Msg: "rtu: register response missing byte count"}
	}
	byteCount := int(data[0])
	if len(data) != 1+byteCount || byteCount%2 != 0 {
		return nil, &FrameError{Msg: fmt.Sprintf("rtu: register response byte count mismatch: declared %d, have %d", byteCount, len(data)-1)}
	}
	regs := make([]uint16, byteCount/2)
	for i := range regs {
		regs[i] = binary.BigEndian.Uint16(data[1+2*i : 3+2*i])
	}
	return regs, nil
}

// DecodeBits decodes a byte-count-prefixed coil/discrete-input read
// response (function codes 0x01, 0x02) into quantity boolean values.
func DecodeBits(data []byte, quantity int) ([]bool, error) {
	if len(data) < 1 {
		return nil, &FrameError{Msg: "rtu: bit response missing byte count"}
	}
	wantByteCount := (quantity + 7) / 8
	byteCount := int(data[0])
	if byteCount != wantByteCount || len(data) != 1+byteCount {
		return nil, &FrameError{Msg: fmt.Sprintf("rtu: bit response byte count mismatch: declared %d, expected %d", byteCount, wantByteCount)}
	}
	bits := make([]bool, quantity)
	for i := 0; i < quantity; i++ {
		bits[i] = data[1+i/8]&(1<<uint(i%8)) != 0
	}
	return bits, nil
}

// VerifyEcho reports whether a write-style response's data payload
// matches the expected echo byte for byte. Function codes 0x06, 0x05 and
// 0x16 echo their request data verbatim on success; 0x10 and 0x0F echo
// only the address and quantity (EncodeAddressQuantity).
func VerifyEcho(sent, got []byte) error {
	if len(sent) != len(got) {
		return &FrameError{Msg: fmt.Sprintf("rtu: write echo length mismatch: sent %d bytes, got %d", len(sent), len(got))}
	}
	for i := range sent {
		if sent[i] != got[i] {
			return &FrameError{Msg: "rtu: write echo does not match request"}
		}
	}
	return nil
}
