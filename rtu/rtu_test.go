package rtu

import (
	"bytes"
	"testing"

	"github.com/goburrow/modbus"
)

// TestCRC16KnownVector checks CRC16 against a well-known Modbus RTU
// request: read holding registers, unit 1, address 0, quantity 1.
func TestCRC16KnownVector(t *testing.T) {
	req := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01}
	got := Codec{}.CRC16(req)
	want := uint16(0x0A84)
	if got != want {
		t.Fatalf("CRC16 = 0x%04X, want 0x%04X", got, want)
	}
}

func TestBuildAppendsCRC(t *testing.T) {
	c := Codec{}
	pdu := &modbus.ProtocolDataUnit{FunctionCode: FcReadHoldingRegisters, Data: EncodeAddressQuantity(0, 1)}
	adu := c.Build(0x01, pdu)

	want := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01, 0x84, 0x0A}
	if !bytes.Equal(adu, want) {
		t.Fatalf("Build = % X, want % X", adu, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	c := Codec{}
	// Response to a read of one holding register with value 0x0064.
	resp := []byte{0x01, 0x03, 0x02, 0x00, 0x64, 0xB9, 0xAF}
	pdu, err := c.Parse(0x01, FcReadHoldingRegisters, resp)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	regs, err := DecodeRegisters(pdu.Data)
	if err != nil {
		t.Fatalf("DecodeRegisters: %v", err)
	}
	if len(regs) != 1 || regs[0] != 0x0064 {
		t.Fatalf("regs = %v, want [0x64]", regs)
	}
}

func TestParseDetectsCRCMismatchDistinctly(t *testing.T) {
	c := Codec{}
	resp := []byte{0x01, 0x03, 0x02, 0x00, 0x64, 0x00, 0x00}
	_, err := c.Parse(0x01, FcReadHoldingRegisters, resp)
	if _, ok := err.(*CRCError); !ok {
		t.Fatalf("Parse err = %T (%v), want *CRCError", err, err)
	}
}

func TestParseDetectsUnitIDMismatchAsFrameError(t *testing.T) {
	c := Codec{}
	resp := []byte{0x01, 0x03, 0x02, 0x00, 0x64, 0xB9, 0xAF}
	_, err := c.Parse(0x02, FcReadHoldingRegisters, resp)
	if _, ok := err.(*FrameError); !ok {
		t.Fatalf("Parse err = %T (%v), want *FrameError", err, err)
	}
}

func TestParseDetectsFunctionCodeMismatchAsFrameError(t *testing.T) {
	c := Codec{}
	payload := []byte{0x01, 0x04, 0x02, 0x00, 0x64}
	crc := c.CRC16(payload)
	resp := append(append([]byte{}, payload...), byte(crc), byte(crc>>8))

	_, err := c.Parse(0x01, FcReadHoldingRegisters, resp)
	if _, ok := err.(*FrameError); !ok {
		t.Fatalf("Parse err = %T (%v), want *FrameError", err, err)
	}
}

func TestParseDetectsException(t *testing.T) {
	c := Codec{}
	// Function code 0x83 (0x03 | 0x80), exception code 0x02 (illegal
	// data address), CRC computed over [0x01, 0x83, 0x02].
	adu := []byte{0x01, 0x83, ExceptionIllegalDataAddress}
	crc := c.CRC16(adu)
	adu = append(adu, byte(crc), byte(crc>>8))

	_, err := c.Parse(0x01, FcReadHoldingRegisters, adu)
	mbErr, ok := err.(*modbus.ModbusError)
	if !ok {
		t.Fatalf("Parse err = %T (%v), want *modbus.ModbusError", err, err)
	}
	if mbErr.ExceptionCode != ExceptionIllegalDataAddress {
		t.Fatalf("ExceptionCode = 0x%02X, want 0x%02X", mbErr.ExceptionCode, ExceptionIllegalDataAddress)
	}
}

func TestParseRejectsTooShortFrame(t *testing.T) {
	c := Codec{}
	_, err := c.Parse(0x01, FcReadHoldingRegisters, []byte{0x01, 0x03})
	if _, ok := err.(*FrameError); !ok {
		t.Fatalf("Parse err = %T (%v), want *FrameError", err, err)
	}
}

func TestDecodeBitsPacksLowBitFirst(t *testing.T) {
	// Byte count 1, bits 0..4 set as 1,0,1,0,1 -> bit pattern 0b00010101.
	data := []byte{0x01, 0x15}
	bits, err := DecodeBits(data, 5)
	if err != nil {
		t.Fatalf("DecodeBits: %v", err)
	}
	want := []bool{true, false, true, false, true}
	for i := range want {
		if bits[i] != want[i] {
			t.Fatalf("bits[%d] = %v, want %v", i, bits[i], want[i])
		}
	}
}

func TestVerifyEchoAcceptsMatch(t *testing.T) {
	sent := EncodeWriteSingleRegister(10, 0x1234)
	if err := VerifyEcho(sent, sent); err != nil {
		t.Fatalf("VerifyEcho: %v", err)
	}
}

func TestVerifyEchoRejectsMismatch(t *testing.T) {
	sent := EncodeWriteSingleRegister(10, 0x1234)
	got := EncodeWriteSingleRegister(10, 0x5678)
	if err := VerifyEcho(sent, got); err == nil {
		t.Fatalf("VerifyEcho: got nil error, want mismatch")
	}
}
