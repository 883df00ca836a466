// Package rtu is the default implementation of solarman.ModbusCodec: it
// builds and parses Modbus RTU ADUs (unit id, function code, data,
// CRC-16) the way the real-world Solarman reference clients in the wild
// do it. It has no knowledge of the V5 envelope — it only ever sees the
// Modbus slice once the V5 layer has stripped it out.
package rtu

import (
	"fmt"

	"github.com/goburrow/modbus"
)

// Function codes, per spec §4.H's operation table.
const (
	FcReadCoils              = 0x01
	FcReadDiscreteInputs     = 0x02
	FcReadHoldingRegisters   = 0x03
	FcReadInputRegisters     = 0x04
	FcWriteSingleCoil        = 0x05
	FcWriteSingleRegister    = 0x06
	FcWriteMultipleCoils     = 0x0F
	FcWriteMultipleRegisters = 0x10
	FcMaskWriteRegister      = 0x16
)

// Modbus exception codes, reported inside the response's function code
// byte (expectedFunctionCode | 0x80) with the exception code as the next
// byte.
const (
	ExceptionIllegalFunction                    = 0x01
	ExceptionIllegalDataAddress                 = 0x02
	ExceptionIllegalDataValue                   = 0x03
	ExceptionServerDeviceFailure                = 0x04
	ExceptionAcknowledge                        = 0x05
	ExceptionServerDeviceBusy                   = 0x06
	ExceptionMemoryParityError                  = 0x08
	ExceptionGatewayPathUnavailable             = 0x0A
	ExceptionGatewayTargetDeviceFailedToRespond = 0x0B
)

const (
	minADUSize = 4 // unit id + function code + CRC-16
)

// FrameError reports a structural disagreement in an RTU ADU other than a
// CRC mismatch (which is a CRCError): frame length, unit id, function
// code, byte count, or write echo. It maps to solarman's RtuError kind.
type FrameError struct {
	Msg string
}

func (e *FrameError) Error() string { return e.Msg }

// CRCError reports specifically that an ADU's trailing CRC-16 did not
// match its payload — the one structural failure the double-CRC
// corrector (solarman's §4.D) is allowed to attempt a recovery from. It
// is distinguished from the generic FrameError so callers can tell "bad
// CRC" apart from "bad unit id/function code/byte count" without string
// matching.
type CRCError struct {
	Got, Want uint16
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("rtu: crc mismatch: got 0x%04X, want 0x%04X", e.Got, e.Want)
}

// Codec is the default solarman.ModbusCodec implementation.
type Codec struct{}

// CRC16 computes the standard Modbus CRC-16 (polynomial 0xA001, initial
// value 0xFFFF, little-endian result) over data.
func (Codec) CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// Build encodes unitID, pdu.FunctionCode, and pdu.Data into a complete
// Modbus RTU ADU with a trailing CRC-16.
func (c Codec) Build(unitID byte, pdu *modbus.ProtocolDataUnit) []byte {
	adu := make([]byte, 0, 2+len(pdu.Data)+2)
	adu = append(adu, unitID, pdu.FunctionCode)
	adu = append(adu, pdu.Data...)
	crc := c.CRC16(adu)
	return append(adu, byte(crc), byte(crc>>8))
}

// Parse validates frame as an ADU sent by unitID in response to
// expectedFunctionCode.
func (c Codec) Parse(unitID, expectedFunctionCode byte, frame []byte) (*modbus.ProtocolDataUnit, error) {
	if len(frame) < minADUSize {
		return nil, &FrameError{Msg: fmt.Sprintf("rtu: frame too short: %d bytes (minimum %d)", len(frame), minADUSize)}
	}

	payload := frame[:len(frame)-2]
	gotCRC := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	if wantCRC := c.CRC16(payload); gotCRC != wantCRC {
		return nil, &CRCError{Got: gotCRC, Want: wantCRC}
	}

	if frame[0] != unitID {
		return nil, &FrameError{Msg: fmt.Sprintf("rtu: unit id mismatch: expected %d, got %d", unitID, frame[0])}
	}

	fc := frame[1]
	if fc == expectedFunctionCode|0x80 {
		if len(frame) < 5 {
			return nil, &FrameError{Msg: "rtu: exception frame too short"}
		}
		return nil, &modbus.ModbusError{FunctionCode: expectedFunctionCode, ExceptionCode: frame[2]}
	}
	if fc != expectedFunctionCode {
		return nil, &FrameError{Msg: fmt.Sprintf("rtu: function code mismatch: expected 0x%02X, got 0x%02X", expectedFunctionCode, fc)}
	}

	return &modbus.ProtocolDataUnit{FunctionCode: fc, Data: frame[2 : len(frame)-2]}, nil
}
