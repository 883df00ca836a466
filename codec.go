package solarman

import (
	"github.com/goburrow/modbus"

	"github.com/oss-modbus/solarman-v5/rtu"
)

// defaultCodec is rtu.Codec under the name defaultConfig uses internally;
// rtu.Codec already satisfies ModbusCodec exactly.
type defaultCodec = rtu.Codec

// ModbusCodec is the external collaborator boundary described by spec §6:
// Modbus RTU PDU construction and response parsing, including CRC-16
// computation and exception decoding, are assumed to be supplied by an
// outside Modbus library. The engine (§4.H) and the double-CRC corrector
// (§4.D) consume exactly this surface and nothing more.
//
// The zero value of rtu.Codec (see the rtu subpackage) is the default
// implementation; callers with their own Modbus stack may supply any type
// satisfying this interface via WithCodec.
type ModbusCodec interface {
	// Build encodes a complete Modbus RTU ADU — unit id, function code,
	// data, and trailing CRC-16 — for pdu.
	Build(unitID byte, pdu *modbus.ProtocolDataUnit) []byte

	// CRC16 computes the Modbus CRC-16 over data. Used only inside the
	// double-CRC corrector (§4.D); Build and Parse apply it internally.
	CRC16(data []byte) uint16

	// Parse validates frame as a Modbus RTU ADU addressed to unitID in
	// response to expectedFunctionCode, and returns the response PDU.
	// A device exception response is returned as a *modbus.ModbusError; a CRC
	// disagreement is returned as an *rtu.CRCError (the engine uses this
	// to decide whether to attempt double-CRC correction); any other
	// structural disagreement is returned as an *rtu.FrameError.
	Parse(unitID, expectedFunctionCode byte, frame []byte) (*modbus.ProtocolDataUnit, error)
}
