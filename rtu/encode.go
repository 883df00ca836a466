package rtu

import "encoding/binary"

// EncodeAddressQuantity builds the 4-byte data payload shared by the four
// read operations and the two multi-value builders below: a big-endian
// address followed by a big-endian count, per the Modbus RTU wire format.
func EncodeAddressQuantity(address, quantity uint16) []byte {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], address)
	binary.BigEndian.PutUint16(data[2:4], quantity)
	return data
}

// EncodeWriteSingleRegister builds the data payload for function code
// 0x06.
func EncodeWriteSingleRegister(address, value uint16) []byte {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], address)
	binary.BigEndian.PutUint16(data[2:4], value)
	return data
}

// EncodeWriteSingleCoil builds the data payload for function code 0x05.
// A coil value of true is encoded as 0xFF00, false as 0x0000, per the
// Modbus RTU standard.
func EncodeWriteSingleCoil(address uint16, value bool) []byte {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], address)
	if value {
		data[2] = 0xFF
	}
	return data
}

// EncodeWriteMultipleRegisters builds the data payload for function code
// 0x10: address, quantity, byte count, then the register values.
func EncodeWriteMultipleRegisters(address uint16, values []uint16) []byte {
	data := make([]byte, 5+2*len(values))
	binary.BigEndian.PutUint16(data[0:2], address)
	binary.BigEndian.PutUint16(data[2:4], uint16(len(values)))
	data[4] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(data[5+2*i:7+2*i], v)
	}
	return data
}

// EncodeWriteMultipleCoils builds the data payload for function code
// 0x0F: address, quantity, byte count, then the packed coil bitmap.
func EncodeWriteMultipleCoils(address uint16, values []bool) []byte {
	byteCount := (len(values) + 7) / 8
	data := make([]byte, 5+byteCount)
	binary.BigEndian.PutUint16(data[0:2], address)
	binary.BigEndian.PutUint16(data[2:4], uint16(len(values)))
	data[4] = byte(byteCount)
	for i, v := range values {
		if v {
			data[5+i/8] |= 1 << uint(i%8)
		}
	}
	return data
}

// EncodeMaskWriteRegister builds the data payload for function code 0x16.
func EncodeMaskWriteRegister(address, andMask, orMask uint16) []byte {
	data := make([]byte, 6)
	binary.BigEndian.PutUint16(data[0:2], address)
	binary.BigEndian.PutUint16(data[2:4], andMask)
	binary.BigEndian.PutUint16(data[4:6], orMask)
	return data
}
