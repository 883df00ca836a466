package solarman

import "encoding/binary"

// V5 envelope constants from spec §3.
const (
	startMarker = 0xA5
	endMarker   = 0x15

	requestControlCode  = 0x4510
	responseControlCode = 0x1510

	frameTypeStandard = 0x02

	// requestPayloadOffset is where the Modbus RTU payload starts in a
	// request envelope. The header between the length field and the
	// payload (control code, sequence, serial, frame type, sensor type,
	// and the three zeroed time fields) is 2+2+4+1+2+4+4+4 = 23 bytes;
	// the leading start byte and length field themselves (1+2) bring the
	// payload offset to 26.
	requestPayloadOffset = 26
	// minResponseSize is 25 (response header) + 5 (minimum Modbus RTU
	// frame) + 2 (checksum, end marker).
	minResponseSize = 32
)

// BuildRequest encodes a request envelope around rtuFrame per spec §4.B.
// rtuFrame is treated as an opaque payload; it is not validated here.
func BuildRequest(loggerSerial uint32, sequence uint16, rtuFrame []byte) []byte {
	n := len(rtuFrame)
	total := 28 + n
	buf := make([]byte, total)

	buf[0] = startMarker
	binary.LittleEndian.PutUint16(buf[1:3], uint16(15+n))
	binary.LittleEndian.PutUint16(buf[3:5], requestControlCode)
	binary.LittleEndian.PutUint16(buf[5:7], sequence)
	binary.LittleEndian.PutUint32(buf[7:11], loggerSerial)
	buf[11] = frameTypeStandard
	// bytes 12:26 (sensor type, total working time, power-on time, offset
	// time) are zero per §3 and already zeroed by make.
	copy(buf[requestPayloadOffset:requestPayloadOffset+n], rtuFrame)

	buf[total-2] = Checksum(buf[1 : total-2])
	buf[total-1] = endMarker
	return buf
}
