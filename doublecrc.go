package solarman

// CorrectDoubleCRC implements spec §4.D. Some loggers append the Modbus
// CRC-16 to a frame twice; since CRC-16 of a frame terminated by its own
// correct CRC is 0x0000, the defect's signature is two trailing zero
// bytes. crc16 is the external Modbus library's CRC-16 function (spec §6)
// — this corrector never recomputes it independently.
//
// It never truncates silently: bytes are only removed when the result
// still validates against crc16.
func CorrectDoubleCRC(frame []byte, crc16 func([]byte) uint16) (corrected []byte, ok bool) {
	if len(frame) < 6 {
		return frame, false
	}
	if frame[len(frame)-1] != 0x00 || frame[len(frame)-2] != 0x00 {
		return frame, false
	}

	c := frame[:len(frame)-2]
	stored := uint16(c[len(c)-2]) | uint16(c[len(c)-1])<<8
	want := crc16(c[:len(c)-2])
	if want != stored {
		return frame, false
	}
	return c, true
}
