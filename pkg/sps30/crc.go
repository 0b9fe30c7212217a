package sps30

const (
	crcPolynomial byte = 0x31
	crcInit       byte = 0xff
)

// CRC8 calculates the checksum of a 2-byte data block.
func CRC8(b0, b1 byte) byte {
	crc := crcInit
	for _, b := range [2]byte{b0, b1} {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// ValidCRC checks crc against the data block.
func ValidCRC(b0, b1, crc byte) bool {
	return CRC8(b0, b1) == crc
}
