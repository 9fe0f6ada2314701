package gxrpc

// CRC-16/CCITT configuration. Both ends of a link must use the same
// parameters; these match the common CCITT-FALSE variant.
const (
	crcPolynomial uint16 = 0x1021
	crcInitial    uint16 = 0xFFFF
)

// crc16 is a rolling CRC-16/CCITT accumulator. The zero value is not ready
// for use; call reset before the first add.
type crc16 struct {
	sum uint16
}

func (c *crc16) reset() {
	c.sum = crcInitial
}

func (c *crc16) add(b byte) {
	c.sum ^= uint16(b) << 8
	for i := 0; i < 8; i++ {
		if c.sum&0x8000 != 0 {
			c.sum = c.sum<<1 ^ crcPolynomial
		} else {
			c.sum <<= 1
		}
	}
}

func (c *crc16) calc() uint16 {
	return c.sum
}
