package java

import (
	"errors"
	"io"
)

// maxVarIntLen is the longest encoding of a 32-bit VarInt.
const maxVarIntLen = 5

var errVarIntTooLong = errors.New("varint too long")

// ReadVarInt reads a VarInt: 7 payload bits per byte, least significant group
// first, high bit set on every byte but the last. The fifth byte may only carry
// the top four bits of the value.
func ReadVarInt(r io.ByteReader) (int32, error) {
	var result uint32

	for i := 0; i < maxVarIntLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if i == maxVarIntLen-1 && b&0x70 != 0 {
			return 0, errVarIntTooLong
		}

		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}

	return 0, errVarIntTooLong
}
