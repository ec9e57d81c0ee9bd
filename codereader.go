package plink

import (
	"io"
)

// codeReader yields the 2-bit genotype codes of a .bed block in order. Codes
// are packed four to a byte, starting from the low-order bits.
type codeReader struct {
	reader io.ByteReader
	byte   byte
	offset byte

	errCache error
}

func newCodeReader(r io.ByteReader) *codeReader {
	return &codeReader{reader: r}
}

func (r *codeReader) ReadCode() (byte, error) {
	if r.offset == 4 {
		r.offset = 0
	}
	if r.offset == 0 {
		if r.byte, r.errCache = r.reader.ReadByte(); r.errCache != nil {
			return 0, r.errCache
		}
	}
	code := (r.byte >> (2 * r.offset)) & 0x3
	r.offset++
	return code, nil
}
