// Package shortvec implements the compact-u16 length prefix used in Solana
// transaction wire encoding.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// MaxEncodedSize is the longest valid compact-u16 encoding.
const MaxEncodedSize = 3

// AppendLen appends the encoding of len to dst.
func AppendLen(dst []byte, len int) ([]byte, error) {
	if len < 0 || len > math.MaxUint16 {
		return dst, errors.Errorf("len %d outside [0, %d]", len, math.MaxUint16)
	}

	for len >= 0x80 {
		dst = append(dst, byte(len&0x7f)|0x80)
		len >>= 7
	}
	return append(dst, byte(len)), nil
}

// EncodeLen writes the encoding of len to w and returns the number of bytes
// written.
func EncodeLen(w io.Writer, len int) (int, error) {
	var scratch [MaxEncodedSize]byte
	encoded, err := AppendLen(scratch[:0], len)
	if err != nil {
		return 0, err
	}
	return w.Write(encoded)
}

// DecodeLen reads an encoded len from r.
func DecodeLen(r io.Reader) (int, error) {
	var val int
	var b [1]byte

	for i := 0; i < MaxEncodedSize; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			if err == io.EOF && i > 0 {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}

		val |= int(b[0]&0x7f) << (i * 7)
		if b[0]&0x80 == 0 {
			if val > math.MaxUint16 {
				return 0, errors.Errorf("decoded len %d exceeds %d", val, math.MaxUint16)
			}
			return val, nil
		}
	}

	return 0, errors.Errorf("encoding exceeds %d bytes", MaxEncodedSize)
}
