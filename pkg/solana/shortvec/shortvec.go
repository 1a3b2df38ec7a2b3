// Package shortvec implements the compact-u16 length prefix used by the
// Solana wire format: 7 bits per byte, least significant group first, with
// the high bit marking continuation.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

// EncodeLen writes the compact encoding of n and returns the number of bytes
// written. n must fit in a uint16.
func EncodeLen(w io.Writer, n int) (int, error) {
	if n < 0 || n > math.MaxUint16 {
		return 0, errors.Errorf("len exceeds %d", math.MaxUint16)
	}

	var buf [maxEncodedLen]byte
	size := 0
	for {
		buf[size] = byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			size++
			break
		}
		buf[size] |= 0x80
		size++
	}

	return w.Write(buf[:size])
}

// DecodeLen reads a compact encoded length from r.
func DecodeLen(r io.Reader) (int, error) {
	var val int
	var b [1]byte
	for i := 0; i < maxEncodedLen; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			if i > 0 && err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}

		val |= int(b[0]&0x7f) << (7 * i)
		if b[0]&0x80 == 0 {
			if val > math.MaxUint16 {
				return 0, errors.Errorf("len exceeds %d", math.MaxUint16)
			}
			return val, nil
		}
	}

	return 0, errors.Errorf("invalid size (max %d bytes)", maxEncodedLen)
}
