// Package shortvec implements the compact-u16 length prefix used throughout
// the transaction wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

var (
	ErrOverflow     = errors.New("shortvec value exceeds u16")
	ErrNonCanonical = errors.New("shortvec encoding is not canonical")
)

// EncodedLen returns the number of bytes required to encode v.
func EncodedLen(v int) int {
	n := 1
	for v >>= 7; v > 0; v >>= 7 {
		n++
	}
	return n
}

// EncodeLen encodes the specified len into the writer.
//
// If len > math.MaxUint16, an error is returned.
func EncodeLen(w io.Writer, len int) (n int, err error) {
	if len < 0 || len > math.MaxUint16 {
		return 0, errors.Errorf("len must be within [0, %d]", math.MaxUint16)
	}

	var buf [maxEncodedLen]byte
	for {
		buf[n] = byte(len & 0x7f)
		len >>= 7
		if len == 0 {
			n++
			break
		}

		buf[n] |= 0x80
		n++
	}

	return w.Write(buf[:n])
}

// DecodeLen decodes a shortvec encoded len from the reader. Encodings that
// are longer than necessary, or that do not fit in a u16, are rejected.
func DecodeLen(r io.Reader) (val int, err error) {
	var b [1]byte

	for i := 0; ; i++ {
		if i == maxEncodedLen {
			return 0, ErrOverflow
		}
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}

		val |= int(b[0]&0x7f) << (i * 7)

		if b[0]&0x80 == 0 {
			if b[0] == 0 && i > 0 {
				return 0, ErrNonCanonical
			}
			break
		}
	}

	if val > math.MaxUint16 {
		return 0, ErrOverflow
	}

	return val, nil
}
