// Package wire holds the byte-level primitives used on packets read from
// raw sockets: big-endian field extraction, the Internet checksum, and
// IPv4 header stripping.
//
// Every function is pure and total.  Short or malformed input never
// produces an error; callers get a zero value or their own buffer back.
package wire

import "math/bits"

// U16 folds the first two bytes of b into a big-endian uint16.
func U16(b []byte) uint16 { return uint16(fold(b, 2)) }

// U32 folds the first four bytes of b into a big-endian uint32.
func U32(b []byte) uint32 { return uint32(fold(b, 4)) }

// U64 folds the first eight bytes of b into a big-endian uint64.
func U64(b []byte) uint64 { return fold(b, 8) }

// Uint folds the first pointer-width bytes of b into a big-endian uint.
func Uint(b []byte) uint { return uint(fold(b, bits.UintSize/8)) }

// fold shifts in at most width bytes.  A buffer shorter than width
// contributes only the bytes it has, so []byte{0x12, 0x34} is 0x1234 at
// every width.
func fold(b []byte, width int) uint64 {
	if len(b) > width {
		b = b[:width]
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
