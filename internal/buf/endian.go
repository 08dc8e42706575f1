// Package buf contains bounds helpers and the positioned little-endian
// reader every VHDX structure is decoded through.
package buf

import "encoding/binary"

// U16LE reads a little-endian uint16 from b. Returns 0 when b is too short.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64LE reads a little-endian uint64 from b. Returns 0 when b is too short.
func U64LE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Uint128 is an unsigned 128-bit value split into 64-bit halves.
type Uint128 struct {
	Lo, Hi uint64
}

// IsZero reports whether every bit is clear.
func (u Uint128) IsZero() bool { return u.Lo == 0 && u.Hi == 0 }

// U128LE reads a little-endian 128-bit value from b. Returns zero when b is too short.
func U128LE(b []byte) Uint128 {
	if len(b) < 16 {
		return Uint128{}
	}
	return Uint128{Lo: binary.LittleEndian.Uint64(b), Hi: binary.LittleEndian.Uint64(b[8:])}
}
