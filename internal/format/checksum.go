package format

import (
	"fmt"
	"hash/crc32"
)

// ChecksumSize is the width of every stored CRC32C field.
const ChecksumSize = 4

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the CRC32C of block as it is defined on disk: the
// ChecksumSize bytes at off are treated as zero. block is not modified.
func Checksum(block []byte, off int) uint32 {
	var zero [ChecksumSize]byte
	sum := crc32.Update(0, castagnoli, block[:off])
	sum = crc32.Update(sum, castagnoli, zero[:])
	return crc32.Update(sum, castagnoli, block[off+ChecksumSize:])
}

// VerifyChecksum recomputes the checksum of block and compares it against
// the value stored at off.
func VerifyChecksum(block []byte, off int, what string) error {
	if off < 0 || off+ChecksumSize > len(block) {
		return fmt.Errorf("%s: checksum field at 0x%x outside %d-byte block: %w", what, off, len(block), ErrBounds)
	}
	stored := ReadU32(block, off)
	if got := Checksum(block, off); got != stored {
		return fmt.Errorf("%s: stored 0x%08X, computed 0x%08X: %w", what, stored, got, ErrChecksumMismatch)
	}
	return nil
}

// PutChecksum stores the checksum of block at off.
func PutChecksum(block []byte, off int) {
	PutU32(block, off, Checksum(block, off))
}
