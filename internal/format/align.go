package format

// Alignment utilities for the VHDX format.
// Region offsets and lengths must sit on 1 MiB boundaries; BAT file offsets
// are stored in MiB units and are therefore aligned by construction.

// IsAligned reports whether n is a multiple of a. a must be a power of two.
//
// Example:
//
//	IsAligned(0x100000, RegionAlignment) = true
//	IsAligned(0x180000, RegionAlignment) = false
func IsAligned(n, a uint64) bool {
	return n&(a-1) == 0
}

// AlignUp returns n rounded up to the next multiple of a (a power of two).
//
// Example:
//
//	AlignUp(1, RegionAlignment)        = 0x100000
//	AlignUp(0x100000, RegionAlignment) = 0x100000
func AlignUp(n, a uint64) uint64 {
	return (n + a - 1) &^ (a - 1)
}

// MiB converts a BAT offset field (in MiB) into a byte offset.
func MiB(n uint64) uint64 {
	return n << BATOffsetShift
}
