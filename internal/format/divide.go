package format

// Integer division with explicit rounding. Go's / truncates toward zero,
// which is only floor/ceiling for operands of matching sign.

// CeilDiv returns ⌈n/d⌉. d must be non-zero.
func CeilDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 && (n < 0) == (d < 0) {
		q++
	}
	return q
}

// FloorDiv returns ⌊n/d⌋. d must be non-zero.
func FloorDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 && (n < 0) != (d < 0) {
		q--
	}
	return q
}

// CeilDivU returns ⌈n/d⌉ for unsigned operands. d must be non-zero.
func CeilDivU(n, d uint64) uint64 {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}
