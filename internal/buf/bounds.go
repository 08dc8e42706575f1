package buf

import (
	"fmt"
	"math"

	"github.com/joshuapare/vhdxkit/internal/format"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative values, returning ok = false
// when either is negative or the product would overflow int.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a != 0 && b > math.MaxInt/a {
		return 0, false
	}
	return a * b, true
}

// CheckListBounds validates that count elements of elementSize bytes,
// starting offset bytes into a container of containerLen bytes, end inside
// the container. It returns the end offset. Every failure wraps
// format.ErrBounds.
//
// Directory decoders call it before reading any entry:
//
//	end, err := buf.CheckListBounds(int(region.Length), headerSize, int(count), entrySize)
//	if err != nil {
//	    return fmt.Errorf("metadata table: %w", err)
//	}
func CheckListBounds(containerLen, offset, count, elementSize int) (int, error) {
	if offset < 0 || count < 0 || elementSize < 0 {
		return 0, fmt.Errorf("negative list geometry (offset=%d count=%d size=%d): %w",
			offset, count, elementSize, format.ErrBounds)
	}

	totalSize, ok := MulOverflowSafe(count, elementSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * elemSize=%d: %w", count, elementSize, format.ErrBounds)
	}
	endOffset, ok := AddOverflowSafe(offset, totalSize)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d: %w", offset, totalSize, format.ErrBounds)
	}
	if endOffset > containerLen {
		return 0, fmt.Errorf("%d entries of %d bytes at +%d end at %d, past %d-byte container: %w",
			count, elementSize, offset, endOffset, containerLen, format.ErrBounds)
	}
	return endOffset, nil
}
