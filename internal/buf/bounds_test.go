package buf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vhdxkit/internal/format"
)

func TestAddOverflowSafe(t *testing.T) {
	sum, ok := AddOverflowSafe(10, 5)
	require.True(t, ok)
	require.Equal(t, 15, sum)

	_, ok = AddOverflowSafe(math.MaxInt, 1)
	require.False(t, ok, "expected overflow when adding to MaxInt")
	_, ok = AddOverflowSafe(math.MinInt, -1)
	require.False(t, ok, "expected underflow when subtracting from MinInt")
}

func TestMulOverflowSafe(t *testing.T) {
	p, ok := MulOverflowSafe(2047, 32)
	require.True(t, ok)
	require.Equal(t, 65504, p)

	p, ok = MulOverflowSafe(0, math.MaxInt)
	require.True(t, ok)
	require.Zero(t, p)

	_, ok = MulOverflowSafe(math.MaxInt/2, 3)
	require.False(t, ok)
	_, ok = MulOverflowSafe(-1, 8)
	require.False(t, ok)
}

func TestCheckListBounds(t *testing.T) {
	tests := []struct {
		name                        string
		container, off, count, size int
		wantEnd                     int
		wantErr                     bool
	}{
		{"empty list", 32, 32, 0, 32, 32, false},
		{"exact fit", 1 << 20, 32, 32767, 32, 1 << 20, false},
		{"one past", 1 << 20, 32, 32768, 32, 0, true},
		{"negative count", 64, 0, -1, 8, 0, true},
		{"overflowing count", 64, 0, math.MaxInt, 8, 0, true},
		{"overflowing offset", 64, math.MaxInt, 1, 8, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, err := CheckListBounds(tt.container, tt.off, tt.count, tt.size)
			if tt.wantErr {
				require.ErrorIs(t, err, format.ErrBounds)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantEnd, end)
		})
	}
}
