package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCeilDiv_Bracket(t *testing.T) {
	for n := int64(1); n <= 200; n++ {
		for d := int64(1); d <= 17; d++ {
			c := CeilDiv(n, d)
			require.Less(t, (c-1)*d, n, "n=%d d=%d", n, d)
			require.LessOrEqual(t, n, c*d, "n=%d d=%d", n, d)
			require.Equal(t, uint64(c), CeilDivU(uint64(n), uint64(d)))
		}
	}
}

func TestSignedRounding(t *testing.T) {
	tests := []struct {
		n, d        int64
		floor, ceil int64
	}{
		{-7, 2, -4, -3},
		{7, 2, 3, 4},
		{7, -2, -4, -3},
		{-7, -2, 3, 4},
		{6, 3, 2, 2},
		{-6, 3, -2, -2},
		{0, 5, 0, 0},
		{-1, 2048, -1, 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.floor, FloorDiv(tt.n, tt.d), "floor(%d/%d)", tt.n, tt.d)
		require.Equal(t, tt.ceil, CeilDiv(tt.n, tt.d), "ceil(%d/%d)", tt.n, tt.d)
	}
}

func TestAlignment(t *testing.T) {
	require.True(t, IsAligned(RegionAlignment, RegionAlignment))
	require.True(t, IsAligned(0, RegionAlignment))
	require.False(t, IsAligned(RegionAlignment+512, RegionAlignment))
	require.Equal(t, uint64(RegionAlignment), AlignUp(1, RegionAlignment))
	require.Equal(t, uint64(2*RegionAlignment), AlignUp(RegionAlignment+1, RegionAlignment))
	require.Equal(t, uint64(3<<20), MiB(3))
}
