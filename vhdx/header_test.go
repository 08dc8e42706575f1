package vhdx

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vhdxkit/internal/buf"
	"github.com/joshuapare/vhdxkit/internal/format"
	"github.com/joshuapare/vhdxkit/internal/testutil/vhdximage"
)

func reader(b []byte) *buf.Reader {
	return buf.NewReader(bytes.NewReader(b))
}

func TestReadIdentifier(t *testing.T) {
	b := vhdximage.New().Bytes()

	id, err := ReadIdentifier(reader(b))
	require.NoError(t, err)
	require.Equal(t, "vhdxkit test", id.Creator)

	copy(b, "vhdxfilX")
	_, err = ReadIdentifier(reader(b))
	require.ErrorIs(t, err, format.ErrSignatureMismatch)
}

func TestResolveHeader_PicksLargerSequence(t *testing.T) {
	img := vhdximage.New()
	img.LogID = uuid.MustParse("01234567-89AB-CDEF-0123-456789ABCDEF")
	img.LogOffset = 1 << 20
	img.LogLength = 1 << 20

	img.Sequence = [2]uint64{1, 2}
	h, off, err := ResolveHeader(reader(img.Bytes()))
	require.NoError(t, err)
	require.Equal(t, int64(format.SecondHeaderOffset), off)
	require.Equal(t, uint64(2), h.SequenceNumber)

	img.Sequence = [2]uint64{9, 3}
	h, off, err = ResolveHeader(reader(img.Bytes()))
	require.NoError(t, err)
	require.Equal(t, int64(format.FirstHeaderOffset), off)
	require.Equal(t, uint64(9), h.SequenceNumber)

	require.Equal(t, img.FileWriteID, h.FileWriteID)
	require.Equal(t, img.DataWriteID, h.DataWriteID)
	require.Equal(t, img.LogID, h.LogID)
	require.Equal(t, uint16(1), h.Version)
	require.True(t, h.HasLog())

	logOff, logLen := h.LogRegion()
	require.Equal(t, uint64(1<<20), logOff)
	require.Equal(t, uint32(1<<20), logLen)
}

func TestResolveHeader_EqualSequence(t *testing.T) {
	img := vhdximage.New()
	img.Sequence = [2]uint64{7, 7}

	_, _, err := ResolveHeader(reader(img.Bytes()))
	require.ErrorIs(t, err, format.ErrRedundancy)
}

func TestReadHeader_Corruption(t *testing.T) {
	t.Run("checksum", func(t *testing.T) {
		b := vhdximage.New().Bytes()
		b[format.FirstHeaderOffset+0x200] ^= 0x01

		_, err := ReadHeader(reader(b), format.FirstHeaderOffset)
		require.ErrorIs(t, err, format.ErrChecksumMismatch)

		// The other copy is untouched but both must be valid.
		_, _, err = ResolveHeader(reader(b))
		require.ErrorIs(t, err, format.ErrChecksumMismatch)
	})

	t.Run("signature", func(t *testing.T) {
		b := vhdximage.New().Bytes()
		copy(b[format.SecondHeaderOffset:], "HEAD")
		vhdximage.Reseal(b, format.SecondHeaderOffset, format.HeaderSize, format.HeaderChecksumOffset)

		_, err := ReadHeader(reader(b), format.SecondHeaderOffset)
		require.ErrorIs(t, err, format.ErrSignatureMismatch)
	})

	t.Run("truncated", func(t *testing.T) {
		b := vhdximage.New().Bytes()[:format.FirstHeaderOffset+100]

		_, err := ReadHeader(reader(b), format.FirstHeaderOffset)
		require.ErrorIs(t, err, format.ErrIO)
	})
}
