package inspect

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vhdxkit/internal/format"
	"github.com/joshuapare/vhdxkit/internal/testutil"
	"github.com/joshuapare/vhdxkit/internal/testutil/vhdximage"
	"github.com/joshuapare/vhdxkit/pkg/types"
	"github.com/joshuapare/vhdxkit/vhdx"
)

func requireKind(t *testing.T, err error, kind types.ErrKind) {
	t.Helper()
	var te *types.Error
	require.True(t, errors.As(err, &te), "want *types.Error, got %v", err)
	require.Equal(t, kind, te.Kind, err.Error())
}

func TestOpen(t *testing.T) {
	path := testutil.WriteImage(t, t.TempDir(), "disk.vhdx", vhdximage.New().Bytes())

	img, err := Open(path, Options{})
	require.NoError(t, err)
	require.Equal(t, path, img.Path)
	require.Equal(t, int64(vhdximage.Size), img.Size)
	require.Equal(t, Dynamic, img.Type)
	require.Equal(t, "vhdxkit test", img.File.Identifier.Creator)
	require.Len(t, img.File.BAT.Sector, 1)
}

func TestOpenParent(t *testing.T) {
	path := testutil.WriteImage(t, t.TempDir(), "parent.vhdx", vhdximage.New().Bytes())

	img, err := OpenParent(path, Options{})
	require.NoError(t, err)
	require.Len(t, img.File.BAT.Payload, 2)
	require.Empty(t, img.File.BAT.Sector)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "absent.vhdx"), Options{})
	requireKind(t, err, types.ErrKindIO)
	require.ErrorIs(t, err, os.ErrNotExist)

	b := vhdximage.New().Bytes()
	b[format.FirstHeaderOffset+0x100] = 0xFF
	path := testutil.WriteImage(t, dir, "corrupt.vhdx", b)

	_, err = Open(path, Options{})
	requireKind(t, err, types.ErrKindChecksum)
	require.ErrorIs(t, err, format.ErrChecksumMismatch)
	require.Contains(t, err.Error(), "corrupt.vhdx")
}

func TestClassify(t *testing.T) {
	decode := func(img *vhdximage.Image) *vhdx.File {
		f, err := vhdx.Decode(bytes.NewReader(img.Bytes()), types.DecodeOptions{})
		require.NoError(t, err)
		return f
	}

	fixed := vhdximage.New()
	fixed.BAT[0] = vhdximage.Entry(6, 3)
	fixed.BAT[1] = vhdximage.Entry(6, 5)
	require.Equal(t, Fixed, Classify(decode(fixed)))

	fixed.BAT[1] = vhdximage.Entry(2, 0)
	require.Equal(t, Fixed, Classify(decode(fixed)))

	partial := vhdximage.New()
	partial.BAT[0] = vhdximage.Entry(6, 3)
	partial.BAT[1] = vhdximage.Entry(7, 5)
	require.Equal(t, Dynamic, Classify(decode(partial)))

	require.Equal(t, Dynamic, Classify(decode(vhdximage.New())))

	diff := vhdximage.New()
	diff.BAT[0] = vhdximage.Entry(6, 3)
	diff.BAT[1] = vhdximage.Entry(6, 5)
	diff.SetParent(vhdximage.Linkage(uuid.New()))
	require.Equal(t, Differencing, Classify(decode(diff)))

	require.Equal(t, "Differencing", Differencing.String())
	text, err := Dynamic.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "Dynamic", string(text))

	var parsed DiskType
	require.NoError(t, parsed.UnmarshalText([]byte("Differencing")))
	require.Equal(t, Differencing, parsed)
	require.Error(t, parsed.UnmarshalText([]byte("Sparse")))
}

func TestResolveParentPath(t *testing.T) {
	dir := t.TempDir()
	child := filepath.Join(dir, "diff", "child.vhdx")
	parent := testutil.WriteImage(t, dir, filepath.Join("base", "parent.vhdx"), []byte("x"))
	other := testutil.WriteImage(t, dir, "other.vhdx", []byte("x"))

	t.Run("relative path", func(t *testing.T) {
		got, source, err := ResolveParentPath(child, &vhdx.ParentLocator{
			RelativePath:      `..\base\parent.vhdx`,
			AbsoluteWin32Path: other,
		})
		require.NoError(t, err)
		require.Equal(t, parent, got)
		require.Equal(t, format.LocatorKeyRelativePath, source)
	})

	t.Run("volume path", func(t *testing.T) {
		got, source, err := ResolveParentPath(child, &vhdx.ParentLocator{
			RelativePath:      `..\gone.vhdx`,
			VolumePath:        parent,
			AbsoluteWin32Path: other,
		})
		require.NoError(t, err)
		require.Equal(t, parent, got)
		require.Equal(t, format.LocatorKeyVolumePath, source)
	})

	t.Run("absolute path", func(t *testing.T) {
		got, source, err := ResolveParentPath(child, &vhdx.ParentLocator{
			VolumePath:        filepath.Join(dir, "gone.vhdx"),
			AbsoluteWin32Path: other,
		})
		require.NoError(t, err)
		require.Equal(t, other, got)
		require.Equal(t, format.LocatorKeyAbsoluteWin32Path, source)
	})

	t.Run("directory is not a parent", func(t *testing.T) {
		_, _, err := ResolveParentPath(child, &vhdx.ParentLocator{AbsoluteWin32Path: dir})
		requireKind(t, err, types.ErrKindMissingField)
	})

	t.Run("nothing found", func(t *testing.T) {
		_, _, err := ResolveParentPath(child, &vhdx.ParentLocator{
			RelativePath:      `missing.vhdx`,
			AbsoluteWin32Path: `C:\vms\missing.vhdx`,
		})
		requireKind(t, err, types.ErrKindMissingField)
		require.ErrorIs(t, err, format.ErrMissingField)
		require.Contains(t, err.Error(), `C:\vms\missing.vhdx`)
	})
}
