package inspect

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vhdxkit/internal/format"
	"github.com/joshuapare/vhdxkit/internal/testutil"
	"github.com/joshuapare/vhdxkit/internal/testutil/vhdximage"
	"github.com/joshuapare/vhdxkit/pkg/types"
)

// diskImage returns an image with its own data write id, optionally naming
// a parent by relative path and linkage.
func diskImage(id uuid.UUID, parentRel string, linkage uuid.UUID) *vhdximage.Image {
	img := vhdximage.New()
	img.DataWriteID = id
	if parentRel != "" {
		img.SetParent(
			vhdximage.Linkage(linkage),
			vhdximage.Pair{Key: format.LocatorKeyRelativePath, Value: parentRel},
		)
	}
	return img
}

// writeChain lays out child -> middle -> base in dir and returns the
// child's path.
func writeChain(t *testing.T, dir string) (string, [3]uuid.UUID) {
	t.Helper()
	ids := [3]uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	testutil.WriteImage(t, dir, filepath.Join("base", "base.vhdx"), diskImage(ids[2], "", uuid.Nil).Bytes())
	testutil.WriteImage(t, dir, filepath.Join("base", "middle.vhdx"), diskImage(ids[1], `.\base.vhdx`, ids[2]).Bytes())
	child := testutil.WriteImage(t, dir, "child.vhdx", diskImage(ids[0], `base\middle.vhdx`, ids[1]).Bytes())
	return child, ids
}

func TestWalkChain(t *testing.T) {
	child, ids := writeChain(t, t.TempDir())

	var visited []*Image
	err := WalkChain(child, Options{}, func(img *Image) error {
		visited = append(visited, img)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, visited, 3)

	for i, img := range visited {
		require.Equal(t, ids[i], img.File.Header.DataWriteID)
	}
	require.Equal(t, Differencing, visited[0].Type)
	require.Equal(t, Differencing, visited[1].Type)
	require.Equal(t, Dynamic, visited[2].Type)
	require.Equal(t, "base.vhdx", filepath.Base(visited[2].Path))

	// The head uses the interleaved layout, ancestors the parent layout.
	require.Len(t, visited[0].File.BAT.Sector, 1)
	require.Empty(t, visited[1].File.BAT.Sector)
	require.Len(t, visited[2].File.BAT.Payload, 2)
}

func TestWalkChain_StopAndVisitErrors(t *testing.T) {
	child, _ := writeChain(t, t.TempDir())

	count := 0
	err := WalkChain(child, Options{}, func(*Image) error {
		count++
		return ErrStopWalk
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	boom := errors.New("boom")
	err = WalkChain(child, Options{}, func(img *Image) error {
		if filepath.Base(img.Path) == "middle.vhdx" {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestWalkChain_LinkageMismatch(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteImage(t, dir, "base.vhdx", diskImage(uuid.New(), "", uuid.Nil).Bytes())
	child := testutil.WriteImage(t, dir, "child.vhdx", diskImage(uuid.New(), "base.vhdx", uuid.New()).Bytes())

	err := WalkChain(child, Options{}, func(*Image) error { return nil })
	requireKind(t, err, types.ErrKindLinkage)
	require.ErrorIs(t, err, format.ErrLinkageMismatch)
}

func TestWalkChain_SecondLinkage(t *testing.T) {
	dir := t.TempDir()
	baseID := uuid.New()
	testutil.WriteImage(t, dir, "base.vhdx", diskImage(baseID, "", uuid.Nil).Bytes())

	img := vhdximage.New()
	img.SetParent(
		vhdximage.Linkage(uuid.New()),
		vhdximage.Pair{Key: format.LocatorKeyParentLinkage2, Value: baseID.String()},
		vhdximage.Pair{Key: format.LocatorKeyRelativePath, Value: "base.vhdx"},
	)
	child := testutil.WriteImage(t, dir, "child.vhdx", img.Bytes())

	n := 0
	require.NoError(t, WalkChain(child, Options{}, func(*Image) error { n++; return nil }))
	require.Equal(t, 2, n)
}

func TestWalkChain_MissingParent(t *testing.T) {
	child := testutil.WriteImage(t, t.TempDir(), "child.vhdx",
		diskImage(uuid.New(), "gone.vhdx", uuid.New()).Bytes())

	n := 0
	err := WalkChain(child, Options{}, func(*Image) error { n++; return nil })
	requireKind(t, err, types.ErrKindMissingField)
	require.Equal(t, 1, n)
}

func TestWalkChain_CorruptParent(t *testing.T) {
	dir := t.TempDir()
	child, _ := writeChain(t, dir)

	b := vhdximage.New().Bytes()
	b[format.FirstRegionTableOffset+0x20] ^= 0xFF
	testutil.WriteImage(t, dir, filepath.Join("base", "base.vhdx"), b)

	err := WalkChain(child, Options{}, func(*Image) error { return nil })
	requireKind(t, err, types.ErrKindChecksum)
}

func TestWalkChain_UnknownLocatorType(t *testing.T) {
	img := vhdximage.New()
	img.SetParent()
	img.SetItem(format.MetadataParentLocator,
		vhdximage.Locator(uuid.New(), vhdximage.Pair{Key: format.LocatorKeyRelativePath, Value: "x.vhdx"}))
	child := testutil.WriteImage(t, t.TempDir(), "child.vhdx", img.Bytes())

	var logs bytes.Buffer
	opts := Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))}

	n := 0
	require.NoError(t, WalkChain(child, opts, func(*Image) error { n++; return nil }))
	require.Equal(t, 1, n)
	require.Contains(t, logs.String(), "cannot follow parent locator")
}

func TestWalkChain_CycleRunsUntilStopped(t *testing.T) {
	dir := t.TempDir()
	a, b := uuid.New(), uuid.New()
	testutil.WriteImage(t, dir, "a.vhdx", diskImage(a, "b.vhdx", b).Bytes())
	testutil.WriteImage(t, dir, "b.vhdx", diskImage(b, "a.vhdx", a).Bytes())

	var names []string
	err := WalkChain(filepath.Join(dir, "a.vhdx"), Options{}, func(img *Image) error {
		names = append(names, filepath.Base(img.Path))
		if len(names) == 5 {
			return ErrStopWalk
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a.vhdx", "b.vhdx", "a.vhdx", "b.vhdx", "a.vhdx"}, names)
}

func TestWalkChain_MovedParentFoundByAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	baseID := uuid.New()
	src := testutil.WriteImage(t, dir, "staging/base.vhdx", diskImage(baseID, "", uuid.Nil).Bytes())
	moved := filepath.Join(dir, "archive", "base.vhdx")
	testutil.CopyImage(t, src, moved)

	img := vhdximage.New()
	img.SetParent(
		vhdximage.Linkage(baseID),
		vhdximage.Pair{Key: format.LocatorKeyRelativePath, Value: "base.vhdx"},
		vhdximage.Pair{Key: format.LocatorKeyAbsoluteWin32Path, Value: moved},
	)
	child := testutil.WriteImage(t, dir, "child.vhdx", img.Bytes())

	var paths []string
	require.NoError(t, WalkChain(child, Options{}, func(img *Image) error {
		paths = append(paths, img.Path)
		return nil
	}))
	require.Equal(t, []string{child, moved}, paths)
}
