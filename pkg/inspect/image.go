package inspect

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/vhdxkit/internal/format"
	"github.com/joshuapare/vhdxkit/internal/mmfile"
	"github.com/joshuapare/vhdxkit/pkg/types"
	"github.com/joshuapare/vhdxkit/vhdx"
)

// DiskType is the kind of virtual disk an image holds.
type DiskType int

const (
	Fixed DiskType = iota
	Dynamic
	Differencing
)

func (t DiskType) String() string {
	switch t {
	case Fixed:
		return "Fixed"
	case Dynamic:
		return "Dynamic"
	case Differencing:
		return "Differencing"
	default:
		return fmt.Sprintf("DiskType(%d)", int(t))
	}
}

// MarshalText renders the type by name in JSON and YAML reports.
func (t DiskType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a name written by MarshalText.
func (t *DiskType) UnmarshalText(b []byte) error {
	for _, c := range []DiskType{Fixed, Dynamic, Differencing} {
		if string(b) == c.String() {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("unknown disk type %q", b)
}

// Classify derives the disk type. An image naming a parent is differencing;
// otherwise any block that is not (or only partly) present makes it dynamic.
// Entries past the end of the virtual disk are padding and are ignored.
func Classify(f *vhdx.File) DiskType {
	if f.IsDifferencing() {
		return Differencing
	}
	blocks := f.BAT.Payload[:min(uint64(len(f.BAT.Payload)), f.BAT.Values.PayloadBlocks)]
	for _, e := range blocks {
		if e.State == vhdx.PayloadNotPresent || e.State == vhdx.PayloadPartiallyPresent {
			return Dynamic
		}
	}
	return Fixed
}

// Image is a decoded image file.
type Image struct {
	Path string
	Size int64 // bytes on disk
	Type DiskType
	File *vhdx.File
}

// Open maps and decodes the image at path. The mapping is released before
// Open returns; the decoded structures own their memory.
func Open(path string, opts Options) (*Image, error) {
	return open(path, false, opts)
}

// OpenParent is Open for an image that is the parent of a differencing
// disk, which changes how its block allocation table is laid out.
func OpenParent(path string, opts Options) (*Image, error) {
	return open(path, true, opts)
}

func open(path string, followingParent bool, opts Options) (*Image, error) {
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, types.Wrap("open image", fmt.Errorf("%s: %w: %w", path, format.ErrIO, err))
	}
	defer func() {
		if unmap != nil {
			_ = unmap()
		}
	}()

	f, err := vhdx.Decode(bytes.NewReader(data), types.DecodeOptions{
		FollowingParent: followingParent,
		Logger:          opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Image{
		Path: path,
		Size: int64(len(data)),
		Type: Classify(f),
		File: f,
	}, nil
}
