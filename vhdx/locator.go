package vhdx

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/joshuapare/vhdxkit/internal/buf"
	"github.com/joshuapare/vhdxkit/internal/format"
)

// LocatorType identifies how a parent locator names its parent.
type LocatorType int

const (
	LocatorUnknown LocatorType = iota
	LocatorVHDX
)

func (t LocatorType) String() string {
	if t == LocatorVHDX {
		return "VHDX"
	}
	return "Unknown"
}

// ClassifyLocator maps a locator type id to its kind.
func ClassifyLocator(id uuid.UUID) LocatorType {
	if id == format.LocatorTypeVHDX {
		return LocatorVHDX
	}
	return LocatorUnknown
}

// ParentLocatorEntry is one key/value pair of a parent locator. Offsets are
// relative to the start of the locator item; lengths are in bytes.
type ParentLocatorEntry struct {
	KeyOffset   uint32
	ValueOffset uint32
	KeyLength   uint16
	ValueLength uint16
	Key         string
	Value       string
}

// ParentLocatorDict is the raw parent locator item.
type ParentLocatorDict struct {
	LocatorType   LocatorType
	LocatorTypeID uuid.UUID
	KeyValueCount uint16
	Entries       []ParentLocatorEntry
}

// ParentLocator is the interpreted form of a parent locator. Path fields
// are empty when the file does not carry them.
type ParentLocator struct {
	LocatorType       LocatorType
	ParentLinkage     uuid.UUID
	ParentLinkage2    uuid.UUID
	RelativePath      string
	VolumePath        string
	AbsoluteWin32Path string
}

// Matches reports whether id is either linkage recorded for the parent.
func (p *ParentLocator) Matches(id uuid.UUID) bool {
	return id == p.ParentLinkage || (p.ParentLinkage2 != uuid.Nil && id == p.ParentLinkage2)
}

// readParentLocator decodes the locator item of length n at absolute offset at.
func readParentLocator(c itemCursor, at int64, n uint32) (*ParentLocatorDict, *ParentLocator, error) {
	r := c.r
	d := &ParentLocatorDict{}
	var err error

	if d.LocatorTypeID, err = r.GUIDAt(at + format.LocatorTypeOffset); err != nil {
		return nil, nil, fmt.Errorf("locator type: %w", err)
	}
	d.LocatorType = ClassifyLocator(d.LocatorTypeID)
	if err = r.Skip(format.LocatorCountOffset - format.LocatorTypeOffset - format.GUIDSize); err != nil {
		return nil, nil, fmt.Errorf("locator reserved: %w", err)
	}
	if d.KeyValueCount, err = r.U16(); err != nil {
		return nil, nil, fmt.Errorf("locator key/value count: %w", err)
	}
	if _, err := buf.CheckListBounds(int(n), format.LocatorHeaderSize,
		int(d.KeyValueCount), format.LocatorEntrySize); err != nil {
		return nil, nil, fmt.Errorf("locator key/value descriptors: %w", err)
	}

	loc := &ParentLocator{LocatorType: d.LocatorType}
	d.Entries = make([]ParentLocatorEntry, 0, d.KeyValueCount)
	for i := range int64(d.KeyValueCount) {
		e, err := readLocatorEntry(c, at, n, at+format.LocatorHeaderSize+i*format.LocatorEntrySize)
		if err != nil {
			return nil, nil, fmt.Errorf("locator entry %d: %w", i, err)
		}
		if err := loc.set(e.Key, e.Value); err != nil {
			return nil, nil, fmt.Errorf("locator entry %d: %w", i, err)
		}
		d.Entries = append(d.Entries, e)
	}
	return d, loc, nil
}

func readLocatorEntry(c itemCursor, item int64, n uint32, off int64) (ParentLocatorEntry, error) {
	r := c.r
	var (
		e   ParentLocatorEntry
		err error
	)
	if e.KeyOffset, err = r.U32At(off + format.LocatorEntryKeyOffset); err != nil {
		return e, err
	}
	if e.ValueOffset, err = r.U32(); err != nil {
		return e, err
	}
	if e.KeyLength, err = r.U16(); err != nil {
		return e, err
	}
	if e.ValueLength, err = r.U16(); err != nil {
		return e, err
	}

	if e.Key, err = readLocatorString(c, item, n, e.KeyOffset, e.KeyLength, "key"); err != nil {
		return e, err
	}
	if e.Value, err = readLocatorString(c, item, n, e.ValueOffset, e.ValueLength, "value"); err != nil {
		return e, fmt.Errorf("%q: %w", e.Key, err)
	}
	return e, nil
}

func readLocatorString(c itemCursor, item int64, n, off uint32, length uint16, what string) (string, error) {
	end := uint64(off) + uint64(length)
	if end > uint64(n) {
		return "", fmt.Errorf("%s at +0x%x length %d runs past locator item of 0x%x bytes: %w",
			what, off, length, n, format.ErrBounds)
	}
	s, err := c.r.UTF16At(item+int64(off), int(length))
	if err != nil {
		return "", fmt.Errorf("%s: %w", what, err)
	}
	if err := c.check("parent locator " + what); err != nil {
		return "", err
	}
	if strings.IndexByte(s, 0) >= 0 {
		return "", fmt.Errorf("%s %q contains a NUL: %w", what, s, format.ErrMissingField)
	}
	return s, nil
}

// set interprets one key/value pair.
func (p *ParentLocator) set(key, value string) error {
	switch key {
	case format.LocatorKeyParentLinkage:
		id, err := parseLinkage(key, value)
		if err != nil {
			return err
		}
		p.ParentLinkage = id
	case format.LocatorKeyParentLinkage2:
		id, err := parseLinkage(key, value)
		if err != nil {
			return err
		}
		p.ParentLinkage2 = id
	case format.LocatorKeyRelativePath:
		p.RelativePath = value
	case format.LocatorKeyVolumePath:
		p.VolumePath = value
	case format.LocatorKeyAbsoluteWin32Path:
		p.AbsoluteWin32Path = value
	default:
		return fmt.Errorf("unrecognised locator key %q: %w", key, format.ErrMissingField)
	}
	return nil
}

// parseLinkage accepts the braced form written by Hyper-V as well as a bare GUID.
func parseLinkage(key, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q is not a GUID (%v): %w", key, value, err, format.ErrMissingField)
	}
	return id, nil
}
