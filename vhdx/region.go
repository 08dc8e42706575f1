package vhdx

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/joshuapare/vhdxkit/internal/buf"
	"github.com/joshuapare/vhdxkit/internal/format"
)

// RegionKind classifies a region table entry by its object id.
type RegionKind int

const (
	RegionUnknown RegionKind = iota
	RegionBAT
	RegionMetadata
)

func (k RegionKind) String() string {
	switch k {
	case RegionBAT:
		return "Block Allocation Table"
	case RegionMetadata:
		return "Metadata"
	default:
		return "Unknown"
	}
}

// regionKinds is the closed set of region object ids this decoder knows.
var regionKinds = map[uuid.UUID]RegionKind{
	format.RegionBAT:      RegionBAT,
	format.RegionMetadata: RegionMetadata,
}

// ClassifyRegion maps a region object id to its kind.
func ClassifyRegion(id uuid.UUID) RegionKind {
	return regionKinds[id]
}

// RegionEntry locates one region in the file.
type RegionEntry struct {
	ObjectID uuid.UUID
	Kind     RegionKind
	Offset   uint64
	Length   uint32
	Required bool
}

// End returns the first byte past the region.
func (e RegionEntry) End() uint64 {
	return e.Offset + uint64(e.Length)
}

// Validate checks the alignment rules for the entry and rejects a required
// region this decoder does not understand.
func (e RegionEntry) Validate() error {
	if e.Offset < format.RegionAlignment {
		return fmt.Errorf("region %s offset 0x%x below minimum 0x%x: %w",
			e.ObjectID, e.Offset, format.RegionAlignment, format.ErrBounds)
	}
	if !format.IsAligned(e.Offset, format.RegionAlignment) {
		return fmt.Errorf("region %s offset 0x%x not a multiple of 0x%x: %w",
			e.ObjectID, e.Offset, format.RegionAlignment, format.ErrBounds)
	}
	if !format.IsAligned(uint64(e.Length), format.RegionAlignment) {
		return fmt.Errorf("region %s length 0x%x not a multiple of 0x%x: %w",
			e.ObjectID, e.Length, format.RegionAlignment, format.ErrBounds)
	}
	if e.Kind == RegionUnknown && e.Required {
		return fmt.Errorf("required region %s not recognised: %w", e.ObjectID, format.ErrUnsupportedRequired)
	}
	return nil
}

// RegionTable is the decoded region directory.
type RegionTable struct {
	Checksum   uint32
	EntryCount uint32
	Entries    []RegionEntry
}

// Find returns the first entry of the given kind.
func (t *RegionTable) Find(kind RegionKind) (RegionEntry, bool) {
	for _, e := range t.Entries {
		if e.Kind == kind {
			return e, true
		}
	}
	return RegionEntry{}, false
}

// Equal reports whether both tables list the same entries in the same order.
func (t *RegionTable) Equal(o *RegionTable) bool {
	return t.EntryCount == o.EntryCount && slices.Equal(t.Entries, o.Entries)
}

// ReadRegionTable decodes and validates the region table copy at off.
func ReadRegionTable(r *buf.Reader, off int64) (*RegionTable, error) {
	block, err := r.BytesAt(off, format.RegionTableSize)
	if err != nil {
		return nil, fmt.Errorf("region table at 0x%x: %w", off, err)
	}
	sig := block[format.RegionTableSignatureOffset : format.RegionTableSignatureOffset+format.RegionTableSignatureSize]
	if !bytes.Equal(sig, format.RegionTableSignature) {
		return nil, fmt.Errorf("region table at 0x%x: got %q: %w", off, sig, format.ErrSignatureMismatch)
	}
	if err := format.VerifyChecksum(block, format.RegionTableChecksumOffset, fmt.Sprintf("region table at 0x%x", off)); err != nil {
		return nil, err
	}

	t := &RegionTable{}
	if t.Checksum, err = r.U32At(off + format.RegionTableChecksumOffset); err != nil {
		return nil, fmt.Errorf("region table checksum: %w", err)
	}
	if t.EntryCount, err = r.U32(); err != nil {
		return nil, fmt.Errorf("region table entry count: %w", err)
	}
	if t.EntryCount > format.MaxRegionEntries {
		return nil, fmt.Errorf("region table at 0x%x lists %d entries, maximum %d: %w",
			off, t.EntryCount, format.MaxRegionEntries, format.ErrBounds)
	}

	t.Entries = make([]RegionEntry, 0, t.EntryCount)
	for i := range int64(t.EntryCount) {
		e, err := readRegionEntry(r, off+format.RegionTableHeaderSize+i*format.RegionEntrySize)
		if err != nil {
			return nil, fmt.Errorf("region table at 0x%x entry %d: %w", off, i, err)
		}
		t.Entries = append(t.Entries, e)
	}
	return t, nil
}

func readRegionEntry(r *buf.Reader, off int64) (RegionEntry, error) {
	var (
		e   RegionEntry
		err error
	)
	if e.ObjectID, err = r.GUIDAt(off + format.RegionEntryGUIDOffset); err != nil {
		return e, err
	}
	if e.Offset, err = r.U64(); err != nil {
		return e, err
	}
	if e.Length, err = r.U32(); err != nil {
		return e, err
	}
	flags, err := r.U32()
	if err != nil {
		return e, err
	}
	e.Required = flags&format.RegionRequiredFlag != 0
	e.Kind = ClassifyRegion(e.ObjectID)

	return e, e.Validate()
}

// ResolveRegionTable reads both region table copies. Unlike the header,
// there is no tie-break: the copies must decode to identical entries.
func ResolveRegionTable(r *buf.Reader) (*RegionTable, error) {
	first, err := ReadRegionTable(r, format.FirstRegionTableOffset)
	if err != nil {
		return nil, err
	}
	second, err := ReadRegionTable(r, format.SecondRegionTableOffset)
	if err != nil {
		return nil, err
	}
	if !first.Equal(second) {
		return nil, fmt.Errorf("region table copies differ: %w", format.ErrRedundancy)
	}
	return first, nil
}
