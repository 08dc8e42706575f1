package vhdx

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joshuapare/vhdxkit/internal/buf"
	"github.com/joshuapare/vhdxkit/internal/format"
)

// MetadataKind classifies a metadata table entry by its item id.
type MetadataKind int

const (
	MetadataUnknown MetadataKind = iota
	MetadataFileParameters
	MetadataVirtualDiskSize
	MetadataVirtualDiskID
	MetadataLogicalSectorSize
	MetadataPhysicalSectorSize
	MetadataParentLocator
)

func (k MetadataKind) String() string {
	switch k {
	case MetadataFileParameters:
		return "File Parameters"
	case MetadataVirtualDiskSize:
		return "Virtual Disk Size"
	case MetadataVirtualDiskID:
		return "Virtual Disk ID"
	case MetadataLogicalSectorSize:
		return "Logical Sector Size"
	case MetadataPhysicalSectorSize:
		return "Physical Sector Size"
	case MetadataParentLocator:
		return "Parent Locator"
	default:
		return "Unknown"
	}
}

var metadataKinds = map[uuid.UUID]MetadataKind{
	format.MetadataFileParameters:     MetadataFileParameters,
	format.MetadataVirtualDiskSize:    MetadataVirtualDiskSize,
	format.MetadataVirtualDiskID:      MetadataVirtualDiskID,
	format.MetadataLogicalSectorSize:  MetadataLogicalSectorSize,
	format.MetadataPhysicalSectorSize: MetadataPhysicalSectorSize,
	format.MetadataParentLocator:      MetadataParentLocator,
}

// ClassifyMetadata maps a metadata item id to its kind.
func ClassifyMetadata(id uuid.UUID) MetadataKind {
	return metadataKinds[id]
}

// MetadataEntry points at one metadata item. Offset is relative to the
// start of the metadata region.
type MetadataEntry struct {
	Kind          MetadataKind
	ObjectID      uuid.UUID
	Offset        uint32
	Length        uint32
	IsUser        bool
	IsVirtualDisk bool
	IsRequired    bool
}

// MetadataTable is the decoded metadata directory.
type MetadataTable struct {
	EntryCount uint16
	Entries    []MetadataEntry
}

// FileParameters holds the file parameters metadata item.
type FileParameters struct {
	BlockSize           uint32
	LeaveBlockAllocated bool
	HasParent           bool
}

// Metadata holds the resolved values of every recognised metadata item.
type Metadata struct {
	FileParameters     FileParameters
	VirtualDiskSize    uint64
	VirtualDiskID      uuid.UUID
	LogicalSectorSize  uint32
	PhysicalSectorSize uint32

	// Both nil unless the file carries a parent locator item.
	ParentLocatorDict *ParentLocatorDict
	ParentLocator     *ParentLocator
}

// ReadMetadataTable decodes the metadata directory at the start of region.
// Entries are classified as they are read; an unknown item flagged as
// required stops decoding.
func ReadMetadataTable(r *buf.Reader, region RegionEntry) (*MetadataTable, error) {
	base := int64(region.Offset)

	sig, err := r.BytesAt(base+format.MetadataSignatureOffset, format.MetadataSignatureSize)
	if err != nil {
		return nil, fmt.Errorf("metadata table: %w", err)
	}
	if !bytes.Equal(sig, format.MetadataSignature) {
		return nil, fmt.Errorf("metadata table at 0x%x: got %q: %w", base, sig, format.ErrSignatureMismatch)
	}

	t := &MetadataTable{}
	if t.EntryCount, err = r.U16At(base + format.MetadataCountOffset); err != nil {
		return nil, fmt.Errorf("metadata table entry count: %w", err)
	}
	if _, err := buf.CheckListBounds(int(region.Length), format.MetadataHeaderSize,
		int(t.EntryCount), format.MetadataEntrySize); err != nil {
		return nil, fmt.Errorf("metadata table at 0x%x: %w", base, err)
	}

	t.Entries = make([]MetadataEntry, 0, t.EntryCount)
	for i := range int64(t.EntryCount) {
		e, err := readMetadataEntry(r, base+format.MetadataHeaderSize+i*format.MetadataEntrySize)
		if err != nil {
			return nil, fmt.Errorf("metadata table entry %d: %w", i, err)
		}
		t.Entries = append(t.Entries, e)
	}
	return t, nil
}

func readMetadataEntry(r *buf.Reader, off int64) (MetadataEntry, error) {
	var (
		e   MetadataEntry
		err error
	)
	if e.ObjectID, err = r.GUIDAt(off + format.MetadataEntryGUIDOffset); err != nil {
		return e, err
	}
	if e.Offset, err = r.U32(); err != nil {
		return e, err
	}
	if e.Length, err = r.U32(); err != nil {
		return e, err
	}
	flags, err := r.U32()
	if err != nil {
		return e, err
	}
	e.IsUser = flags&format.MetadataIsUserFlag != 0
	e.IsVirtualDisk = flags&format.MetadataIsVirtualDiskFlag != 0
	e.IsRequired = flags&format.MetadataIsRequiredFlag != 0
	e.Kind = ClassifyMetadata(e.ObjectID)

	if e.Kind == MetadataUnknown && e.IsRequired {
		return e, fmt.Errorf("required metadata item %s not recognised: %w", e.ObjectID, format.ErrUnsupportedRequired)
	}
	return e, nil
}

// itemCursor reads one metadata item and enforces that no read strays past
// the end of the metadata region.
type itemCursor struct {
	r     *buf.Reader
	base  int64 // metadata region start
	limit int64 // metadata region end
}

func (c itemCursor) check(what string) error {
	if pos := c.r.Pos(); pos > c.limit {
		return fmt.Errorf("%s read to 0x%x, past metadata region end 0x%x: %w", what, pos, c.limit, format.ErrBounds)
	}
	return nil
}

// ReadMetadataValues walks the directory and decodes each item at
// region start + entry offset.
func ReadMetadataValues(r *buf.Reader, t *MetadataTable, region RegionEntry) (*Metadata, error) {
	c := itemCursor{r: r, base: int64(region.Offset), limit: int64(region.End())}
	md := &Metadata{}

	for _, e := range t.Entries {
		at := c.base + int64(e.Offset)
		var err error

		switch e.Kind {
		case MetadataFileParameters:
			md.FileParameters, err = readFileParameters(r, at)
		case MetadataVirtualDiskSize:
			md.VirtualDiskSize, err = r.U64At(at)
		case MetadataVirtualDiskID:
			md.VirtualDiskID, err = r.GUIDAt(at)
		case MetadataLogicalSectorSize:
			md.LogicalSectorSize, err = r.U32At(at)
		case MetadataPhysicalSectorSize:
			md.PhysicalSectorSize, err = r.U32At(at)
		case MetadataParentLocator:
			md.ParentLocatorDict, md.ParentLocator, err = readParentLocator(c, at, e.Length)
		default:
			err = fmt.Errorf("metadata item %s has no decoder: %w", e.ObjectID, format.ErrUnsupportedRequired)
		}
		if err != nil {
			return nil, fmt.Errorf("metadata %s: %w", e.Kind, err)
		}
		if err := c.check(e.Kind.String()); err != nil {
			return nil, err
		}
	}
	return md, nil
}

func readFileParameters(r *buf.Reader, at int64) (FileParameters, error) {
	var (
		fp  FileParameters
		err error
	)
	if fp.BlockSize, err = r.U32At(at); err != nil {
		return fp, err
	}
	flags, err := r.U32()
	if err != nil {
		return fp, err
	}
	fp.LeaveBlockAllocated = flags&format.FileParamLeaveAllocatedFlag != 0
	fp.HasParent = flags&format.FileParamHasParentFlag != 0
	return fp, nil
}

// Validate cross-checks resolved values: a file claiming a parent must say
// where to find it.
func (md *Metadata) Validate() error {
	if md.FileParameters.HasParent && md.ParentLocator == nil {
		return fmt.Errorf("file parameters set HasParent but no parent locator is present: %w", format.ErrMissingField)
	}
	return nil
}

// ReadMetadata runs both phases over the metadata region and validates the
// result.
func ReadMetadata(r *buf.Reader, region RegionEntry, log *slog.Logger) (*MetadataTable, *Metadata, error) {
	if region.Kind != RegionMetadata {
		return nil, nil, fmt.Errorf("region %s is %s, not metadata: %w", region.ObjectID, region.Kind, format.ErrMissingField)
	}
	t, err := ReadMetadataTable(r, region)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("metadata table decoded", "offset", region.Offset, "entries", t.EntryCount)

	md, err := ReadMetadataValues(r, t, region)
	if err != nil {
		return nil, nil, err
	}
	if err := md.Validate(); err != nil {
		return nil, nil, err
	}
	return t, md, nil
}
