// Package vhdximage synthesises small VHDX files for tests.
//
// The layout is fixed: headers and region tables at their format offsets,
// the metadata region at 1 MiB and the BAT region at 2 MiB, each 1 MiB
// long. Tests tweak the exported fields (or the returned bytes) to build
// the malformed variants they need.
package vhdximage

import (
	"github.com/google/uuid"

	"github.com/joshuapare/vhdxkit/internal/buf"
	"github.com/joshuapare/vhdxkit/internal/format"
)

// Fixed placement of the metadata and BAT regions.
const (
	MetadataOffset = 1 << 20
	MetadataLength = 1 << 20
	BATOffset      = 2 << 20
	BATLength      = 1 << 20
	Size           = 3 << 20

	// ItemsOffset is where item payloads start inside the metadata region.
	ItemsOffset = 0x10000

	itemAlignment = 8
)

// Region is one region table entry.
type Region struct {
	ID       uuid.UUID
	Offset   uint64
	Length   uint32
	Required bool
}

// Item is one metadata item. A zero Offset places Data after the previous
// item; a non-zero Offset is written into the directory verbatim and Data
// is stored there.
type Item struct {
	ID            uuid.UUID
	Data          []byte
	Offset        uint32
	Length        *uint32 // overrides len(Data) in the directory
	IsUser        bool
	IsVirtualDisk bool
	IsRequired    bool
}

// Image describes the file to build.
type Image struct {
	Creator     string
	Sequence    [2]uint64
	FileWriteID uuid.UUID
	DataWriteID uuid.UUID
	LogID       uuid.UUID
	LogOffset   uint64
	LogLength   uint32

	Regions []Region
	Items   []Item
	BAT     []uint64
}

// Fixed disk geometry used by New.
const (
	DefaultBlockSize          = 2 << 20
	DefaultLogicalSectorSize  = 512
	DefaultPhysicalSectorSize = 4096
	DefaultDiskSize           = 4 << 20
)

// DiskID is the virtual disk id written by New.
var DiskID = uuid.MustParse("6B4C6B2E-1F0C-4C1E-9D5B-2A1E0C3F4D5E")

// New returns a valid dynamic disk: 4 MiB in 2 MiB blocks with 512-byte
// logical sectors, so the BAT holds one chunk of 2049 entries.
func New() *Image {
	return &Image{
		Creator:     "vhdxkit test",
		Sequence:    [2]uint64{1, 2},
		FileWriteID: uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		DataWriteID: uuid.MustParse("AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE"),
		Regions: []Region{
			{ID: format.RegionBAT, Offset: BATOffset, Length: BATLength, Required: true},
			{ID: format.RegionMetadata, Offset: MetadataOffset, Length: MetadataLength, Required: true},
		},
		Items: []Item{
			{ID: format.MetadataFileParameters, Data: FileParameters(DefaultBlockSize, false, false), IsRequired: true},
			{ID: format.MetadataVirtualDiskSize, Data: U64(DefaultDiskSize), IsVirtualDisk: true, IsRequired: true},
			{ID: format.MetadataLogicalSectorSize, Data: U32(DefaultLogicalSectorSize), IsVirtualDisk: true, IsRequired: true},
			{ID: format.MetadataPhysicalSectorSize, Data: U32(DefaultPhysicalSectorSize), IsVirtualDisk: true, IsRequired: true},
			{ID: format.MetadataVirtualDiskID, Data: GUID(DiskID), IsVirtualDisk: true, IsRequired: true},
		},
		BAT: make([]uint64, 2049),
	}
}

// Item returns a pointer to the first item with id, or nil.
func (img *Image) Item(id uuid.UUID) *Item {
	for i := range img.Items {
		if img.Items[i].ID == id {
			return &img.Items[i]
		}
	}
	return nil
}

// SetItem replaces the data of the item with id, appending it when absent.
func (img *Image) SetItem(id uuid.UUID, data []byte) {
	if it := img.Item(id); it != nil {
		it.Data = data
		return
	}
	img.Items = append(img.Items, Item{ID: id, Data: data, IsRequired: true})
}

// SetParent marks the disk as differencing and attaches a VHDX locator.
func (img *Image) SetParent(pairs ...Pair) {
	img.SetItem(format.MetadataFileParameters, FileParameters(DefaultBlockSize, false, true))
	img.SetItem(format.MetadataParentLocator, Locator(format.LocatorTypeVHDX, pairs...))
}

// Bytes serialises the image. Checksums are computed last, so the result
// is valid unless the description itself is not.
func (img *Image) Bytes() []byte {
	b := make([]byte, Size)

	copy(b[format.FileSignatureOffset:], format.FileSignature)
	copy(b[format.FileCreatorOffset:format.FileCreatorOffset+format.FileCreatorSize], utf16(img.Creator))

	for i, off := range []int{format.FirstHeaderOffset, format.SecondHeaderOffset} {
		img.putHeader(b[off:off+format.HeaderSize], img.Sequence[i])
	}
	for _, off := range []int{format.FirstRegionTableOffset, format.SecondRegionTableOffset} {
		img.putRegionTable(b[off : off+format.RegionTableSize])
	}
	img.putMetadata(b[MetadataOffset : MetadataOffset+MetadataLength])

	for i, e := range img.BAT {
		format.PutU64(b, BATOffset+i*format.BATEntrySize, e)
	}
	return b
}

func (img *Image) putHeader(h []byte, seq uint64) {
	copy(h, format.HeaderSignature)
	format.PutU64(h, format.HeaderSequenceOffset, seq)
	format.PutGUID(h, format.HeaderFileWriteOffset, img.FileWriteID)
	format.PutGUID(h, format.HeaderDataWriteOffset, img.DataWriteID)
	format.PutGUID(h, format.HeaderLogGUIDOffset, img.LogID)
	format.PutU16(h, format.HeaderVersionOffset, 1)
	format.PutU32(h, format.HeaderLogLengthOffset, img.LogLength)
	format.PutU64(h, format.HeaderLogOffsetOffset, img.LogOffset)
	format.PutChecksum(h, format.HeaderChecksumOffset)
}

func (img *Image) putRegionTable(t []byte) {
	copy(t, format.RegionTableSignature)
	format.PutU32(t, format.RegionTableCountOffset, uint32(len(img.Regions)))
	for i, r := range img.Regions {
		e := t[format.RegionTableHeaderSize+i*format.RegionEntrySize:]
		format.PutGUID(e, format.RegionEntryGUIDOffset, r.ID)
		format.PutU64(e, format.RegionEntryOffsetOffset, r.Offset)
		format.PutU32(e, format.RegionEntryLengthOffset, r.Length)
		if r.Required {
			format.PutU32(e, format.RegionEntryFlagsOffset, format.RegionRequiredFlag)
		}
	}
	format.PutChecksum(t, format.RegionTableChecksumOffset)
}

func (img *Image) putMetadata(m []byte) {
	copy(m, format.MetadataSignature)
	format.PutU16(m, format.MetadataCountOffset, uint16(len(img.Items)))

	next := uint32(ItemsOffset)
	for i, it := range img.Items {
		off := it.Offset
		if off == 0 {
			off = next
			next = uint32(format.AlignUp(uint64(next)+uint64(len(it.Data)), itemAlignment))
		}
		if int(off) < len(m) {
			copy(m[off:], it.Data)
		}
		length := uint32(len(it.Data))
		if it.Length != nil {
			length = *it.Length
		}

		var flags uint32
		if it.IsUser {
			flags |= format.MetadataIsUserFlag
		}
		if it.IsVirtualDisk {
			flags |= format.MetadataIsVirtualDiskFlag
		}
		if it.IsRequired {
			flags |= format.MetadataIsRequiredFlag
		}

		e := m[format.MetadataHeaderSize+i*format.MetadataEntrySize:]
		format.PutGUID(e, format.MetadataEntryGUIDOffset, it.ID)
		format.PutU32(e, format.MetadataEntryOffsetOffset, off)
		format.PutU32(e, format.MetadataEntryLengthOffset, length)
		format.PutU32(e, format.MetadataEntryFlagsOffset, flags)
	}
}

// Reseal recomputes the checksum of the size-byte structure at off in b,
// for tests that patch a header or region table after Bytes.
func Reseal(b []byte, off, size, checksumOff int) {
	format.PutChecksum(b[off:off+size], checksumOff)
}

// Entry packs a BAT entry from a state code and a file offset in MiB.
func Entry(state uint8, offsetMB uint64) uint64 {
	return offsetMB<<format.BATOffsetShift | uint64(state)&format.BATStateMask
}

// FileParameters encodes a file parameters item.
func FileParameters(blockSize uint32, leaveAllocated, hasParent bool) []byte {
	d := make([]byte, format.FileParametersSize)
	format.PutU32(d, 0, blockSize)
	var flags uint32
	if leaveAllocated {
		flags |= format.FileParamLeaveAllocatedFlag
	}
	if hasParent {
		flags |= format.FileParamHasParentFlag
	}
	format.PutU32(d, 4, flags)
	return d
}

// U32 encodes a 4-byte item.
func U32(v uint32) []byte {
	d := make([]byte, 4)
	format.PutU32(d, 0, v)
	return d
}

// U64 encodes an 8-byte item.
func U64(v uint64) []byte {
	d := make([]byte, 8)
	format.PutU64(d, 0, v)
	return d
}

// GUID encodes a 16-byte item in on-disk order.
func GUID(u uuid.UUID) []byte {
	d := make([]byte, format.GUIDSize)
	format.PutGUID(d, 0, u)
	return d
}

// Pair is one parent locator key/value.
type Pair struct{ Key, Value string }

// Linkage returns the parent_linkage pair for id in the braced form
// Hyper-V writes.
func Linkage(id uuid.UUID) Pair {
	return Pair{format.LocatorKeyParentLinkage, "{" + id.String() + "}"}
}

// Locator encodes a parent locator item. Strings follow the descriptor
// array; offsets are relative to the item start.
func Locator(typ uuid.UUID, pairs ...Pair) []byte {
	head := format.LocatorHeaderSize + len(pairs)*format.LocatorEntrySize
	d := make([]byte, head)
	format.PutGUID(d, format.LocatorTypeOffset, typ)
	format.PutU16(d, format.LocatorCountOffset, uint16(len(pairs)))

	for i, p := range pairs {
		k, v := utf16(p.Key), utf16(p.Value)
		e := format.LocatorHeaderSize + i*format.LocatorEntrySize

		format.PutU32(d, e+format.LocatorEntryKeyOffset, uint32(len(d)))
		d = append(d, k...)
		format.PutU32(d, e+format.LocatorEntryValueOffset, uint32(len(d)))
		d = append(d, v...)
		format.PutU16(d, e+format.LocatorEntryKeyLength, uint16(len(k)))
		format.PutU16(d, e+format.LocatorEntryValueLength, uint16(len(v)))
	}
	return d
}

func utf16(s string) []byte {
	b, err := buf.EncodeUTF16LE(s)
	if err != nil {
		panic(err)
	}
	return b
}
