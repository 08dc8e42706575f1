// Package format houses the low-level layout of the VHDX container: fixed
// offsets, structure sizes, signatures and well-known object identifiers.
// Decoding lives in the vhdx package; this package only describes bytes.
package format

var (
	// FileSignature opens the file type identifier at offset 0.
	//   0x00  'v' 'h' 'd' 'x' 'f' 'i' 'l' 'e'
	FileSignature = []byte{'v', 'h', 'd', 'x', 'f', 'i', 'l', 'e'}

	// HeaderSignature opens each of the two header copies.
	HeaderSignature = []byte{'h', 'e', 'a', 'd'}

	// RegionTableSignature opens each of the two region table copies.
	RegionTableSignature = []byte{'r', 'e', 'g', 'i'}

	// MetadataSignature opens the metadata table inside the metadata region.
	MetadataSignature = []byte{'m', 'e', 't', 'a', 'd', 'a', 't', 'a'}
)

// ============================================================================
// File Type Identifier
// ============================================================================
const (
	FileSignatureOffset = 0x00
	FileSignatureSize   = 8
	FileCreatorOffset   = 0x08
	FileCreatorSize     = 0x200 // 256 UTF-16 code units
)

// ============================================================================
// Header
// ============================================================================
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    'h' 'e' 'a' 'd'
//	 0x04    4    CRC32C of the 4 KiB block with this field zeroed
//	 0x08    8    Sequence number
//	 0x10   16    File write GUID
//	 0x20   16    Data write GUID
//	 0x30   16    Log GUID
//	 0x40    2    Log version
//	 0x42    2    Version
//	 0x44    4    Log length
//	 0x48    8    Log offset
const (
	FirstHeaderOffset  = 0x10000
	SecondHeaderOffset = 0x20000
	HeaderSize         = 0x1000

	HeaderSignatureOffset  = 0x00
	HeaderSignatureSize    = 4
	HeaderChecksumOffset   = 0x04
	HeaderSequenceOffset   = 0x08
	HeaderFileWriteOffset  = 0x10
	HeaderDataWriteOffset  = 0x20
	HeaderLogGUIDOffset    = 0x30
	HeaderLogVersionOffset = 0x40
	HeaderVersionOffset    = 0x42
	HeaderLogLengthOffset  = 0x44
	HeaderLogOffsetOffset  = 0x48
	HeaderFieldsEnd        = 0x50
)

// ============================================================================
// Region Table
// ============================================================================
//
//	Header (16 bytes): signature(4) checksum(4) entry count(4) reserved(4)
//	Entry  (32 bytes): GUID(16) file offset(8) length(4) flags(4)
const (
	FirstRegionTableOffset  = 0x30000
	SecondRegionTableOffset = 0x40000
	RegionTableSize         = 0x10000

	RegionTableSignatureOffset = 0x00
	RegionTableSignatureSize   = 4
	RegionTableChecksumOffset  = 0x04
	RegionTableCountOffset     = 0x08
	RegionTableHeaderSize      = 0x10

	RegionEntrySize         = 0x20
	RegionEntryGUIDOffset   = 0x00
	RegionEntryOffsetOffset = 0x10
	RegionEntryLengthOffset = 0x18
	RegionEntryFlagsOffset  = 0x1C

	// MaxRegionEntries bounds the entry count of a region table.
	MaxRegionEntries = 2047

	// RegionAlignment is both the minimum region offset and the required
	// granularity of region offsets and lengths (1 MiB).
	RegionAlignment = 1 << 20

	RegionRequiredFlag = 1 << 0
)

// ============================================================================
// Metadata Table
// ============================================================================
//
//	Header (32 bytes): signature(8) reserved(2) entry count(2) reserved(20)
//	Entry  (32 bytes): GUID(16) offset(4) length(4) flags(4) reserved(4)
const (
	MetadataSignatureOffset = 0x00
	MetadataSignatureSize   = 8
	MetadataCountOffset     = 0x0A
	MetadataHeaderSize      = 0x20

	MetadataEntrySize         = 0x20
	MetadataEntryGUIDOffset   = 0x00
	MetadataEntryOffsetOffset = 0x10
	MetadataEntryLengthOffset = 0x14
	MetadataEntryFlagsOffset  = 0x18

	MetadataIsUserFlag        = 1 << 0
	MetadataIsVirtualDiskFlag = 1 << 1
	MetadataIsRequiredFlag    = 1 << 2

	// File parameters item: block size(4) flags(4).
	FileParametersSize          = 8
	FileParamLeaveAllocatedFlag = 1 << 0
	FileParamHasParentFlag      = 1 << 1
)

// ============================================================================
// Parent Locator
// ============================================================================
//
//	Header (20 bytes): locator type GUID(16) reserved(2) key/value count(2)
//	Entry  (12 bytes): key offset(4) value offset(4) key length(2) value length(2)
//
// Key and value offsets are relative to the start of the locator item.
const (
	LocatorTypeOffset       = 0x00
	LocatorCountOffset      = 0x12
	LocatorHeaderSize       = 0x14
	LocatorEntrySize        = 0x0C
	LocatorEntryKeyOffset   = 0x00
	LocatorEntryValueOffset = 0x04
	LocatorEntryKeyLength   = 0x08
	LocatorEntryValueLength = 0x0A

	LocatorKeyParentLinkage     = "parent_linkage"
	LocatorKeyParentLinkage2    = "parent_linkage2"
	LocatorKeyRelativePath      = "relative_path"
	LocatorKeyVolumePath        = "volume_path"
	LocatorKeyAbsoluteWin32Path = "absolute_win32_path"
)

// ============================================================================
// Block Allocation Table
// ============================================================================
const (
	BATEntrySize = 8

	// ChunkRatioMultiplier is 2^23, the number of sectors one sector bitmap
	// block describes.
	ChunkRatioMultiplier = 1 << 23

	// BATStateMask selects the 3-bit block state.
	BATStateMask uint64 = 0x7

	// BATOffsetMask selects the 44-bit file offset field (in MiB once
	// shifted right by BATOffsetShift).
	BATOffsetMask  uint64 = 0xFFFFFFFFFFF00000
	BATOffsetShift        = 20
)

// GUIDSize is the on-disk width of every GUID field.
const GUIDSize = 16
