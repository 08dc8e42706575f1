package format

import "github.com/google/uuid"

// Well-known object identifiers.
var (
	RegionBAT      = uuid.MustParse("2DC27766-F623-4200-9D64-115E9BFD4A08")
	RegionMetadata = uuid.MustParse("8B7CA206-4790-4B9A-B8FE-575F050F886E")

	MetadataFileParameters     = uuid.MustParse("CAA16737-FA36-4D43-B3B6-33F0AA44E76B")
	MetadataVirtualDiskSize    = uuid.MustParse("2FA54224-CD1B-4876-B211-5DBED83BF4B8")
	MetadataVirtualDiskID      = uuid.MustParse("BECA12AB-B2E6-4523-93EF-C309E000C746")
	MetadataLogicalSectorSize  = uuid.MustParse("8141BF1D-A96F-4709-BA47-F233A8FAAB5F")
	MetadataPhysicalSectorSize = uuid.MustParse("CDA348C7-445D-4471-9CC9-E9885251C556")
	MetadataParentLocator      = uuid.MustParse("A8D35F2D-B30B-454D-ABF7-D3D84834AB0C")

	LocatorTypeVHDX = uuid.MustParse("B04AEFB7-D19E-4A81-B789-25B8E9445913")
)

// GUIDFromBytes converts the 16 on-disk bytes at the start of b into a UUID.
// The first three fields are stored little-endian (Microsoft GUID layout),
// the trailing eight bytes as-is.
func GUIDFromBytes(b []byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:GUIDSize])
	return u
}

// PutGUID writes u at off in on-disk byte order.
func PutGUID(b []byte, off int, u uuid.UUID) {
	d := b[off : off+GUIDSize]
	d[0], d[1], d[2], d[3] = u[3], u[2], u[1], u[0]
	d[4], d[5] = u[5], u[4]
	d[6], d[7] = u[7], u[6]
	copy(d[8:], u[8:])
}
