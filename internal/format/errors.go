package format

import "errors"

var (
	// ErrSignatureMismatch indicates a structure had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrChecksumMismatch indicates a stored CRC32C did not match the block.
	ErrChecksumMismatch = errors.New("format: checksum mismatch")
	// ErrUnsupportedRequired indicates an unrecognised object marked required.
	ErrUnsupportedRequired = errors.New("format: unsupported required object")
	// ErrBounds indicates a count or length exceeds its declared container.
	ErrBounds = errors.New("format: structure exceeds declared bounds")
	// ErrRedundancy indicates the redundant copies of a structure disagree.
	ErrRedundancy = errors.New("format: inconsistent redundant copies")
	// ErrDegenerate indicates a derived quantity came out unusable (e.g. zero).
	ErrDegenerate = errors.New("format: degenerate computation")
	// ErrMissingField indicates an expected field or key was absent or malformed.
	ErrMissingField = errors.New("format: missing expected field")
	// ErrInvalidState indicates a BAT entry carried an undefined state code.
	ErrInvalidState = errors.New("format: invalid block state")
	// ErrIO indicates a short read or an unreadable offset.
	ErrIO = errors.New("format: i/o failure")
	// ErrLinkageMismatch indicates a parent disk does not match its child's linkage.
	ErrLinkageMismatch = errors.New("format: parent linkage mismatch")
)
