package vhdx

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/joshuapare/vhdxkit/internal/buf"
	"github.com/joshuapare/vhdxkit/internal/format"
)

// Header is one decoded copy of the VHDX header. Two copies live at fixed
// offsets; ResolveHeader keeps only the current one.
type Header struct {
	Checksum       uint32
	SequenceNumber uint64
	FileWriteID    uuid.UUID
	DataWriteID    uuid.UUID
	LogID          uuid.UUID
	LogVersion     uint16
	Version        uint16
	LogLength      uint32
	LogOffset      uint64
}

// LogRegion returns the byte range of the log. The log itself is not parsed.
func (h Header) LogRegion() (offset uint64, length uint32) {
	return h.LogOffset, h.LogLength
}

// HasLog reports whether the header points at a log (non-nil log GUID means
// the log may contain entries that were never replayed).
func (h Header) HasLog() bool {
	return h.LogID != uuid.Nil
}

// ReadHeader decodes and validates the header copy at off: signature first,
// then the CRC32C of the whole 4 KiB block, then the fields.
func ReadHeader(r *buf.Reader, off int64) (Header, error) {
	block, err := r.BytesAt(off, format.HeaderSize)
	if err != nil {
		return Header{}, fmt.Errorf("header at 0x%x: %w", off, err)
	}
	sig := block[format.HeaderSignatureOffset : format.HeaderSignatureOffset+format.HeaderSignatureSize]
	if !bytes.Equal(sig, format.HeaderSignature) {
		return Header{}, fmt.Errorf("header at 0x%x: got %q: %w", off, sig, format.ErrSignatureMismatch)
	}
	if err := format.VerifyChecksum(block, format.HeaderChecksumOffset, fmt.Sprintf("header at 0x%x", off)); err != nil {
		return Header{}, err
	}

	var h Header
	if err := r.Seek(off + format.HeaderChecksumOffset); err != nil {
		return Header{}, err
	}
	if h.Checksum, err = r.U32(); err != nil {
		return Header{}, fmt.Errorf("header checksum: %w", err)
	}
	if h.SequenceNumber, err = r.U64(); err != nil {
		return Header{}, fmt.Errorf("header sequence number: %w", err)
	}
	if h.FileWriteID, err = r.GUID(); err != nil {
		return Header{}, fmt.Errorf("header file write id: %w", err)
	}
	if h.DataWriteID, err = r.GUID(); err != nil {
		return Header{}, fmt.Errorf("header data write id: %w", err)
	}
	if h.LogID, err = r.GUID(); err != nil {
		return Header{}, fmt.Errorf("header log id: %w", err)
	}
	if h.LogVersion, err = r.U16(); err != nil {
		return Header{}, fmt.Errorf("header log version: %w", err)
	}
	if h.Version, err = r.U16(); err != nil {
		return Header{}, fmt.Errorf("header version: %w", err)
	}
	if h.LogLength, err = r.U32(); err != nil {
		return Header{}, fmt.Errorf("header log length: %w", err)
	}
	if h.LogOffset, err = r.U64(); err != nil {
		return Header{}, fmt.Errorf("header log offset: %w", err)
	}
	return h, nil
}

// ResolveHeader reads both header copies and returns the one with the
// larger sequence number together with its file offset. Both copies must be
// valid, and equal sequence numbers are rejected rather than tie-broken.
func ResolveHeader(r *buf.Reader) (Header, int64, error) {
	first, err := ReadHeader(r, format.FirstHeaderOffset)
	if err != nil {
		return Header{}, 0, err
	}
	second, err := ReadHeader(r, format.SecondHeaderOffset)
	if err != nil {
		return Header{}, 0, err
	}

	switch {
	case first.SequenceNumber == second.SequenceNumber:
		return Header{}, 0, fmt.Errorf("header copies share sequence number %d: %w",
			first.SequenceNumber, format.ErrRedundancy)
	case first.SequenceNumber > second.SequenceNumber:
		return first, format.FirstHeaderOffset, nil
	default:
		return second, format.SecondHeaderOffset, nil
	}
}
