package buf

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/joshuapare/vhdxkit/internal/format"
)

// sizer is implemented by bytes.Reader, io.SectionReader and friends. When
// the source exposes its size, oversized reads fail before allocating.
type sizer interface {
	Size() int64
}

// Reader decodes little-endian fields from a random-access source.
//
// It keeps a cursor so consecutive fields can be decoded in order, but every
// read is a positioned ReadAt at the cursor. Nothing depends on the state of
// an underlying file offset, so callers can Seek anywhere between fields.
//
// Reader is not safe for concurrent use.
type Reader struct {
	src     io.ReaderAt
	pos     int64
	scratch [16]byte
}

// NewReader returns a Reader positioned at offset 0.
func NewReader(src io.ReaderAt) *Reader {
	return &Reader{src: src}
}

// Pos returns the absolute offset of the next read.
func (r *Reader) Pos() int64 { return r.pos }

// Seek moves the cursor to the absolute offset off.
func (r *Reader) Seek(off int64) error {
	if off < 0 {
		return fmt.Errorf("seek to negative offset %d: %w", off, format.ErrIO)
	}
	r.pos = off
	return nil
}

// Skip advances the cursor by n bytes without reading them.
func (r *Reader) Skip(n int64) error {
	next, ok := AddOverflowSafe(int(r.pos), int(n))
	if !ok {
		return fmt.Errorf("skip %d bytes at 0x%x: %w", n, r.pos, format.ErrIO)
	}
	return r.Seek(int64(next))
}

// Read fills p from the cursor and advances past it. A short read is an
// error wrapping both format.ErrIO and io.ErrUnexpectedEOF.
func (r *Reader) Read(p []byte) error {
	if s, ok := r.src.(sizer); ok && r.pos+int64(len(p)) > s.Size() {
		return fmt.Errorf("read %d bytes at 0x%x past end of %d-byte source: %w: %w",
			len(p), r.pos, s.Size(), format.ErrIO, io.ErrUnexpectedEOF)
	}
	n, err := r.src.ReadAt(p, r.pos)
	if n == len(p) {
		r.pos += int64(n)
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read %d bytes at 0x%x: %w: %w", len(p), r.pos, format.ErrIO, err)
}

// Bytes reads n bytes at the cursor into a freshly allocated slice.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("read negative length %d: %w", n, format.ErrIO)
	}
	if s, ok := r.src.(sizer); ok && r.pos+int64(n) > s.Size() {
		return nil, fmt.Errorf("read %d bytes at 0x%x past end of %d-byte source: %w: %w",
			n, r.pos, s.Size(), format.ErrIO, io.ErrUnexpectedEOF)
	}
	b := make([]byte, n)
	if err := r.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// BytesAt seeks to off and reads n bytes.
func (r *Reader) BytesAt(off int64, n int) ([]byte, error) {
	if err := r.Seek(off); err != nil {
		return nil, err
	}
	return r.Bytes(n)
}

func (r *Reader) fixed(n int) ([]byte, error) {
	b := r.scratch[:n]
	if err := r.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// U16 decodes a little-endian uint16 at the cursor.
func (r *Reader) U16() (uint16, error) {
	b, err := r.fixed(2)
	if err != nil {
		return 0, err
	}
	return U16LE(b), nil
}

// U32 decodes a little-endian uint32 at the cursor.
func (r *Reader) U32() (uint32, error) {
	b, err := r.fixed(4)
	if err != nil {
		return 0, err
	}
	return U32LE(b), nil
}

// U64 decodes a little-endian uint64 at the cursor.
func (r *Reader) U64() (uint64, error) {
	b, err := r.fixed(8)
	if err != nil {
		return 0, err
	}
	return U64LE(b), nil
}

// U128 decodes a little-endian 128-bit value at the cursor.
func (r *Reader) U128() (Uint128, error) {
	b, err := r.fixed(16)
	if err != nil {
		return Uint128{}, err
	}
	return U128LE(b), nil
}

// GUID decodes a 16-byte GUID stored in its on-disk (mixed-endian) order.
func (r *Reader) GUID() (uuid.UUID, error) {
	b, err := r.fixed(format.GUIDSize)
	if err != nil {
		return uuid.Nil, err
	}
	return format.GUIDFromBytes(b), nil
}

// UTF16 decodes a UTF-16LE string occupying exactly n bytes at the cursor.
func (r *Reader) UTF16(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	return DecodeUTF16LE(b)
}

// U16At seeks to off and decodes a uint16.
func (r *Reader) U16At(off int64) (uint16, error) {
	if err := r.Seek(off); err != nil {
		return 0, err
	}
	return r.U16()
}

// U32At seeks to off and decodes a uint32.
func (r *Reader) U32At(off int64) (uint32, error) {
	if err := r.Seek(off); err != nil {
		return 0, err
	}
	return r.U32()
}

// U64At seeks to off and decodes a uint64.
func (r *Reader) U64At(off int64) (uint64, error) {
	if err := r.Seek(off); err != nil {
		return 0, err
	}
	return r.U64()
}

// U128At seeks to off and decodes a 128-bit value.
func (r *Reader) U128At(off int64) (Uint128, error) {
	if err := r.Seek(off); err != nil {
		return Uint128{}, err
	}
	return r.U128()
}

// GUIDAt seeks to off and decodes a GUID.
func (r *Reader) GUIDAt(off int64) (uuid.UUID, error) {
	if err := r.Seek(off); err != nil {
		return uuid.Nil, err
	}
	return r.GUID()
}

// UTF16At seeks to off and decodes an n-byte UTF-16LE string.
func (r *Reader) UTF16At(off int64, n int) (string, error) {
	if err := r.Seek(off); err != nil {
		return "", err
	}
	return r.UTF16(n)
}
