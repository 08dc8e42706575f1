package vhdx

import (
	"fmt"
	"io"

	"github.com/joshuapare/vhdxkit/internal/buf"
	"github.com/joshuapare/vhdxkit/internal/format"
	"github.com/joshuapare/vhdxkit/internal/logger"
	"github.com/joshuapare/vhdxkit/pkg/types"
)

// File is a fully decoded and validated VHDX file.
type File struct {
	Identifier    Identifier
	Header        Header
	HeaderOffset  int64 // offset of the header copy that won
	RegionTable   *RegionTable
	MetadataTable *MetadataTable
	Metadata      *Metadata
	BAT           *BAT
}

// IsDifferencing reports whether the file names a parent disk.
func (f *File) IsDifferencing() bool {
	return f.Metadata.FileParameters.HasParent || f.Metadata.ParentLocator != nil
}

// Decode reads every structure of the VHDX file behind src in a single
// pass. Any failure aborts the decode and no partial File is returned;
// errors are *types.Error values that still match the format sentinels
// under errors.Is.
//
// Every read is positioned, so src is never assumed to have a meaningful
// current offset.
func Decode(src io.ReaderAt, opts types.DecodeOptions) (*File, error) {
	log := logger.Or(opts.Logger).With("component", "vhdx")
	r := buf.NewReader(src)
	f := &File{}
	var err error

	if f.Identifier, err = ReadIdentifier(r); err != nil {
		return nil, types.Wrap("decode identifier", err)
	}
	log.Debug("identifier decoded", "creator", f.Identifier.Creator)

	if f.Header, f.HeaderOffset, err = ResolveHeader(r); err != nil {
		return nil, types.Wrap("resolve header", err)
	}
	log.Debug("header resolved",
		"offset", f.HeaderOffset, "sequence", f.Header.SequenceNumber,
		"version", f.Header.Version, "log_length", f.Header.LogLength)

	if f.RegionTable, err = ResolveRegionTable(r); err != nil {
		return nil, types.Wrap("resolve region table", err)
	}
	log.Debug("region table resolved", "entries", f.RegionTable.EntryCount)

	mdRegion, ok := f.RegionTable.Find(RegionMetadata)
	if !ok {
		return nil, types.Wrap("locate metadata", fmt.Errorf("no metadata region: %w", format.ErrMissingField))
	}
	batRegion, ok := f.RegionTable.Find(RegionBAT)
	if !ok {
		return nil, types.Wrap("locate bat", fmt.Errorf("no bat region: %w", format.ErrMissingField))
	}

	if f.MetadataTable, f.Metadata, err = ReadMetadata(r, mdRegion, log); err != nil {
		return nil, types.Wrap("read metadata", err)
	}
	log.Debug("metadata resolved",
		"block_size", f.Metadata.FileParameters.BlockSize,
		"disk_size", f.Metadata.VirtualDiskSize,
		"has_parent", f.Metadata.FileParameters.HasParent)

	if f.BAT, err = ReadBAT(r, batRegion, f.Metadata, opts.FollowingParent, log); err != nil {
		return nil, types.Wrap("read bat", err)
	}
	log.Debug("bat decoded", "payload", len(f.BAT.Payload), "sector", len(f.BAT.Sector))

	return f, nil
}
