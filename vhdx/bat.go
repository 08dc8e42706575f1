package vhdx

import (
	"fmt"
	"log/slog"
	"math"
	"math/bits"

	"github.com/joshuapare/vhdxkit/internal/buf"
	"github.com/joshuapare/vhdxkit/internal/format"
)

// PayloadBlockState is the allocation state of a payload block. The codes
// are sparse: 4 and 5 are invalid.
type PayloadBlockState uint8

const (
	PayloadNotPresent       PayloadBlockState = 0
	PayloadUndefined        PayloadBlockState = 1
	PayloadZero             PayloadBlockState = 2
	PayloadUnmapped         PayloadBlockState = 3
	PayloadFullyPresent     PayloadBlockState = 6
	PayloadPartiallyPresent PayloadBlockState = 7
)

func (s PayloadBlockState) String() string {
	switch s {
	case PayloadNotPresent:
		return "NotPresent"
	case PayloadUndefined:
		return "Undefined"
	case PayloadZero:
		return "Zero"
	case PayloadUnmapped:
		return "Unmapped"
	case PayloadFullyPresent:
		return "FullyPresent"
	case PayloadPartiallyPresent:
		return "PartiallyPresent"
	default:
		return fmt.Sprintf("PayloadBlockState(%d)", uint8(s))
	}
}

// ParsePayloadState validates a raw 3-bit state code.
func ParsePayloadState(code uint8) (PayloadBlockState, error) {
	switch s := PayloadBlockState(code); s {
	case PayloadNotPresent, PayloadUndefined, PayloadZero, PayloadUnmapped,
		PayloadFullyPresent, PayloadPartiallyPresent:
		return s, nil
	}
	return 0, fmt.Errorf("payload block state %d: %w", code, format.ErrInvalidState)
}

// SectorBlockState is the state of a sector bitmap block.
type SectorBlockState uint8

const (
	SectorNotPresent SectorBlockState = 0
	SectorPresent    SectorBlockState = 6
)

func (s SectorBlockState) String() string {
	switch s {
	case SectorNotPresent:
		return "NotPresent"
	case SectorPresent:
		return "Present"
	default:
		return fmt.Sprintf("SectorBlockState(%d)", uint8(s))
	}
}

// ParseSectorState validates a raw 3-bit state code.
func ParseSectorState(code uint8) (SectorBlockState, error) {
	switch s := SectorBlockState(code); s {
	case SectorNotPresent, SectorPresent:
		return s, nil
	}
	return 0, fmt.Errorf("sector bitmap block state %d: %w", code, format.ErrInvalidState)
}

// PayloadEntry is a decoded BAT entry for a payload block.
type PayloadEntry struct {
	State        PayloadBlockState
	FileOffsetMB uint64
}

// FileOffset returns the byte offset of the block in the file.
func (e PayloadEntry) FileOffset() uint64 { return format.MiB(e.FileOffsetMB) }

// SectorEntry is a decoded BAT entry for a sector bitmap block.
type SectorEntry struct {
	State        SectorBlockState
	FileOffsetMB uint64
}

// FileOffset returns the byte offset of the bitmap block in the file.
func (e SectorEntry) FileOffset() uint64 { return format.MiB(e.FileOffsetMB) }

// BlockValues are the counts derived from metadata that size the BAT.
type BlockValues struct {
	ChunkRatio      uint64 `json:"chunkRatio" yaml:"chunkRatio"`
	PayloadBlocks   uint64 `json:"payloadBlocks" yaml:"payloadBlocks"`
	SectorBlocks    uint64 `json:"sectorBlocks" yaml:"sectorBlocks"`
	TotalBATEntries uint64 `json:"totalEntries" yaml:"totalEntries"`
}

// CalculateBlockValues derives the BAT geometry. followingParent selects
// the entry count formula for a file decoded as the parent in a chain.
func CalculateBlockValues(md *Metadata, followingParent bool) (BlockValues, error) {
	blockSize := uint64(md.FileParameters.BlockSize)
	if blockSize == 0 {
		return BlockValues{}, fmt.Errorf("block size is zero: %w", format.ErrDegenerate)
	}

	var v BlockValues
	v.ChunkRatio = format.ChunkRatioMultiplier * uint64(md.LogicalSectorSize) / blockSize
	if v.ChunkRatio == 0 {
		return BlockValues{}, fmt.Errorf("chunk ratio is zero (logical sector size %d, block size %d): %w",
			md.LogicalSectorSize, blockSize, format.ErrDegenerate)
	}
	v.PayloadBlocks = format.CeilDivU(md.VirtualDiskSize, blockSize)
	v.SectorBlocks = format.CeilDivU(v.PayloadBlocks, v.ChunkRatio)

	if followingParent {
		if v.PayloadBlocks > math.MaxInt64 {
			return BlockValues{}, fmt.Errorf("%d payload blocks: %w", v.PayloadBlocks, format.ErrBounds)
		}
		payload := int64(v.PayloadBlocks)
		interleaved := format.FloorDiv(payload-1, int64(v.ChunkRatio))
		if interleaved > math.MaxInt64-payload {
			return BlockValues{}, fmt.Errorf("bat entry count overflows (%d payload + %d sector): %w",
				payload, interleaved, format.ErrBounds)
		}
		v.TotalBATEntries = uint64(max(payload+interleaved, 0))
	} else {
		hi, lo := bits.Mul64(v.SectorBlocks, v.ChunkRatio+1)
		if hi != 0 {
			return BlockValues{}, fmt.Errorf("bat entry count overflows (%d sector blocks * %d): %w",
				v.SectorBlocks, v.ChunkRatio+1, format.ErrBounds)
		}
		v.TotalBATEntries = lo
	}
	return v, nil
}

// ClassifyEntry maps a BAT index to its role. Every (chunkRatio+1)th entry
// is a sector bitmap entry; local is the index within that entry's own
// sequence.
func ClassifyEntry(index, chunkRatio uint64) (sector bool, local uint64) {
	period := chunkRatio + 1
	group := index / period
	if (index+1)%period == 0 {
		return true, group
	}
	return false, index - group
}

// BAT is the decoded block allocation table.
type BAT struct {
	Values  BlockValues
	Payload []PayloadEntry
	Sector  []SectorEntry
}

// ReadBAT decodes the table in region using the geometry from md.
func ReadBAT(r *buf.Reader, region RegionEntry, md *Metadata, followingParent bool, log *slog.Logger) (*BAT, error) {
	if region.Kind != RegionBAT {
		return nil, fmt.Errorf("region %s is %s, not a BAT: %w", region.ObjectID, region.Kind, format.ErrMissingField)
	}
	v, err := CalculateBlockValues(md, followingParent)
	if err != nil {
		return nil, err
	}
	log.Debug("bat geometry",
		"chunk_ratio", v.ChunkRatio, "payload_blocks", v.PayloadBlocks,
		"sector_blocks", v.SectorBlocks, "entries", v.TotalBATEntries,
		"following_parent", followingParent)

	if v.TotalBATEntries > uint64(region.Length)/format.BATEntrySize {
		return nil, fmt.Errorf("bat needs %d entries, region holds 0x%x bytes: %w",
			v.TotalBATEntries, region.Length, format.ErrBounds)
	}
	n, err := buf.CheckListBounds(int(region.Length), 0, int(v.TotalBATEntries), format.BATEntrySize)
	if err != nil {
		return nil, fmt.Errorf("bat entries: %w", err)
	}
	raw, err := r.BytesAt(int64(region.Offset), n)
	if err != nil {
		return nil, fmt.Errorf("bat: %w", err)
	}

	bat := &BAT{
		Values:  v,
		Payload: make([]PayloadEntry, 0, v.TotalBATEntries-min(v.TotalBATEntries, v.SectorBlocks)),
		Sector:  make([]SectorEntry, 0, v.SectorBlocks),
	}
	for i := range v.TotalBATEntries {
		entry := buf.U64LE(raw[i*format.BATEntrySize:])
		code := uint8(entry & format.BATStateMask)
		offsetMB := (entry & format.BATOffsetMask) >> format.BATOffsetShift

		if sector, _ := ClassifyEntry(i, v.ChunkRatio); sector {
			s, err := ParseSectorState(code)
			if err != nil {
				return nil, fmt.Errorf("bat entry %d: %w", i, err)
			}
			bat.Sector = append(bat.Sector, SectorEntry{State: s, FileOffsetMB: offsetMB})
			continue
		}
		s, err := ParsePayloadState(code)
		if err != nil {
			return nil, fmt.Errorf("bat entry %d: %w", i, err)
		}
		bat.Payload = append(bat.Payload, PayloadEntry{State: s, FileOffsetMB: offsetMB})
	}
	return bat, nil
}
