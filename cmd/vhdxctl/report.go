package main

import (
	"github.com/google/uuid"

	"github.com/joshuapare/vhdxkit/pkg/inspect"
	"github.com/joshuapare/vhdxkit/vhdx"
)

// imageReport is the serialisable view of one decoded image.
type imageReport struct {
	File      string           `json:"file" yaml:"file"`
	SizeBytes int64            `json:"sizeBytes" yaml:"sizeBytes"`
	Type      inspect.DiskType `json:"type" yaml:"type"`
	Creator   string           `json:"creator" yaml:"creator"`

	Header   headerReport     `json:"header" yaml:"header"`
	Regions  []regionReport   `json:"regions" yaml:"regions"`
	Items    []itemReport     `json:"metadataEntries" yaml:"metadataEntries"`
	Metadata metadataReport   `json:"metadata" yaml:"metadata"`
	Locator  *locatorReport   `json:"parentLocator,omitempty" yaml:"parentLocator,omitempty"`
	BAT      vhdx.BlockValues `json:"bat" yaml:"bat"`
}

type headerReport struct {
	Offset         int64     `json:"offset" yaml:"offset"`
	Checksum       uint32    `json:"checksum" yaml:"checksum"`
	SequenceNumber uint64    `json:"sequenceNumber" yaml:"sequenceNumber"`
	FileWriteID    uuid.UUID `json:"fileWriteId" yaml:"fileWriteId"`
	DataWriteID    uuid.UUID `json:"dataWriteId" yaml:"dataWriteId"`
	LogID          uuid.UUID `json:"logId" yaml:"logId"`
	LogVersion     uint16    `json:"logVersion" yaml:"logVersion"`
	Version        uint16    `json:"version" yaml:"version"`
	LogLength      uint32    `json:"logLength" yaml:"logLength"`
	LogOffset      uint64    `json:"logOffset" yaml:"logOffset"`
}

type regionReport struct {
	Type     string    `json:"type" yaml:"type"`
	ID       uuid.UUID `json:"id" yaml:"id"`
	Offset   uint64    `json:"offset" yaml:"offset"`
	Length   uint32    `json:"length" yaml:"length"`
	Required bool      `json:"required" yaml:"required"`
}

type itemReport struct {
	Type          string    `json:"type" yaml:"type"`
	ID            uuid.UUID `json:"id" yaml:"id"`
	Offset        uint32    `json:"offset" yaml:"offset"`
	Length        uint32    `json:"length" yaml:"length"`
	IsUser        bool      `json:"isUser" yaml:"isUser"`
	IsVirtualDisk bool      `json:"isVirtualDisk" yaml:"isVirtualDisk"`
	IsRequired    bool      `json:"isRequired" yaml:"isRequired"`
}

type metadataReport struct {
	BlockSize           uint32    `json:"blockSize" yaml:"blockSize"`
	LeaveBlockAllocated bool      `json:"leaveBlockAllocated" yaml:"leaveBlockAllocated"`
	HasParent           bool      `json:"hasParent" yaml:"hasParent"`
	VirtualDiskSize     uint64    `json:"virtualDiskSize" yaml:"virtualDiskSize"`
	VirtualDiskID       uuid.UUID `json:"virtualDiskId" yaml:"virtualDiskId"`
	LogicalSectorSize   uint32    `json:"logicalSectorSize" yaml:"logicalSectorSize"`
	PhysicalSectorSize  uint32    `json:"physicalSectorSize" yaml:"physicalSectorSize"`
}

type locatorReport struct {
	Type    string            `json:"type" yaml:"type"`
	TypeID  uuid.UUID         `json:"typeId" yaml:"typeId"`
	Entries []locatorKVReport `json:"entries" yaml:"entries"`
}

type locatorKVReport struct {
	Key         string `json:"key" yaml:"key"`
	KeyOffset   uint32 `json:"keyOffset" yaml:"keyOffset"`
	KeyLength   uint16 `json:"keyLength" yaml:"keyLength"`
	Value       string `json:"value" yaml:"value"`
	ValueOffset uint32 `json:"valueOffset" yaml:"valueOffset"`
	ValueLength uint16 `json:"valueLength" yaml:"valueLength"`
}

func newImageReport(img *inspect.Image) imageReport {
	f := img.File
	h := f.Header
	md := f.Metadata

	rep := imageReport{
		File:      img.Path,
		SizeBytes: img.Size,
		Type:      img.Type,
		Creator:   f.Identifier.Creator,
		Header: headerReport{
			Offset:         f.HeaderOffset,
			Checksum:       h.Checksum,
			SequenceNumber: h.SequenceNumber,
			FileWriteID:    h.FileWriteID,
			DataWriteID:    h.DataWriteID,
			LogID:          h.LogID,
			LogVersion:     h.LogVersion,
			Version:        h.Version,
			LogLength:      h.LogLength,
			LogOffset:      h.LogOffset,
		},
		Metadata: metadataReport{
			BlockSize:           md.FileParameters.BlockSize,
			LeaveBlockAllocated: md.FileParameters.LeaveBlockAllocated,
			HasParent:           md.FileParameters.HasParent,
			VirtualDiskSize:     md.VirtualDiskSize,
			VirtualDiskID:       md.VirtualDiskID,
			LogicalSectorSize:   md.LogicalSectorSize,
			PhysicalSectorSize:  md.PhysicalSectorSize,
		},
		BAT: f.BAT.Values,
	}
	for _, r := range f.RegionTable.Entries {
		rep.Regions = append(rep.Regions, regionReport{
			Type:     r.Kind.String(),
			ID:       r.ObjectID,
			Offset:   r.Offset,
			Length:   r.Length,
			Required: r.Required,
		})
	}
	for _, e := range f.MetadataTable.Entries {
		rep.Items = append(rep.Items, itemReport{
			Type:          e.Kind.String(),
			ID:            e.ObjectID,
			Offset:        e.Offset,
			Length:        e.Length,
			IsUser:        e.IsUser,
			IsVirtualDisk: e.IsVirtualDisk,
			IsRequired:    e.IsRequired,
		})
	}
	if d := md.ParentLocatorDict; d != nil {
		loc := &locatorReport{Type: d.LocatorType.String(), TypeID: d.LocatorTypeID}
		for _, e := range d.Entries {
			loc.Entries = append(loc.Entries, locatorKVReport{
				Key:         e.Key,
				KeyOffset:   e.KeyOffset,
				KeyLength:   e.KeyLength,
				Value:       e.Value,
				ValueOffset: e.ValueOffset,
				ValueLength: e.ValueLength,
			})
		}
		rep.Locator = loc
	}
	return rep
}

// blockReport lists every BAT entry in on-disk order within its kind.
type blockReport struct {
	File    string           `json:"file" yaml:"file"`
	Values  vhdx.BlockValues `json:"values" yaml:"values"`
	Payload []blockEntry     `json:"payload" yaml:"payload"`
	Sector  []blockEntry     `json:"sector" yaml:"sector"`
}

type blockEntry struct {
	Index        int    `json:"index" yaml:"index"`
	State        string `json:"state" yaml:"state"`
	FileOffsetMB uint64 `json:"fileOffsetMiB" yaml:"fileOffsetMiB"`
	FileOffset   uint64 `json:"fileOffset" yaml:"fileOffset"`
}

func newBlockReport(img *inspect.Image) blockReport {
	bat := img.File.BAT
	rep := blockReport{
		File:    img.Path,
		Values:  bat.Values,
		Payload: make([]blockEntry, 0, len(bat.Payload)),
		Sector:  make([]blockEntry, 0, len(bat.Sector)),
	}
	for i, e := range bat.Payload {
		rep.Payload = append(rep.Payload, blockEntry{
			Index:        i,
			State:        e.State.String(),
			FileOffsetMB: e.FileOffsetMB,
			FileOffset:   e.FileOffset(),
		})
	}
	for i, e := range bat.Sector {
		rep.Sector = append(rep.Sector, blockEntry{
			Index:        i,
			State:        e.State.String(),
			FileOffsetMB: e.FileOffsetMB,
			FileOffset:   e.FileOffset(),
		})
	}
	return rep
}
