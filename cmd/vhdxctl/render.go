package main

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// printImage renders an image report as aligned text sections.
func printImage(w io.Writer, rep imageReport) {
	fmt.Fprintf(w, "VHDX Image %s\n", rep.File)
	fmt.Fprintln(w, "==========")

	kv := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(kv, "Type:\t%s\n", rep.Type)
	fmt.Fprintf(kv, "Size:\t%s (%d bytes)\n", humanBytes(rep.SizeBytes), rep.SizeBytes)
	fmt.Fprintf(kv, "Creator:\t%s\n", emptyDash(rep.Creator))
	_ = kv.Flush()

	h := rep.Header
	section(w, fmt.Sprintf("Header (at 0x%X)", h.Offset))
	kv = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(kv, "Checksum:\t0x%08X\n", h.Checksum)
	fmt.Fprintf(kv, "Sequence number:\t0x%X\n", h.SequenceNumber)
	fmt.Fprintf(kv, "File write ID:\t%s\n", h.FileWriteID)
	fmt.Fprintf(kv, "Data write ID:\t%s\n", h.DataWriteID)
	fmt.Fprintf(kv, "Log ID:\t%s\n", h.LogID)
	fmt.Fprintf(kv, "Log version:\t%d\n", h.LogVersion)
	fmt.Fprintf(kv, "Version:\t%d\n", h.Version)
	fmt.Fprintf(kv, "Log:\t0x%X bytes at 0x%X\n", h.LogLength, h.LogOffset)
	_ = kv.Flush()

	section(w, "Regions")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tOFFSET\tLENGTH\tREQUIRED")
	for _, r := range rep.Regions {
		fmt.Fprintf(tw, "%s\t%s\t0x%X\t0x%X\t%t\n", r.Type, r.ID, r.Offset, r.Length, r.Required)
	}
	_ = tw.Flush()

	section(w, "Metadata Entries")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tOFFSET\tLENGTH\tUSER\tVIRTUAL DISK\tREQUIRED")
	for _, e := range rep.Items {
		fmt.Fprintf(tw, "%s\t%s\t0x%X\t0x%X\t%t\t%t\t%t\n",
			e.Type, e.ID, e.Offset, e.Length, e.IsUser, e.IsVirtualDisk, e.IsRequired)
	}
	_ = tw.Flush()

	md := rep.Metadata
	section(w, "Metadata")
	kv = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(kv, "Block size:\t%s\n", humanBytes(int64(md.BlockSize)))
	fmt.Fprintf(kv, "Leave block allocated:\t%t\n", md.LeaveBlockAllocated)
	fmt.Fprintf(kv, "Has parent:\t%t\n", md.HasParent)
	fmt.Fprintf(kv, "Virtual disk size:\t%s (%d bytes)\n", humanBytes(int64(md.VirtualDiskSize)), md.VirtualDiskSize)
	fmt.Fprintf(kv, "Virtual disk ID:\t%s\n", md.VirtualDiskID)
	fmt.Fprintf(kv, "Logical sector size:\t%d\n", md.LogicalSectorSize)
	fmt.Fprintf(kv, "Physical sector size:\t%d\n", md.PhysicalSectorSize)
	fmt.Fprintf(kv, "Chunk ratio:\t%d\n", rep.BAT.ChunkRatio)
	fmt.Fprintf(kv, "BAT entries:\t%d (%d payload blocks, %d sector bitmap blocks)\n",
		rep.BAT.TotalBATEntries, rep.BAT.PayloadBlocks, rep.BAT.SectorBlocks)
	_ = kv.Flush()

	section(w, "Parent Locator")
	if rep.Locator == nil {
		fmt.Fprintln(w, "(none, disk is the head of its chain)")
		return
	}
	fmt.Fprintf(w, "Type: %s (%s)\n", rep.Locator.Type, rep.Locator.TypeID)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE")
	for _, e := range rep.Locator.Entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.Key, e.Value)
	}
	_ = tw.Flush()
}

// printBlocks renders one line per BAT entry.
func printBlocks(w io.Writer, rep blockReport) {
	fmt.Fprintf(w, "Block Allocation Table %s\n", rep.File)
	fmt.Fprintln(w, "======================")

	section(w, "Payload Blocks")
	printBlockEntries(w, rep.Payload)
	section(w, "Sector Bitmap Blocks")
	printBlockEntries(w, rep.Sector)
}

func printBlockEntries(w io.Writer, entries []blockEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IDX\tSTATE\tOFFSET")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d MiB\n", e.Index, e.State, e.FileOffsetMB)
	}
	_ = tw.Flush()
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	for range title {
		fmt.Fprint(w, "-")
	}
	fmt.Fprintln(w)
}

func emptyDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func humanBytes(n int64) string {
	if n < 0 {
		return fmt.Sprintf("%d B", n)
	}
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
