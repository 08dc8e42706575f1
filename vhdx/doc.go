// Package vhdx decodes the structures of a VHDX virtual hard disk file for
// read-only inspection.
//
// A decode runs top to bottom over an io.ReaderAt:
//
//	identifier      "vhdxfile" + creator string at offset 0
//	header x2       64 KiB and 128 KiB; larger sequence number wins
//	region table x2 192 KiB and 256 KiB; both copies must match
//	metadata        directory of typed items, then their values
//	BAT             payload and sector bitmap entries, interleaved
//
// Each structure is validated before anything it points at is trusted.
// Sector payload bytes and the log are never read.
package vhdx
