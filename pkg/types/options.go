package types

import "log/slog"

// DecodeOptions controls a single decode pass over one VHDX file.
type DecodeOptions struct {
	// FollowingParent selects the BAT layout used while walking a
	// differencing chain: true when this file is being decoded as the parent
	// of a previously decoded child. It is independent of the file's own
	// HasParent metadata flag.
	FollowingParent bool

	// Logger receives Debug records for each decode stage.
	// Nil falls back to the process-wide logger (discarding by default).
	Logger *slog.Logger
}
