package inspect

import "log/slog"

// Options configures Open and WalkChain.
type Options struct {
	// Logger receives decode Debug records and chain-walk Info/Warn records.
	// Nil falls back to the process-wide logger.
	Logger *slog.Logger
}
