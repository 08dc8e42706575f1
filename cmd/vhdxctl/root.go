package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/vhdxkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	yamlOut bool
	logJSON bool
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vhdxctl",
		Short: "Inspect VHDX virtual hard disk files",
		Long: `vhdxctl decodes and validates the structures of VHDX virtual hard disk
files: headers, region table, metadata, parent locator and block allocation
table. Files are only ever read.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each decode stage to stderr")
	cmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVar(&yamlOut, "yaml", false, "Output in YAML format")
	cmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit log records as JSON")

	cmd.AddCommand(newInfoCmd(), newBlocksCmd(), newChainCmd(), newVersionCmd())
	return cmd
}

func setup(cmd *cobra.Command, _ []string) error {
	if jsonOut && yamlOut {
		return errors.New("--json and --yaml are mutually exclusive")
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger.Init(logger.Options{
		Enabled: !quiet,
		Output:  cmd.ErrOrStderr(),
		Level:   level,
		JSON:    logJSON,
	})
	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Helper functions for output

// emit writes v as JSON or YAML when requested, otherwise calls text.
func emit(w io.Writer, v any, text func(io.Writer)) error {
	switch {
	case jsonOut:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case yamlOut:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		return encoder.Close()
	case quiet:
		return nil
	default:
		text(w)
		return nil
	}
}
