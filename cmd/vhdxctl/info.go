package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vhdxkit/internal/logger"
	"github.com/joshuapare/vhdxkit/pkg/inspect"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Validate a VHDX file and report its structures",
		Long: `The info command decodes every structure of a VHDX file and reports
the header, region table, metadata entries and values, and parent locator.

Example:
  vhdxctl info disk.vhdx
  vhdxctl info disk.vhdx --yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.OutOrStdout(), args)
		},
	}
	return cmd
}

func runInfo(w io.Writer, args []string) error {
	path := args[0]
	logger.Debug("opening image", "path", path)

	img, err := inspect.Open(path, inspect.Options{})
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	rep := newImageReport(img)
	return emit(w, rep, func(w io.Writer) { printImage(w, rep) })
}
