package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vhdxkit/pkg/inspect"
)

var blocksFollowingParent bool

func newBlocksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks <file>",
		Short: "List the state of every block allocation table entry",
		Long: `The blocks command decodes the block allocation table and lists each
payload and sector bitmap entry with its state and file offset.

Example:
  vhdxctl blocks disk.vhdx
  vhdxctl blocks parent.vhdx --as-parent --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlocks(cmd.OutOrStdout(), args)
		},
	}
	cmd.Flags().BoolVar(&blocksFollowingParent, "as-parent", false,
		"Decode the table with the layout used for a parent in a differencing chain")
	return cmd
}

func runBlocks(w io.Writer, args []string) error {
	path := args[0]

	var (
		img *inspect.Image
		err error
	)
	if blocksFollowingParent {
		img, err = inspect.OpenParent(path, inspect.Options{})
	} else {
		img, err = inspect.Open(path, inspect.Options{})
	}
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	rep := newBlockReport(img)
	return emit(w, rep, func(w io.Writer) { printBlocks(w, rep) })
}
