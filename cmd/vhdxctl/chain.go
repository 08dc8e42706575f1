package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joshuapare/vhdxkit/internal/logger"
	"github.com/joshuapare/vhdxkit/pkg/inspect"
)

var chainFull bool

func newChainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain <file>",
		Short: "Follow a differencing disk up to its base image",
		Long: `The chain command decodes a VHDX file and then each parent named by its
parent locator, checking that every parent carries the data write ID its
child expects. The walk has no depth limit; use --max-depth to bound it.

Example:
  vhdxctl chain child.vhdx
  vhdxctl chain child.vhdx --full --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxDepth, _ := cmd.Flags().GetInt("max-depth")
			return runChain(cmd.OutOrStdout(), args, maxDepth)
		},
	}
	cmd.Flags().BoolVar(&chainFull, "full", false, "Report every structure of each image, not just a summary")
	cmd.Flags().Int("max-depth", 0, "Stop after this many images (0 = unbounded)")
	return cmd
}

// chainLink summarises one image of a chain.
type chainLink struct {
	Depth       int              `json:"depth" yaml:"depth"`
	File        string           `json:"file" yaml:"file"`
	Type        inspect.DiskType `json:"type" yaml:"type"`
	DataWriteID string           `json:"dataWriteId" yaml:"dataWriteId"`
	Parent      string           `json:"parentLinkage,omitempty" yaml:"parentLinkage,omitempty"`
	Image       *imageReport     `json:"image,omitempty" yaml:"image,omitempty"`
}

func runChain(w io.Writer, args []string, maxDepth int) error {
	var links []chainLink
	err := inspect.WalkChain(args[0], inspect.Options{}, func(img *inspect.Image) error {
		link := chainLink{
			Depth:       len(links),
			File:        img.Path,
			Type:        img.Type,
			DataWriteID: img.File.Header.DataWriteID.String(),
		}
		if loc := img.File.Metadata.ParentLocator; loc != nil {
			link.Parent = loc.ParentLinkage.String()
		}
		if chainFull {
			rep := newImageReport(img)
			link.Image = &rep
		}
		links = append(links, link)

		if maxDepth > 0 && len(links) >= maxDepth {
			return inspect.ErrStopWalk
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk chain: %w", err)
	}
	logger.Info("walked chain", "path", args[0], "images", len(links))

	return emit(w, links, func(w io.Writer) {
		if chainFull {
			for i, l := range links {
				if i > 0 {
					fmt.Fprintln(w)
				}
				printImage(w, *l.Image)
			}
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DEPTH\tTYPE\tDATA WRITE ID\tFILE")
		for _, l := range links {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.Depth, l.Type, l.DataWriteID, l.File)
		}
		_ = tw.Flush()
	})
}
