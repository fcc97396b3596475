package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/timeline/pkg/render/overlap"
)

func (c *CLI) overlapsCommand() *cobra.Command {
	var (
		df       docFlags
		output   string
		detailed bool
	)
	cmd := &cobra.Command{
		Use:   "overlaps [timeline.yaml]",
		Short: "Render the overlap graph of each row (debug)",
		Long: `Render the overlap graph of each timeline row.

Events are nodes, overlapping pairs are edges and each parallel group is a
dashed cluster. The output format follows the extension of --output: .dot
for Graphviz source, .svg for a rendered image. Use "-" for DOT on stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOverlaps(cmd.Context(), args[0], df, output, detailed)
		},
	}
	df.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.overlaps.svg)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label nodes with start and end")
	return cmd
}

func (c *CLI) runOverlaps(ctx context.Context, input string, df docFlags, output string, detailed bool) error {
	doc, err := df.load(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	cfg, err := doc.Options()
	if err != nil {
		return err
	}
	cats, events, err := doc.Inputs(cfg.Calendar)
	if err != nil {
		return err
	}

	st := startStage(ctx, "overlaps")
	g := overlap.Build(cats, events)
	dot := g.DOT(overlap.Options{Detailed: detailed})

	if output == "" {
		output = outputPath(input, ".overlaps.svg")
	}
	data := []byte(dot)
	if output != "-" && strings.EqualFold(filepath.Ext(output), ".svg") {
		if data, err = overlap.RenderSVG(ctx, dot); err != nil {
			st.failed(err)
			return err
		}
	}
	if err := writeOutput(output, data); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	st.done("Rendered overlap graph", "rows", len(g.Rows), "bytes", len(data))
	if output == "-" {
		return nil
	}

	printSuccess("Overlap graph")
	printFile(output)
	for _, r := range g.Rows {
		name := r.Category
		if name == "" {
			name = fmt.Sprintf("row %d", r.Index)
		}
		printStats(
			name,
			fmt.Sprintf("%d groups", len(r.Groups)),
			fmt.Sprintf("%d overlaps", len(r.Edges)),
			fmt.Sprintf("largest %d", r.MaxGroup()))
	}
	return nil
}
