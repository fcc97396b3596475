package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/timeline/pkg/errors"
	"github.com/matzehuels/timeline/pkg/pipeline"
	"github.com/matzehuels/timeline/pkg/timeline"
)

type zoomFlags struct {
	doc      docFlags
	wrap     bool
	viewport float64
	output   string
	save     string
	noCache  bool
}

func (c *CLI) zoomCommand() *cobra.Command {
	var f zoomFlags
	cmd := &cobra.Command{
		Use:   "zoom [timeline.yaml] [bucket]",
		Short: "Zoom a timeline into one ruler bucket",
		Long: `Zoom a timeline into one ruler bucket and lay out the narrowed window.

The bucket is a ruler id of the form scale-key, as printed by the ruler
command: "month-2024/3", "hour-2024/3/5 10", "year--44". The zoomed window
uses the next finer scale.`,
		Example: `  timeline zoom release.yaml "day-2024/3/5"
  timeline zoom release.yaml "month-2024/3" --wrap --viewport 1600 -o march.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runZoom(cmd.Context(), args[0], args[1], f)
		},
	}
	f.doc.register(cmd)
	cmd.Flags().BoolVar(&f.wrap, "wrap", false, "grow the grid so the zoomed window fills the viewport")
	cmd.Flags().Float64Var(&f.viewport, "viewport", 1200, "viewport width used by --wrap")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", `write the zoomed result as JSON, "-" for stdout`)
	cmd.Flags().StringVar(&f.save, "save", "", "write the narrowed document to this file")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runZoom(ctx context.Context, input, bucket string, f zoomFlags) error {
	if err := errors.ValidateBucketID(bucket); err != nil {
		return err
	}
	doc, err := f.doc.load(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	z, err := runner.Zoom(ctx, doc, pipeline.ZoomRequest{Bucket: bucket, Wrap: f.wrap, ViewportWidth: f.viewport})
	if err != nil {
		return err
	}

	if f.output == "-" {
		return timeline.WriteResult(stdout, z.Result)
	}
	printSuccess("Zoomed into %s", StyleHighlight.Render(bucket))
	printKeyValue("scale", z.Target.Scale.String())
	printKeyValue("window", z.Target.Begin.Format(displayTime)+" .. "+z.Target.End.Format(displayTime))
	printKeyValue("grid", fmt.Sprintf("%.2fpx", z.Result.ScaleSize))
	printLayoutStats(z.Result, false)

	if f.output != "" {
		if err := timeline.WriteResultFile(z.Result, f.output); err != nil {
			return fmt.Errorf("write %s: %w", f.output, err)
		}
		printFile(f.output)
	}
	if f.save != "" {
		if err := timeline.WriteFile(z.Document, f.save); err != nil {
			return fmt.Errorf("write %s: %w", f.save, err)
		}
		printFile(f.save)
	}
	return nil
}
