package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/pipeline"
	"github.com/matzehuels/timeline/pkg/timeline"
)

// displayTime formats instants in command output.
const displayTime = "2006-01-02 15:04:05.000"

type layoutFlags struct {
	doc      docFlags
	output   string
	noCache  bool
	refresh  bool
	align    string
	viewport float64
}

func (c *CLI) layoutCommand() *cobra.Command {
	var f layoutFlags
	cmd := &cobra.Command{
		Use:   "layout [timeline.yaml]",
		Short: "Lay out a timeline document",
		Long: `Lay out a timeline document and write the result as JSON.

The document may be YAML, TOML or JSON; the extension picks the format. Use
"-" to read stdin. The result holds the grid buckets, rows, event placements
and ruler lines in content pixels.

Results are cached locally. Documents whose window follows the clock are
re-laid out when the window moves.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], f)
		},
	}
	f.doc.register(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", `output file, "-" for stdout (default: <input>.layout.json)`)
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().StringVar(&f.align, "align", "", "print the scroll offset for: left, center, right, latest, current or an event id")
	cmd.Flags().Float64Var(&f.viewport, "viewport", 1200, "viewport width used by --align")
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, f layoutFlags) error {
	doc, err := f.doc.load(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st := startStage(ctx, "layout")
	spinner := newSpinner(ctx, "Laying out timeline...")
	spinner.Start()
	res, hit, err := runner.LayoutWithCacheInfo(ctx, doc, pipeline.Options{Refresh: f.refresh})
	if spinner.Cancelled() {
		spinner.Stop()
		return ctx.Err()
	}
	if err != nil {
		st.failed(err)
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	st.done("Laid out timeline", "events", len(res.Placements), "grids", len(res.Grid), "cached", hit)

	if f.output == "-" {
		return timeline.WriteResult(stdout, res)
	}
	out := f.output
	if out == "" {
		out = outputPath(input, ".layout.json")
	}
	if err := timeline.WriteResultFile(res, out); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	printSuccess("Layout complete")
	printFile(out)
	printLayoutStats(res, hit)

	if f.align != "" {
		x, err := layout.Align(res, f.align, f.viewport)
		if err != nil {
			return err
		}
		printKeyValue("scroll", fmt.Sprintf("%.2fpx (%s)", x, f.align))
	}
	if line, ok := firstLine(res); ok && len(line.Buckets) > 0 {
		printNewline()
		printNextStep("Zoom in", fmt.Sprintf("%s zoom %s %q", appName, input, line.Buckets[0].ID))
	}
	return nil
}

func printLayoutStats(res layout.Result, cached bool) {
	dropped := len(res.Placements) - len(res.Visible())
	parts := []string{
		fmt.Sprintf("%d %s grids", len(res.Grid), res.Scale),
		fmt.Sprintf("%d rows", len(res.Rows)),
		fmt.Sprintf("%d events", len(res.Placements)),
	}
	parts = append(parts, fmt.Sprintf("%.0fx%.0fpx", res.Width, res.Height), cacheStatus(cached))
	printStats(parts...)
	if dropped > 0 {
		printWarning("%d of %d events fall outside the window", dropped, len(res.Placements))
	}
}

// firstLine returns the topmost ruler line of res.
func firstLine(res layout.Result) (layout.RulerLine, bool) {
	if len(res.Ruler) == 0 {
		return layout.RulerLine{}, false
	}
	return res.Ruler[0], true
}

// outputPath derives an output file next to input. Stdin writes to the
// working directory.
func outputPath(input, suffix string) string {
	if input == "-" {
		return appName + suffix
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

// writeOutput writes data to path, "-" meaning stdout.
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
