package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/errors"
)

func (c *CLI) rulerCommand() *cobra.Command {
	var (
		df       docFlags
		position string
		asJSON   bool
		noCache  bool
	)
	cmd := &cobra.Command{
		Use:   "ruler [timeline.yaml]",
		Short: "Print the ruler buckets of a timeline",
		Long: `Print the ruler lines of a laid out timeline.

Each bucket is listed with its id, the instants it spans and its pixel
extent. Bucket ids feed the zoom and browse commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRuler(cmd.Context(), args[0], df, position, asJSON, noCache)
		},
	}
	df.register(cmd)
	cmd.Flags().StringVar(&position, "position", "", "only print lines at top or bottom")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the lines as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runRuler(ctx context.Context, input string, df docFlags, position string, asJSON, noCache bool) error {
	if position != "" && position != "top" && position != "bottom" {
		return errors.New(errors.ErrCodeInvalidInput, "position must be top or bottom, got %q", position)
	}
	doc, err := df.load(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Layout(ctx, doc)
	if err != nil {
		return err
	}
	var lines []layout.RulerLine
	for _, l := range res.Ruler {
		if position == "" || l.Position == position {
			lines = append(lines, l)
		}
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lines)
	}
	for i, l := range lines {
		if i > 0 {
			printNewline()
		}
		fmt.Fprintln(stdout, StyleTitle.Render(fmt.Sprintf("%s · %s", l.Position, l.Scale))+" "+
			StyleDim.Render(fmt.Sprintf("(%d buckets)", len(l.Buckets))))
		fmt.Fprintln(stdout, rulerTable(l).Render())
	}
	return nil
}

func rulerTable(l layout.RulerLine) *table.Table {
	rows := make([][]string, len(l.Buckets))
	for i, b := range l.Buckets {
		rows[i] = []string{
			b.ID,
			b.Begin.Format(displayTime),
			b.End.Format(displayTime),
			fmt.Sprintf("%.2f", b.X),
			fmt.Sprintf("%.2f", b.Width),
		}
	}
	header := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Bucket", "Begin", "End", "X", "Width").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return header
			case col == 0:
				return StyleHighlight
			case col >= 3:
				return StyleValue.Align(lipgloss.Right)
			}
			return StyleDim
		})
}
