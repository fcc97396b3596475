package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/timeline/pkg/buildinfo"
)

// RootCommand returns the root command with every subcommand registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Lay out events on a calendar-aware time axis",
		Long:         `timeline turns documents of dated events into pixel geometry: a grid of calendar buckets, rows per category, lanes for overlapping events and zoomable rulers.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.rulerCommand())
	root.AddCommand(c.zoomCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.overlapsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	return root
}
