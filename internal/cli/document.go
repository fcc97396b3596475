package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/timeline/pkg/timeline"
)

// docFlags override the window of a loaded document.
type docFlags struct {
	format   string
	scale    string
	start    string
	end      string
	timezone string
}

func (f *docFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "input-format", "", "document format when reading stdin: json, yaml (default), toml")
	cmd.Flags().StringVar(&f.scale, "scale", "", "override the document's scale")
	cmd.Flags().StringVar(&f.start, "start", "", `override the window start ("current" for now)`)
	cmd.Flags().StringVar(&f.end, "end", "", `override the window end ("auto", "current" or an instant)`)
	cmd.Flags().StringVar(&f.timezone, "timezone", "", "override the document's IANA time zone")
}

// load reads the document at path, "-" meaning stdin, and applies the
// overrides.
func (f docFlags) load(path string) (*timeline.Document, error) {
	var doc *timeline.Document
	var err error
	if path == "-" {
		format := timeline.FormatYAML
		if f.format != "" {
			if format, err = timeline.ParseFormat(f.format); err != nil {
				return nil, err
			}
		}
		doc, err = timeline.Read(os.Stdin, format)
	} else {
		doc, err = timeline.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	c := &doc.Config
	if f.scale != "" {
		c.Scale = f.scale
	}
	if f.start != "" {
		c.Start = f.start
	}
	if f.end != "" {
		c.End = f.end
	}
	if f.timezone != "" {
		c.Timezone = f.timezone
	}
	return doc, nil
}
