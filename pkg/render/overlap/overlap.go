package overlap

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/timeline/pkg/core/lane"
	"github.com/matzehuels/timeline/pkg/core/layout"
)

// LabelTime is the time format of detailed node labels.
const LabelTime = "2006-01-02 15:04:05"

// Options configures DOT output.
type Options struct {
	// Detailed adds start and end to node labels.
	Detailed bool
}

// Edge joins two overlapping events. From starts no later than To.
type Edge struct {
	From, To string
}

// Row is the overlap graph of one timeline row.
type Row struct {
	Category string
	Label    string
	// Index is the row hint of uncategorized rows.
	Index  int
	Groups [][]lane.Item
	Edges  []Edge
}

// MaxGroup returns the size of the largest parallel group.
func (r Row) MaxGroup() int {
	n := 0
	for _, g := range r.Groups {
		n = max(n, len(g))
	}
	return n
}

// Graph holds one Row per timeline row, in row order.
type Graph struct {
	Rows []Row
}

// Build groups events by row and computes overlaps and parallel groups.
// Categories are ordered as layout orders them; uncategorized events follow,
// grouped by row hint.
func Build(cats []layout.Category, events []layout.Event) Graph {
	byCat := make(map[string][]lane.Item)
	byRow := make(map[int][]lane.Item)
	for _, ev := range events {
		it := lane.Item{ID: ev.ID, Start: ev.Start, End: ev.End}
		if ev.Category != "" {
			byCat[ev.Category] = append(byCat[ev.Category], it)
			continue
		}
		byRow[max(ev.Row, 1)] = append(byRow[max(ev.Row, 1)], it)
	}

	var g Graph
	for _, c := range layout.OrderCategories(cats) {
		g.Rows = append(g.Rows, newRow(c.ID, c.Label, 0, byCat[c.ID]))
	}
	hints := make([]int, 0, len(byRow))
	for h := range byRow {
		hints = append(hints, h)
	}
	sort.Ints(hints)
	for _, h := range hints {
		g.Rows = append(g.Rows, newRow("", "", h, byRow[h]))
	}
	return g
}

func newRow(cat, label string, index int, items []lane.Item) Row {
	r := Row{Category: cat, Label: label, Index: index, Groups: lane.Groups(items)}
	for _, group := range r.Groups {
		for i, a := range group {
			for _, b := range group[i+1:] {
				if a.Overlaps(b) {
					r.Edges = append(r.Edges, Edge{From: a.ID, To: b.ID})
				}
			}
		}
	}
	return r
}

func (r Row) name() string {
	if r.Category != "" {
		return r.Category
	}
	return fmt.Sprintf("row %d", r.Index)
}

func (r Row) title() string {
	if r.Label != "" {
		return r.Label
	}
	return r.name()
}

// DOT returns the graph as undirected Graphviz source.
func (g Graph) DOT(opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph overlaps {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")

	for ri, r := range g.Rows {
		fmt.Fprintf(&buf, "\n  subgraph \"cluster_%d\" {\n", ri)
		fmt.Fprintf(&buf, "    label=%q;\n", r.title())
		for gi, group := range r.Groups {
			indent := "    "
			if len(group) > 1 {
				fmt.Fprintf(&buf, "    subgraph \"cluster_%d_%d\" {\n", ri, gi)
				fmt.Fprintf(&buf, "      label=%q;\n", fmt.Sprintf("parallel x%d", len(group)))
				buf.WriteString("      style=dashed;\n")
				indent = "      "
			}
			for _, it := range group {
				fmt.Fprintf(&buf, "%s%q [label=%q];\n", indent, it.ID, label(it, opts.Detailed))
			}
			if len(group) > 1 {
				buf.WriteString("    }\n")
			}
		}
		for _, e := range r.Edges {
			fmt.Fprintf(&buf, "    %q -- %q;\n", e.From, e.To)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(it lane.Item, detailed bool) string {
	if !detailed {
		return it.ID
	}
	parts := []string{it.ID, it.Start.Format(LabelTime)}
	if it.End.After(it.Start) {
		parts = append(parts, it.End.Format(LabelTime))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
