// Package overlap renders the overlap graph of a timeline as a debugging
// aid for lane allocation.
//
// Every row of the timeline becomes a cluster. Inside it each event is a
// node, every pair of overlapping events is an edge, and each parallel
// group (the transitive closure of pairwise overlaps) is a nested dashed
// cluster. A row whose groups are all singletons needs no split.
//
//	g := overlap.Build(cats, events)
//	dot := g.DOT(overlap.Options{Detailed: true})
//	svg, err := overlap.RenderSVG(ctx, dot)
//
// SVG output is produced in-process by [github.com/goccy/go-graphviz].
package overlap
