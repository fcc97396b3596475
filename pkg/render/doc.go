// Package render holds debugging renderers for timeline layouts.
//
// The [overlap] subpackage draws the overlap graph of each row through
// Graphviz.
//
// [overlap]: github.com/matzehuels/timeline/pkg/render/overlap
package render
