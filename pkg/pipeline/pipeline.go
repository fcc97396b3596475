// Package pipeline runs timeline documents through the layout engine with
// caching. The CLI, the browse UI and the HTTP API all go through a
// [Runner] so they share cache keys and logging.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Layout(ctx, doc)
//
//	// zoom into a ruler bucket of res
//	z, err := runner.Zoom(ctx, doc, pipeline.ZoomRequest{Bucket: "month-2024/2"})
//	next := z.Result
//
// # Caching
//
// Results are cached by the hash of the document. Documents whose window
// follows the clock ("current" start or end) also key on the clock floored
// to the period that moves the window. A cached result gets its
// present-time marker recomputed before it is returned.
package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/matzehuels/timeline/pkg/cache"
	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/core/zoom"
	"github.com/matzehuels/timeline/pkg/errors"
	"github.com/matzehuels/timeline/pkg/timeline"
)

// Options tune a single pipeline call.
type Options struct {
	// Refresh skips cache reads. The fresh result is still written.
	Refresh bool
}

// ZoomRequest selects the ruler bucket to zoom into.
type ZoomRequest struct {
	Bucket string `json:"bucket"`

	// Wrap grows the grid so the zoomed window fills ViewportWidth.
	Wrap          bool    `json:"wrap,omitempty"`
	ViewportWidth float64 `json:"viewportWidth,omitempty"`
}

// ZoomResult is the narrowed document and its layout.
type ZoomResult struct {
	Target   zoom.Target        `json:"target"`
	Document *timeline.Document `json:"document"`
	Result   layout.Result      `json:"result"`
}

// DocumentHash returns the cache hash of a document.
func DocumentHash(doc *timeline.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash document")
	}
	return cache.Hash(data), nil
}

// followsClock reports whether the window of c moves with the clock.
func followsClock(c timeline.Config) bool {
	start := strings.TrimSpace(c.Start)
	return start == "" || strings.EqualFold(start, layout.TokenCurrent) ||
		strings.EqualFold(strings.TrimSpace(c.End), layout.TokenCurrent)
}
