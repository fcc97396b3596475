package layout

import (
	"strings"

	"github.com/matzehuels/timeline/pkg/errors"
)

// Alignment modes for [Align]. Any other mode is taken as an event id.
const (
	AlignLeft    = "left"
	AlignBegin   = "begin"
	AlignCenter  = "center"
	AlignRight   = "right"
	AlignEnd     = "end"
	AlignLatest  = "latest"
	AlignCurrent = "current"
)

// Align returns the horizontal scroll offset that brings mode into a
// viewport of the given width, clamped to the scrollable range.
//
// "latest" centers the event with the latest start, "current" centers the
// present time, and an event id centers that event. An unknown id is a
// NOT_FOUND error.
func Align(r Result, mode string, viewport float64) (float64, error) {
	maxScroll := r.Width - viewport
	if maxScroll < 0 {
		maxScroll = 0
	}
	center := func(x float64) float64 { return x - viewport/2 }

	var x float64
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", AlignLeft, AlignBegin:
		x = 0
	case AlignCenter:
		x = maxScroll / 2
	case AlignRight, AlignEnd:
		x = maxScroll
	case AlignLatest:
		var latest *Placement
		for i, p := range r.Placements {
			if p.Dropped {
				continue
			}
			if latest == nil || p.Start.After(latest.Start) {
				latest = &r.Placements[i]
			}
		}
		if latest == nil {
			x = maxScroll
			break
		}
		x = center(latest.Geometry.X + latest.Geometry.Width/2)
	case AlignCurrent:
		x = center(r.ToX(r.Now))
	default:
		p, ok := r.Placement(mode)
		if !ok {
			return 0, errors.New(errors.ErrCodeNotFound, "no event %q to align to", mode)
		}
		if p.Dropped {
			x = center(r.ToX(p.Start))
		} else {
			x = center(p.Geometry.X + p.Geometry.Width/2)
		}
	}

	switch {
	case x < 0:
		x = 0
	case x > maxScroll:
		x = maxScroll
	}
	return x, nil
}
