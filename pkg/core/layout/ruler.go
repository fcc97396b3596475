package layout

import (
	"github.com/matzehuels/timeline/pkg/core/calendar"
	"github.com/matzehuels/timeline/pkg/core/coord"
	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

// BucketID joins a scale and a bucket key into a ruler bucket id.
func BucketID(s scale.Scale, key string) string {
	return s.String() + "-" + key
}

// buildRuler computes the configured ruler lines. Lines at or above the grid
// scale regroup the grid buckets; finer lines get their own decomposition
// mapped through m.
func buildRuler(c Config, w Window, m *coord.Mapper) ([]RulerLine, error) {
	top, bottom := c.Ruler.Top, c.Ruler.Bottom
	if len(top) == 0 && len(bottom) == 0 {
		top = []scale.Scale{c.Scale}
	}

	var out []RulerLine
	for _, side := range []struct {
		position string
		scales   []scale.Scale
	}{{"top", top}, {"bottom", bottom}} {
		for _, s := range side.scales {
			if c.Ruler.TruncateLowers && s.Less(c.Scale) {
				continue
			}
			buckets, err := rulerBuckets(c, w, m, s)
			if err != nil {
				return nil, err
			}
			out = append(out, RulerLine{Position: side.position, Scale: s, Buckets: buckets})
			if s == scale.QuarterHour || s == scale.HalfHour {
				break
			}
		}
	}
	return out, nil
}

func rulerBuckets(c Config, w Window, m *coord.Mapper, s scale.Scale) ([]RulerBucket, error) {
	cal := c.Calendar
	if !s.Less(c.Scale) || sameGrid(s, c.Scale) {
		return fromGrid(m.Regroup(cal, s), s), nil
	}

	if !c.DisableLimiter {
		if limit, ok := c.Limits.Of(s); ok {
			if n := calendar.Count(w.Begin, w.Next(), s); n > limit {
				return nil, errors.New(errors.ErrCodeRange,
					"ruler line %s needs %d buckets, limit is %d", s, n, limit)
			}
		}
	}
	d, err := cal.Decompose(w.Begin, w.Next(), s)
	if err != nil {
		return nil, err
	}
	out := make([]RulerBucket, 0, len(d.Buckets))
	for _, b := range d.Buckets {
		x, width := m.Span(b.Begin, b.End)
		key := cal.Key(b.Begin, s)
		out = append(out, RulerBucket{ID: BucketID(s, key), Key: key, Begin: b.Begin, End: b.End, X: x, Width: width})
	}
	return mergeRuler(out), nil
}

// sameGrid reports whether line scale s shares the grid buckets of the
// layout scale: week and weekday grids are per day.
func sameGrid(s, layout scale.Scale) bool {
	switch layout {
	case scale.Week, scale.Weekday:
		return s == scale.Day || s == scale.Weekday
	}
	return false
}

func fromGrid(grid []coord.GridBucket, s scale.Scale) []RulerBucket {
	out := make([]RulerBucket, len(grid))
	for i, b := range grid {
		out[i] = RulerBucket{ID: BucketID(s, b.Key), Key: b.Key, Begin: b.Begin, End: b.End, X: b.X, Width: b.Width}
	}
	return out
}

// mergeRuler joins consecutive buckets sharing a key. Week lines decompose
// per day, so their days merge into weeks here.
func mergeRuler(in []RulerBucket) []RulerBucket {
	var out []RulerBucket
	for _, b := range in {
		if n := len(out); n > 0 && out[n-1].Key == b.Key {
			out[n-1].End = b.End
			out[n-1].Width = coord.Round2(out[n-1].Width + b.Width)
			continue
		}
		out = append(out, b)
	}
	return out
}
