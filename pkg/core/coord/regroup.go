package coord

import (
	"github.com/matzehuels/timeline/pkg/core/calendar"
	"github.com/matzehuels/timeline/pkg/core/scale"
)

// Regroup maps the grid buckets onto a ruler line at scale line. Each bucket
// is keyed by the line period containing its begin; consecutive buckets with
// the same key merge and their widths add up.
//
// Regrouping at a finer scale than the grid yields the grid itself, keyed at
// the line scale.
func (m *Mapper) Regroup(cal calendar.Calendar, line scale.Scale) []GridBucket {
	var out []GridBucket
	for _, b := range m.buckets {
		key := cal.Key(b.Begin, line)
		if n := len(out); n > 0 && out[n-1].Key == key {
			out[n-1].End = b.End
			out[n-1].Width = Round2(out[n-1].Width + b.Width)
			continue
		}
		b.Key = key
		out = append(out, b)
	}
	return out
}
