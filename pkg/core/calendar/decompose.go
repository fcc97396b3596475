package calendar

import (
	"time"

	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

// Bucket is one period of a decomposition, clipped to the window.
type Bucket struct {
	Key   string    `json:"key"`
	Begin time.Time `json:"begin"` // clipped start, inclusive
	End   time.Time `json:"end"`   // clipped end, exclusive
	Units float64   `json:"units"` // clipped length in base units
	Full  float64   `json:"full"`  // length of the whole period in base units
}

// Millis returns the clipped length of the bucket in milliseconds.
func (b Bucket) Millis() int64 {
	return b.End.UnixMilli() - b.Begin.UnixMilli()
}

// Decomposition is the ordered bucket list of a window at one scale.
type Decomposition struct {
	Scale   scale.Scale `json:"scale"`
	Begin   time.Time   `json:"begin"`
	End     time.Time   `json:"end"`
	Unit    scale.Unit  `json:"unit"`
	Buckets []Bucket    `json:"buckets"`

	// Delta is the raw window length in milliseconds. It is the only
	// result for scales without calendar buckets.
	Delta int64 `json:"delta"`

	// Calendar measured the buckets; Measure and Advance reuse it.
	Calendar Calendar `json:"-"`
}

// Measure returns the length of [lo, hi) in the decomposition's unit.
func (d Decomposition) Measure(lo, hi time.Time) float64 {
	return d.Calendar.Units(lo, hi, d.Unit)
}

// Advance returns the instant n units after t.
func (d Decomposition) Advance(t time.Time, n float64) time.Time {
	return d.Calendar.Advance(t, n, d.Unit)
}

// Supported reports whether the decomposition carries buckets.
func (d Decomposition) Supported() bool {
	return d.Scale.Calendar()
}

// Units returns bucket unit counts keyed by bucket key.
func (d Decomposition) Units() map[string]float64 {
	out := make(map[string]float64, len(d.Buckets))
	for _, b := range d.Buckets {
		out[b.Key] += b.Units
	}
	return out
}

// strategy drives the decomposition of one scale. Bucket boundaries come
// from the period of the bucket scale, keys from Key at that scale, and unit
// counts are measured in unit.
type strategy struct {
	bucket scale.Scale
	unit   scale.Unit
}

var strategies = func() map[scale.Scale]strategy {
	m := make(map[scale.Scale]strategy)
	for _, s := range scale.All() {
		if !s.Calendar() {
			continue
		}
		bucket := s
		if s == scale.Week || s == scale.Weekday {
			bucket = scale.Day
		}
		m[s] = strategy{bucket: bucket, unit: s.Unit()}
	}
	return m
}()

// Decompose splits [begin, end) into buckets of s. Week and weekday windows
// decompose per calendar day. The first and last buckets are clipped so that
// the bucket durations add up to end-begin.
//
// Custom has no buckets: the result carries only Delta. A window with end
// before begin is a RANGE_ERROR.
func (c Calendar) Decompose(begin, end time.Time, s scale.Scale) (Decomposition, error) {
	begin, end = c.In(begin), c.In(end)
	if end.Before(begin) {
		return Decomposition{}, errors.New(errors.ErrCodeRange, "window end %s before begin %s", end, begin)
	}
	if !s.Valid() {
		return Decomposition{}, errors.New(errors.ErrCodeConfig, "invalid scale %d", int(s))
	}

	d := Decomposition{Scale: s, Begin: begin, End: end, Delta: end.UnixMilli() - begin.UnixMilli(), Calendar: c}
	st, ok := strategies[s]
	if !ok {
		return d, nil
	}
	d.Unit = st.unit

	for cur := c.Floor(begin, st.bucket); cur.Before(end); {
		next := c.Next(cur, st.bucket)
		if !next.After(cur) {
			return Decomposition{}, errors.New(errors.ErrCodeInternal, "%s period at %s does not advance", st.bucket, cur)
		}
		lo, hi := maxTime(cur, begin), minTime(next, end)
		if hi.After(lo) {
			d.Buckets = append(d.Buckets, Bucket{
				Key:   c.Key(cur, st.bucket),
				Begin: lo,
				End:   hi,
				Units: c.Units(lo, hi, st.unit),
				Full:  c.Units(cur, next, st.unit),
			})
		}
		cur = next
	}
	return d, nil
}

// Count estimates the number of s-buckets in [begin, end) without building
// them, using the scale's fixed-length approximation.
func Count(begin, end time.Time, s scale.Scale) int {
	approx := s.ApproxMillis()
	if approx <= 0 || !end.After(begin) {
		return 0
	}
	d := end.UnixMilli() - begin.UnixMilli()
	n := d / approx
	if d%approx != 0 {
		n++
	}
	return int(n)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
