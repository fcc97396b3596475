// Package zoom maps a ruler bucket back to the narrower window it covers.
//
// A ruler bucket id has the form "scale-key", for example "month-2024/3" or
// "year--44" for 44 BC. [Resolve] splits the id on its first dash, parses
// the key into the bucket's period, and steps one level down the zoom
// ladder. The returned [Target] feeds straight into a fresh layout pass
// through [Target.Apply].
package zoom

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/timeline/pkg/core/calendar"
	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

// step is one rung of the zoom ladder.
type step struct {
	lower    scale.Scale
	minGrids int // grids the zoomed window holds at least
}

var steps = map[scale.Scale]step{
	scale.Millennium:  {scale.Century, 10},
	scale.Century:     {scale.Decade, 10},
	scale.Decade:      {scale.Lustrum, 2},
	scale.Lustrum:     {scale.Year, 5},
	scale.Year:        {scale.Month, 12},
	scale.Month:       {scale.Day, 28},
	scale.Week:        {scale.Day, 7},
	scale.Day:         {scale.Hour, 24},
	scale.Weekday:     {scale.Hour, 24},
	scale.Hour:        {scale.Minute, 60},
	scale.HalfHour:    {scale.Minute, 30},
	scale.QuarterHour: {scale.Minute, 15},
	scale.Minute:      {scale.Second, 60},
	scale.Second:      {scale.Millisecond, 1000},
}

// Options controls grid sizing of the zoomed window.
type Options struct {
	Calendar calendar.Calendar

	// Wrap grows the grid size so the zoomed window fills ViewportWidth.
	Wrap          bool
	ViewportWidth float64
	// MinGridSize is the grid size in use before zooming. The zoomed grid
	// never gets smaller.
	MinGridSize float64
}

// Target is the window a bucket zooms into. End is the last millisecond of
// the bucket.
type Target struct {
	Scale       scale.Scale `json:"scale"`
	Begin       time.Time   `json:"begin"`
	End         time.Time   `json:"end"`
	MinGridSize float64     `json:"minGridSize"`
}

// Apply returns c narrowed to the target window and scale.
func (t Target) Apply(c layout.Config) layout.Config {
	c.Scale = t.Scale
	c.Start = c.Calendar.Key(t.Begin, scale.Millisecond)
	c.End = c.Calendar.Key(t.End, scale.Millisecond)
	if t.MinGridSize > 0 {
		c.MinGridSize = t.MinGridSize
	}
	return c
}

// Split separates a bucket id into its scale and key.
func Split(id string) (scale.Scale, string, error) {
	if err := errors.ValidateBucketID(id); err != nil {
		return 0, "", err
	}
	name, key, _ := strings.Cut(id, "-")
	s, err := scale.Parse(name)
	if err != nil {
		return 0, "", errors.Wrap(errors.ErrCodeInvalidBucket, err, "bucket %q", id)
	}
	return s, key, nil
}

// Resolve returns the window and scale bucket id zooms into.
//
// Millisecond and custom buckets cannot zoom further and return a
// RANGE_ERROR. Malformed ids return INVALID_BUCKET, unparseable keys a
// DATE_ERROR.
func Resolve(id string, opts Options) (Target, error) {
	s, key, err := Split(id)
	if err != nil {
		return Target{}, err
	}
	st, ok := steps[s]
	if !ok {
		return Target{}, errors.New(errors.ErrCodeRange, "cannot zoom below %s", s)
	}

	cal := opts.Calendar
	if cal.Location == nil {
		cal = calendar.Default()
	}
	begin, next, err := bounds(cal, s, key)
	if err != nil {
		return Target{}, err
	}

	size := opts.MinGridSize
	if opts.Wrap && opts.ViewportWidth > 0 {
		size = math.Max(math.Ceil(opts.ViewportWidth/float64(st.minGrids)), opts.MinGridSize)
	}
	return Target{
		Scale:       st.lower,
		Begin:       begin,
		End:         next.Add(-time.Millisecond),
		MinGridSize: size,
	}, nil
}

// bounds returns the start of the period key names and the start of the
// following one.
func bounds(cal calendar.Calendar, s scale.Scale, key string) (begin, next time.Time, err error) {
	if s == scale.Week {
		ys, ws, ok := strings.Cut(key, ",")
		y, err1 := strconv.Atoi(strings.TrimSpace(ys))
		w, err2 := strconv.Atoi(strings.TrimSpace(ws))
		if !ok || err1 != nil || err2 != nil {
			return time.Time{}, time.Time{}, errors.New(errors.ErrCodeDate, "invalid week key %q", key)
		}
		return cal.WeekBounds(y, w)
	}
	begin, err = cal.ParseKey(key, s)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return begin, cal.Next(begin, s), nil
}
