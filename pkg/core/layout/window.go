package layout

import (
	"time"

	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

// Window is a resolved layout window. End is the last millisecond inside
// the window.
type Window struct {
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// Next returns the first instant after the window.
func (w Window) Next() time.Time {
	return w.End.Add(time.Millisecond)
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Begin) && !t.After(w.End)
}

// WindowUnit returns the period a window boundary is snapped to at s.
func WindowUnit(s scale.Scale) scale.Scale {
	switch s {
	case scale.Millennium, scale.Century, scale.Decade, scale.Lustrum, scale.Year:
		return scale.Year
	case scale.Week, scale.Day, scale.Weekday:
		return scale.Day
	case scale.QuarterHour, scale.HalfHour, scale.Hour:
		return scale.Hour
	}
	return s
}

// autoScale returns the scale an "auto" end steps in.
func autoScale(s scale.Scale) scale.Scale {
	switch s {
	case scale.Day, scale.Weekday, scale.Week:
		return scale.Month
	}
	return scale.Higher(s)
}

// ResolveWindow turns the start and end tokens of c into a window. The
// start is floored to the window unit of c.Scale and the end is extended to
// the last millisecond of its unit.
func ResolveWindow(c Config) (Window, error) {
	cal := c.Calendar
	unit := WindowUnit(c.Scale)

	var start time.Time
	if isCurrent(c.Start) {
		start = c.now()
	} else {
		t, err := cal.Parse(c.Start)
		if err != nil {
			return Window{}, errors.Wrap(errors.ErrCodeDate, err, "resolve window start")
		}
		start = t
	}
	begin := cal.Floor(start, unit)

	var end time.Time
	switch {
	case isAuto(c.End):
		if c.Range < 1 {
			return Window{}, errors.New(errors.ErrCodeConfig, "auto range must be at least 1, got %d", c.Range)
		}
		end = cal.Shift(begin, autoScale(c.Scale), c.Range).Add(-time.Millisecond)
	case isCurrent(c.End):
		end = c.now()
	default:
		t, err := cal.Parse(c.End)
		if err != nil {
			return Window{}, errors.Wrap(errors.ErrCodeDate, err, "resolve window end")
		}
		end = t
	}
	last := cal.Last(end, unit)

	if last.Before(begin) {
		return Window{}, errors.New(errors.ErrCodeConfig, "window end %s before start %s",
			last.Format(time.RFC3339), begin.Format(time.RFC3339))
	}
	return Window{Begin: begin, End: last}, nil
}
