// Package calendar implements calendar-correct period arithmetic for the
// timeline scales: flooring an instant to its period, stepping to the next
// period, shifting by whole units, week numbering, and decomposing a window
// into per-period buckets.
//
// All arithmetic happens in the [Calendar]'s location so that month lengths,
// leap years and daylight-saving transitions follow the wall clock of that
// location. Instants carry millisecond precision.
//
// # Periods
//
// The year family is ordinal: millennium k covers the years
// (k-1)*1000+1 through k*1000, and century, decade and lustrum follow the
// same rule with periods of 100, 10 and 5 years. Weeks start on the
// calendar's FirstDayOfWeek.
//
// # Decomposition
//
// [Calendar.Decompose] splits a window into buckets whose unit counts are
// expressed in the scale's base unit (see [scale.Scale.Unit] and
// [Calendar.Units]). The first and
// last buckets are clipped to the window, so the buckets cover it exactly
// once.
package calendar

import (
	"math"
	"time"

	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

// DefaultFirstDayOfWeek is Monday.
const DefaultFirstDayOfWeek = time.Monday

// Calendar holds the location and week convention period math runs in.
// The zero value uses UTC and Sunday-started weeks; use [New] for the
// defaults.
type Calendar struct {
	Location       *time.Location
	FirstDayOfWeek time.Weekday
}

// New returns a calendar in loc with the given first day of the week.
// A nil location means UTC.
func New(loc *time.Location, firstDay time.Weekday) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Location: loc, FirstDayOfWeek: firstDay % 7}
}

// Default returns a UTC calendar with Monday-started weeks.
func Default() Calendar {
	return New(time.UTC, DefaultFirstDayOfWeek)
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// In converts t into the calendar's location, truncated to milliseconds.
func (c Calendar) In(t time.Time) time.Time {
	return t.In(c.loc()).Truncate(time.Millisecond)
}

// Date builds an instant from wall-clock fields in the calendar's location.
// Out-of-range fields normalise the way [time.Date] does.
func (c Calendar) Date(year int, month time.Month, day, hour, min, sec, msec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, msec*int(time.Millisecond), c.loc())
}

// DaysInMonth returns the number of days of the given month.
func (c Calendar) DaysInMonth(year int, month time.Month) int {
	return c.Date(year, month+1, 0, 0, 0, 0, 0).Day()
}

// DaysInYear returns the sum of the twelve month lengths of year.
func (c Calendar) DaysInYear(year int) int {
	n := 0
	for m := time.January; m <= time.December; m++ {
		n += c.DaysInMonth(year, m)
	}
	return n
}

// IsLeap reports whether year has 366 days.
func (c Calendar) IsLeap(year int) bool {
	return c.DaysInYear(year) == 366
}

// periodYears returns the length in years of the year-family scales.
func periodYears(s scale.Scale) int {
	switch s {
	case scale.Millennium:
		return 1000
	case scale.Century:
		return 100
	case scale.Decade:
		return 10
	case scale.Lustrum:
		return 5
	case scale.Year:
		return 1
	}
	return 0
}

// ceilDiv returns ceil(y/p) for p > 0.
func ceilDiv(y, p int) int {
	q := y / p
	if y%p != 0 && y > 0 {
		q++
	}
	return q
}

// Ordinal returns the 1-based period number of year for a year-family scale,
// e.g. 21 for the century containing 2024.
func Ordinal(year int, s scale.Scale) int {
	p := periodYears(s)
	if p <= 1 {
		return year
	}
	return ceilDiv(year, p)
}

// periodStartYear is the inverse of Ordinal.
func periodStartYear(ordinal int, s scale.Scale) int {
	p := periodYears(s)
	if p <= 1 {
		return ordinal
	}
	return (ordinal-1)*p + 1
}

// Floor returns the start of the s-period containing t. Periods of an hour
// and finer are floored on absolute time, so both occurrences of a repeated
// wall-clock hour at a daylight-saving fall-back floor to themselves.
func (c Calendar) Floor(t time.Time, s scale.Scale) time.Time {
	t = c.In(t)
	y, m, d := t.Date()
	_, mm, ss := t.Clock()
	sub := time.Duration(ss)*time.Second + time.Duration(t.Nanosecond())
	switch s {
	case scale.Millennium, scale.Century, scale.Decade, scale.Lustrum, scale.Year:
		return c.Date(periodStartYear(Ordinal(y, s), s), time.January, 1, 0, 0, 0, 0)
	case scale.Month:
		return c.Date(y, m, 1, 0, 0, 0, 0)
	case scale.Week:
		back := (int(t.Weekday()) - int(c.FirstDayOfWeek) + 7) % 7
		return c.Date(y, m, d-back, 0, 0, 0, 0)
	case scale.Day, scale.Weekday:
		return c.Date(y, m, d, 0, 0, 0, 0)
	case scale.Hour:
		return t.Add(-time.Duration(mm)*time.Minute - sub)
	case scale.HalfHour:
		return t.Add(-time.Duration(mm%30)*time.Minute - sub)
	case scale.QuarterHour:
		return t.Add(-time.Duration(mm%15)*time.Minute - sub)
	case scale.Minute:
		return t.Add(-sub)
	case scale.Second:
		return t.Add(-time.Duration(t.Nanosecond()))
	}
	return t
}

// Next returns the start of the s-period following the one containing t.
func (c Calendar) Next(t time.Time, s scale.Scale) time.Time {
	return c.Shift(c.Floor(t, s), s, 1)
}

// Last returns the final millisecond of the s-period containing t.
func (c Calendar) Last(t time.Time, s scale.Scale) time.Time {
	return c.Next(t, s).Add(-time.Millisecond)
}

// Shift moves t by n units of s. The year family, months, weeks and days
// shift on the calendar; hours and finer shift by their fixed duration.
// Custom leaves t unchanged.
func (c Calendar) Shift(t time.Time, s scale.Scale, n int) time.Time {
	t = c.In(t)
	switch s {
	case scale.Millennium, scale.Century, scale.Decade, scale.Lustrum, scale.Year:
		return t.AddDate(n*periodYears(s), 0, 0)
	case scale.Month:
		return t.AddDate(0, n, 0)
	case scale.Week:
		return t.AddDate(0, 0, 7*n)
	case scale.Day, scale.Weekday:
		return t.AddDate(0, 0, n)
	case scale.Custom:
		return t
	}
	return t.Add(time.Duration(n) * time.Duration(s.ApproxMillis()) * time.Millisecond)
}

// yearPos splits t into its calendar year and the elapsed fraction of it.
func (c Calendar) yearPos(t time.Time) (year int, frac float64) {
	t = c.In(t)
	year = t.Year()
	start := c.Date(year, time.January, 1, 0, 0, 0, 0).UnixMilli()
	next := c.Date(year+1, time.January, 1, 0, 0, 0, 0).UnixMilli()
	return year, float64(t.UnixMilli()-start) / float64(next-start)
}

// Units measures [lo, hi) in u. Fixed units divide the millisecond
// difference; calendar years count whole years and prorate the partial
// ones over the length of their own year. hi before lo gives a negative
// count.
func (c Calendar) Units(lo, hi time.Time, u scale.Unit) float64 {
	if u == scale.CalendarYears {
		ly, lf := c.yearPos(lo)
		hy, hf := c.yearPos(hi)
		return float64(hy-ly) + hf - lf
	}
	if u.Millis() <= 0 {
		return 0
	}
	return float64(hi.UnixMilli()-lo.UnixMilli()) / float64(u.Millis())
}

// Advance returns the instant n units of u after t, rounded to the
// millisecond. It is the inverse of Units.
func (c Calendar) Advance(t time.Time, n float64, u scale.Unit) time.Time {
	var ms int64
	if u == scale.CalendarYears {
		y, f := c.yearPos(t)
		whole := math.Floor(f + n)
		year := y + int(whole)
		start := c.Date(year, time.January, 1, 0, 0, 0, 0).UnixMilli()
		next := c.Date(year+1, time.January, 1, 0, 0, 0, 0).UnixMilli()
		ms = start + int64(math.Round((f+n-whole)*float64(next-start)))
	} else {
		ms = c.In(t).UnixMilli() + int64(math.Round(n*float64(u.Millis())))
	}
	return time.UnixMilli(ms).In(c.loc())
}

// weekOffset returns the day-of-year offset (0-based from Jan 1) of the
// first week start strictly after Jan 1.
func (c Calendar) weekOffset(year int) int {
	jan1 := c.Date(year, time.January, 1, 0, 0, 0, 0)
	off := (int(c.FirstDayOfWeek) - int(jan1.Weekday()) + 7) % 7
	if off == 0 {
		off = 7
	}
	return off
}

// Week returns the year and 1-based week number of t. Week 1 starts on
// Jan 1; every later week starts on FirstDayOfWeek.
func (c Calendar) Week(t time.Time) (year, week int) {
	t = c.In(t)
	year = t.Year()
	days := t.YearDay() - 1
	off := c.weekOffset(year)
	if days < off {
		return year, 1
	}
	return year, 2 + (days-off)/7
}

// WeekStart returns the first day of the given week of year.
func (c Calendar) WeekStart(year, week int) (time.Time, error) {
	if week < 1 {
		return time.Time{}, errors.New(errors.ErrCodeDate, "week %d of %d out of range", week, year)
	}
	jan1 := c.Date(year, time.January, 1, 0, 0, 0, 0)
	if week == 1 {
		return jan1, nil
	}
	start := c.Date(year, time.January, 1+c.weekOffset(year)+(week-2)*7, 0, 0, 0, 0)
	if start.Year() != year {
		return time.Time{}, errors.New(errors.ErrCodeDate, "week %d of %d out of range", week, year)
	}
	return start, nil
}

// WeekBounds returns the start of the given week and the start of the one
// after it. The last week of a year ends on Jan 1 of the next year.
func (c Calendar) WeekBounds(year, week int) (begin, next time.Time, err error) {
	begin, err = c.WeekStart(year, week)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	next, err = c.WeekStart(year, week+1)
	if err != nil {
		next = c.Date(year+1, time.January, 1, 0, 0, 0, 0)
	}
	return begin, next, nil
}
