// Package scale defines the calendar granularities a timeline can be laid
// out at.
//
// A [Scale] is a closed variant. Its per-variant properties (approximate
// duration, the base unit bucket sizes are counted in, grid limits) live in
// lookup tables indexed by the variant rather than in switch statements, so
// every consumer iterates the same data.
//
// The hierarchy used by [Higher] and [Lower] is
//
//	millisecond < second < minute < hour < day < week < month < year
//	            < lustrum < decade < century < millennium
//
// with quarterHour and halfHour between minute and hour, weekday behaving
// like day, and custom standing outside the order.
package scale

import (
	"strings"
	"time"

	"github.com/matzehuels/timeline/pkg/errors"
)

// Scale is a calendar granularity.
type Scale int

// Scale values in ascending order of coarseness. Custom sorts last but is
// not part of the hierarchy.
const (
	Millisecond Scale = iota
	Second
	Minute
	QuarterHour
	HalfHour
	Hour
	Day
	Weekday
	Week
	Month
	Year
	Lustrum
	Decade
	Century
	Millennium
	Custom
)

// Millisecond lengths. Nothing here is a time.Duration: a millennium of
// nanoseconds does not fit in one.
const (
	msSecond = int64(1000)
	msMinute = 60 * msSecond
	msHour   = 60 * msMinute
	msDay    = 24 * msHour
	msYear   = 365*msDay + 6*msHour // 365.25 days, estimates only
)

// Unit is the base unit bucket lengths are counted in, as a number of
// milliseconds. [CalendarYears] has no fixed length: it counts calendar
// years, with partial years prorated over the length of that year.
type Unit int64

// CalendarYears is the base unit of century and millennium.
const CalendarYears Unit = -1

// Millis returns the fixed length of u, or 0 for calendar years.
func (u Unit) Millis() int64 {
	if u < 0 {
		return 0
	}
	return int64(u)
}

// String returns "years" for calendar years and a duration such as "1h0m0s"
// otherwise.
func (u Unit) String() string {
	if u == CalendarYears {
		return "years"
	}
	return (time.Duration(u) * time.Millisecond).String()
}

type info struct {
	name   string
	approx int64 // fixed-length estimate in ms, used by the limiter
	unit   Unit  // unit that bucket unit counts are expressed in
	limit  int   // default maximum grid count, 0 = unlimited
	fixed  bool  // constant grid size, no calendar decomposition
}

var table = [...]info{
	Millisecond: {"millisecond", 1, 1, 1000, true},
	Second:      {"second", msSecond, 1, 900, false},
	Minute:      {"minute", msMinute, Unit(msSecond), 720, false},
	QuarterHour: {"quarterHour", 15 * msMinute, Unit(15 * msMinute), 720, true},
	HalfHour:    {"halfHour", 30 * msMinute, Unit(30 * msMinute), 720, true},
	Hour:        {"hour", msHour, Unit(msMinute), 720, false},
	Day:         {"day", msDay, Unit(msHour), 366, false},
	Weekday:     {"weekday", msDay, Unit(msHour), 366, false},
	Week:        {"week", 7 * msDay, Unit(msHour), 530, false},
	Month:       {"month", 2630016000, Unit(msDay), 540, false}, // 30.44 days
	Year:        {"year", msYear, Unit(msDay), 500, false},
	Lustrum:     {"lustrum", 5 * msYear, Unit(msDay), 500, false},
	Decade:      {"decade", 10 * msYear, Unit(msDay), 500, false},
	Century:     {"century", 100 * msYear, CalendarYears, 500, false},
	Millennium:  {"millennium", 1000 * msYear, CalendarYears, 100, false},
	Custom:      {"custom", 0, 0, 0, false},
}

// hierarchy is the zoom ladder Higher and Lower walk.
var hierarchy = []Scale{
	Millisecond, Second, Minute, Hour, Day, Week, Month, Year,
	Lustrum, Decade, Century, Millennium,
}

// All returns every scale in ascending order, custom last.
func All() []Scale {
	out := make([]Scale, 0, len(table))
	for s := range table {
		out = append(out, Scale(s))
	}
	return out
}

// Valid reports whether s is a known variant.
func (s Scale) Valid() bool {
	return s >= Millisecond && s <= Custom
}

// String returns the canonical name used in bucket ids and documents.
func (s Scale) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return table[s].name
}

// ApproxMillis returns the fixed-length estimate of one unit of s in
// milliseconds.
func (s Scale) ApproxMillis() int64 {
	if !s.Valid() {
		return 0
	}
	return table[s].approx
}

// Unit returns the unit bucket unit counts are expressed in: calendar years
// for century and millennium, days for the rest of the year family and
// months, hours for day-sized buckets, and so on down to milliseconds.
func (s Scale) Unit() Unit {
	if !s.Valid() {
		return 0
	}
	return table[s].unit
}

// Fixed reports whether s uses a constant grid size.
func (s Scale) Fixed() bool {
	return s.Valid() && table[s].fixed
}

// Calendar reports whether s can be decomposed against a calendar.
func (s Scale) Calendar() bool {
	return s.Valid() && s != Custom
}

// Less reports whether s is finer than t. Weekday ranks with day.
func (s Scale) Less(t Scale) bool {
	return s.rank() < t.rank()
}

func (s Scale) rank() int {
	if s == Weekday {
		return int(Day)
	}
	return int(s)
}

// Higher returns the next coarser scale in the hierarchy, clamped at
// millennium.
func Higher(s Scale) Scale {
	switch s {
	case QuarterHour, HalfHour:
		return Hour
	case Weekday:
		s = Day
	case Custom:
		return Custom
	}
	i := indexOf(s)
	if i < 0 || i == len(hierarchy)-1 {
		return s
	}
	return hierarchy[i+1]
}

// Lower returns the next finer scale in the hierarchy, clamped at
// millisecond.
func Lower(s Scale) Scale {
	switch s {
	case QuarterHour, HalfHour:
		return Minute
	case Weekday:
		s = Day
	case Custom:
		return Custom
	}
	i := indexOf(s)
	if i <= 0 {
		return s
	}
	return hierarchy[i-1]
}

// LowerAll returns every hierarchy scale finer than s, coarsest first.
func LowerAll(s Scale) []Scale {
	var out []Scale
	for t := Lower(s); t != s; t = Lower(t) {
		out = append(out, t)
		s = t
	}
	return out
}

func indexOf(s Scale) int {
	for i, h := range hierarchy {
		if h == s {
			return i
		}
	}
	return -1
}

// Parse resolves a scale name. Matching is case-insensitive and accepts the
// dashed spellings "quarter-hour" and "half-hour".
func Parse(name string) (Scale, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "", "_", "", " ", "").Replace(n)
	for s := range table {
		if strings.ToLower(table[s].name) == n {
			return Scale(s), nil
		}
	}
	return 0, errors.New(errors.ErrCodeConfig, "unknown scale %q", name)
}

// MustParse is like Parse but panics on unknown names. Intended for
// constants in tests and examples.
func MustParse(name string) Scale {
	s, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (s Scale) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.New(errors.ErrCodeConfig, "invalid scale %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scale) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Limits maps scales to their maximum renderable grid count.
type Limits map[Scale]int

// DefaultLimits returns a fresh copy of the built-in limits.
func DefaultLimits() Limits {
	l := make(Limits, len(table))
	for s, in := range table {
		if in.limit > 0 {
			l[Scale(s)] = in.limit
		}
	}
	return l
}

// Of returns the limit for s. Overrides in l win over the defaults; a
// missing entry falls back to the built-in limit. ok is false when s has no
// limit at all.
func (l Limits) Of(s Scale) (limit int, ok bool) {
	if v, found := l[s]; found && v > 0 {
		return v, true
	}
	if s.Valid() && table[s].limit > 0 {
		return table[s].limit, true
	}
	return 0, false
}
