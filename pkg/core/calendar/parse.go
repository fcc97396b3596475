package calendar

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/timeline/pkg/errors"
)

// instantPattern matches "[-]Y[/M[/D]][ H[:M[:S[.ms]]]]" with "/" or "-"
// between date fields and " " or "T" before the time.
var instantPattern = regexp.MustCompile(
	`^(-?\d+)(?:[/-](\d{1,2})(?:[/-](\d{1,2}))?)?(?:[ T](\d{1,2})(?::(\d{1,2})(?::(\d{1,2})(?:\.(\d{1,3}))?)?)?)?$`)

// maxYearDigits bounds bare digit strings read as years; longer strings are
// epoch milliseconds.
const maxYearDigits = 6

// layouts are tried in order after the numeric pattern fails.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"2006-01-02T15:04:05.000",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
}

// Parse converts v into an instant.
//
// Accepted values are time.Time, integers and floats (epoch milliseconds),
// json.Number, and strings. Strings of the form "[-]Y[/M[/D]][ H[:M[:S[.ms]]]]"
// are read field by field in the calendar's location: years are literal
// (year 50 stays 50), a leading "-" marks a negative year, and month or day
// overflow rolls into the following period. Other strings are tried against
// RFC3339 and common date layouts.
//
// Unparseable input returns a DATE_ERROR.
func (c Calendar) Parse(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, errors.New(errors.ErrCodeDate, "zero instant")
		}
		return c.In(x), nil
	case *time.Time:
		if x == nil {
			return time.Time{}, errors.New(errors.ErrCodeDate, "nil instant")
		}
		return c.Parse(*x)
	case int:
		return c.fromMillis(int64(x)), nil
	case int32:
		return c.fromMillis(int64(x)), nil
	case int64:
		return c.fromMillis(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return time.Time{}, errors.New(errors.ErrCodeDate, "epoch milliseconds %d out of range", x)
		}
		return c.fromMillis(int64(x)), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return time.Time{}, errors.New(errors.ErrCodeDate, "invalid epoch milliseconds %v", x)
		}
		return c.fromMillis(int64(math.Round(x))), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return c.fromMillis(n), nil
		}
		return c.ParseString(x.String())
	case string:
		return c.ParseString(x)
	case nil:
		return time.Time{}, errors.New(errors.ErrCodeDate, "missing instant")
	}
	return time.Time{}, errors.New(errors.ErrCodeDate, "unsupported instant type %T", v)
}

func (c Calendar) fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(c.loc())
}

// ParseString parses the string forms accepted by Parse.
func (c Calendar) ParseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New(errors.ErrCodeDate, "empty instant")
	}

	if m := instantPattern.FindStringSubmatch(s); m != nil {
		digits := strings.TrimPrefix(m[1], "-")
		if m[2] == "" && m[4] == "" && len(digits) > maxYearDigits {
			ms, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return time.Time{}, errors.Wrap(errors.ErrCodeDate, err, "unparseable instant %q", s)
			}
			return c.fromMillis(ms), nil
		}
		return c.fromFields(s, m)
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, c.loc()); err == nil {
			return c.In(t), nil
		}
	}
	return time.Time{}, errors.New(errors.ErrCodeDate, "unparseable instant %q", s)
}

func (c Calendar) fromFields(raw string, m []string) (time.Time, error) {
	field := func(i, def int) (int, error) {
		if m[i] == "" {
			return def, nil
		}
		return strconv.Atoi(m[i])
	}

	year, err := strconv.Atoi(m[1])
	if err != nil || len(strings.TrimPrefix(m[1], "-")) > maxYearDigits {
		return time.Time{}, errors.New(errors.ErrCodeDate, "unparseable year in %q", raw)
	}
	vals := make([]int, 0, 5)
	for i, def := range []int{1, 1, 0, 0, 0} {
		v, err := field(i+2, def)
		if err != nil {
			return time.Time{}, errors.Wrap(errors.ErrCodeDate, err, "unparseable instant %q", raw)
		}
		vals = append(vals, v)
	}
	month, day, hour, min, sec := vals[0], vals[1], vals[2], vals[3], vals[4]
	if month == 0 || day == 0 {
		return time.Time{}, errors.New(errors.ErrCodeDate, "month and day are 1-based in %q", raw)
	}
	if hour > 24 || min > 59 || sec > 59 {
		return time.Time{}, errors.New(errors.ErrCodeDate, "clock out of range in %q", raw)
	}
	msec := 0
	if frac := m[7]; frac != "" {
		// ".5" is 500ms, ".05" is 50ms.
		frac += strings.Repeat("0", 3-len(frac))
		msec, _ = strconv.Atoi(frac)
	}
	return c.Date(year, time.Month(month), day, hour, min, sec, msec), nil
}
