package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

// Key returns the bucket key of the s-period containing t:
//
//	millennium, century, decade, lustrum  "21"         period ordinal
//	year                                  "2024"
//	month                                 "2024/3"
//	week                                  "2024,10"    year, week number
//	day                                   "2024/3/5"
//	weekday                               "2024/3/5,2" date, weekday (0 = Sunday)
//	hour                                  "2024/3/5 14"
//	quarterHour, halfHour, minute         "2024/3/5 14:30"
//	second                                "2024/3/5 14:30:15"
//	millisecond                           "2024/3/5 14:30:15.250"
//
// Custom has no key.
func (c Calendar) Key(t time.Time, s scale.Scale) string {
	t = c.In(t)
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	switch s {
	case scale.Millennium, scale.Century, scale.Decade, scale.Lustrum:
		return strconv.Itoa(Ordinal(y, s))
	case scale.Year:
		return strconv.Itoa(y)
	case scale.Month:
		return fmt.Sprintf("%d/%d", y, m)
	case scale.Week:
		wy, w := c.Week(t)
		return fmt.Sprintf("%d,%d", wy, w)
	case scale.Day:
		return fmt.Sprintf("%d/%d/%d", y, m, d)
	case scale.Weekday:
		return fmt.Sprintf("%d/%d/%d,%d", y, m, d, t.Weekday())
	case scale.Hour:
		return fmt.Sprintf("%d/%d/%d %d", y, m, d, hh)
	case scale.QuarterHour, scale.HalfHour:
		f := c.Floor(t, s)
		return fmt.Sprintf("%d/%d/%d %d:%d", y, m, d, f.Hour(), f.Minute())
	case scale.Minute:
		return fmt.Sprintf("%d/%d/%d %d:%d", y, m, d, hh, mm)
	case scale.Second:
		return fmt.Sprintf("%d/%d/%d %d:%d:%d", y, m, d, hh, mm, ss)
	case scale.Millisecond:
		return fmt.Sprintf("%d/%d/%d %d:%d:%d.%03d", y, m, d, hh, mm, ss, t.Nanosecond()/int(time.Millisecond))
	}
	return ""
}

// ParseKey is the inverse of Key: it returns the start of the s-period the
// key names. Fields out of range for the calendar, such as month 13 or
// February 30, are a DATE_ERROR rather than rolling over. Zero padding is
// accepted.
func (c Calendar) ParseKey(key string, s scale.Scale) (time.Time, error) {
	key = strings.TrimSpace(key)
	switch s {
	case scale.Millennium, scale.Century, scale.Decade, scale.Lustrum, scale.Year:
		n, err := strconv.Atoi(key)
		if err != nil {
			return time.Time{}, errors.Wrap(errors.ErrCodeDate, err, "invalid %s key %q", s, key)
		}
		return c.Date(periodStartYear(n, s), time.January, 1, 0, 0, 0, 0), nil
	case scale.Week:
		ys, ws, ok := strings.Cut(key, ",")
		if !ok {
			return time.Time{}, errors.New(errors.ErrCodeDate, "invalid week key %q", key)
		}
		y, err1 := strconv.Atoi(strings.TrimSpace(ys))
		w, err2 := strconv.Atoi(strings.TrimSpace(ws))
		if err1 != nil || err2 != nil {
			return time.Time{}, errors.New(errors.ErrCodeDate, "invalid week key %q", key)
		}
		return c.WeekStart(y, w)
	case scale.Weekday:
		key, _, _ = strings.Cut(key, ",")
		s = scale.Day
	case scale.Custom:
		return time.Time{}, errors.New(errors.ErrCodeUnsupported, "custom scale has no bucket keys")
	}

	t, err := c.ParseString(key)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeDate, err, "invalid %s key %q", s, key)
	}
	t = c.Floor(t, s)
	if canon := c.Key(t, s); !sameFields(key, canon) {
		return time.Time{}, errors.New(errors.ErrCodeDate, "%s key %q is out of range, nearest is %q", s, key, canon)
	}
	return t, nil
}

// sameFields reports whether a and b hold the same sequence of numbers,
// ignoring separators and zero padding.
func sameFields(a, b string) bool {
	notDigit := func(r rune) bool { return r < '0' || r > '9' }
	fa, fb := strings.FieldsFunc(a, notDigit), strings.FieldsFunc(b, notDigit)
	if len(fa) != len(fb) {
		return false
	}
	for i := range fa {
		x, err1 := strconv.Atoi(fa[i])
		y, err2 := strconv.Atoi(fb[i])
		if err1 != nil || err2 != nil || x != y {
			return false
		}
	}
	return true
}
