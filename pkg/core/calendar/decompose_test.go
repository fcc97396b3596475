package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

func TestDecomposeMonthLeapYear(t *testing.T) {
	c := Default()
	d, err := c.Decompose(utc(2024, 1, 1, 0, 0, 0), utc(2024, 4, 1, 0, 0, 0), scale.Month)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"2024/1": 31, "2024/2": 29, "2024/3": 31}
	if diff := cmp.Diff(want, d.Units()); diff != "" {
		t.Errorf("units mismatch (-want +got):\n%s", diff)
	}

	var keys []string
	total := 0.0
	for _, b := range d.Buckets {
		keys = append(keys, b.Key)
		total += b.Units
	}
	if diff := cmp.Diff([]string{"2024/1", "2024/2", "2024/3"}, keys); diff != "" {
		t.Errorf("bucket order mismatch (-want +got):\n%s", diff)
	}
	if total != 91 {
		t.Errorf("total days = %v, want 91", total)
	}
}

func TestDecomposeClipsEdges(t *testing.T) {
	c := Default()
	d, err := c.Decompose(utc(2024, 3, 5, 10, 30, 0), utc(2024, 3, 5, 13, 15, 0), scale.Hour)
	if err != nil {
		t.Fatal(err)
	}
	type kv struct {
		Key   string
		Units float64
		Full  float64
	}
	var got []kv
	for _, b := range d.Buckets {
		got = append(got, kv{b.Key, b.Units, b.Full})
	}
	want := []kv{
		{"2024/3/5 10", 30, 60},
		{"2024/3/5 11", 60, 60},
		{"2024/3/5 12", 60, 60},
		{"2024/3/5 13", 15, 60},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
}

func TestDecomposeCoversWindowExactly(t *testing.T) {
	c := Default()
	windows := []struct {
		begin, end time.Time
	}{
		{utc(2024, 1, 1, 0, 0, 0), utc(2024, 4, 1, 0, 0, 0)},
		{utc(1999, 12, 31, 23, 59, 59), utc(2001, 3, 1, 7, 0, 0)},
		{utc(2024, 2, 28, 6, 0, 0), utc(2024, 3, 2, 18, 0, 0)},
		{utc(2023, 12, 31, 23, 0, 0), utc(2024, 1, 1, 1, 0, 0).Add(-time.Millisecond)},
		{utc(1850, 6, 1, 0, 0, 0), utc(2150, 6, 1, 0, 0, 0)},
	}
	scales := []scale.Scale{
		scale.Century, scale.Decade, scale.Lustrum, scale.Year, scale.Month,
		scale.Week, scale.Day, scale.Weekday, scale.Hour,
	}
	for _, w := range windows {
		for _, s := range scales {
			if Count(w.begin, w.end, s) > 5000 {
				continue
			}
			d, err := c.Decompose(w.begin, w.end, s)
			if err != nil {
				t.Fatalf("Decompose(%v) error: %v", s, err)
			}
			var sum int64
			prev := w.begin
			for i, b := range d.Buckets {
				if !b.Begin.Equal(prev) {
					t.Errorf("%v bucket %d (%s) begins at %v, want %v", s, i, b.Key, b.Begin, prev)
				}
				prev = b.End
				sum += b.Millis()
			}
			if !prev.Equal(w.end) {
				t.Errorf("%v last bucket ends at %v, want %v", s, prev, w.end)
			}
			if want := w.end.UnixMilli() - w.begin.UnixMilli(); sum != want || d.Delta != want {
				t.Errorf("%v coverage = %dms, delta %dms, want %dms", s, sum, d.Delta, want)
			}
		}
	}
}

func TestDecomposeWeekIsPerDay(t *testing.T) {
	c := Default()
	d, err := c.Decompose(utc(2024, 3, 4, 0, 0, 0), utc(2024, 3, 18, 0, 0, 0), scale.Week)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Buckets) != 14 {
		t.Fatalf("week decomposition has %d buckets, want 14 days", len(d.Buckets))
	}
	if d.Buckets[0].Key != "2024/3/4" || d.Buckets[0].Units != 24 {
		t.Errorf("first bucket = %+v", d.Buckets[0])
	}
	if d.Unit != scale.Day.Unit() || d.Unit.Millis() != 3600000 {
		t.Errorf("unit = %v, want 1h", d.Unit)
	}
}

func TestDecomposeDaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	c := New(loc, time.Monday)
	begin := c.Date(2024, 3, 30, 0, 0, 0, 0)
	end := c.Date(2024, 4, 1, 0, 0, 0, 0)
	d, err := c.Decompose(begin, end, scale.Day)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"2024/3/30": 24, "2024/3/31": 23}
	if diff := cmp.Diff(want, d.Units()); diff != "" {
		t.Errorf("DST day lengths mismatch (-want +got):\n%s", diff)
	}
}

func TestDecomposeDaylightSavingFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	c := New(loc, time.Sunday)
	begin := c.Date(2024, 11, 3, 0, 0, 0, 0)
	end := c.Date(2024, 11, 3, 4, 0, 0, 0)

	// 01:00 happens twice; both hours are separate buckets with one key.
	d, err := c.Decompose(begin, end, scale.Hour)
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, b := range d.Buckets {
		keys = append(keys, b.Key)
		if b.Units != 60 || b.Full != 60 {
			t.Errorf("hour %s = %v/%v minutes, want 60/60", b.Key, b.Units, b.Full)
		}
	}
	want := []string{"2024/11/3 0", "2024/11/3 1", "2024/11/3 1", "2024/11/3 2", "2024/11/3 3"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("fall-back hours mismatch (-want +got):\n%s", diff)
	}

	second := d.Buckets[2].Begin
	if got := c.Floor(second.Add(30*time.Minute), scale.Hour); !got.Equal(second) {
		t.Errorf("Floor(second 01:30) = %v, want %v", got, second)
	}
	for _, s := range []scale.Scale{scale.HalfHour, scale.QuarterHour, scale.Minute} {
		if _, err := c.Decompose(begin, end, s); err != nil {
			t.Errorf("Decompose(%v) error: %v", s, err)
		}
	}

	d, err = c.Decompose(begin, c.Date(2024, 11, 4, 0, 0, 0, 0), scale.Day)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Units()["2024/11/3"]; got != 25 {
		t.Errorf("fall-back day = %v hours, want 25", got)
	}
}

func TestDecomposeCenturyCountsYears(t *testing.T) {
	c := Default()
	d, err := c.Decompose(utc(1801, 1, 1, 0, 0, 0), utc(2101, 1, 1, 0, 0, 0), scale.Century)
	if err != nil {
		t.Fatal(err)
	}
	if d.Unit != scale.CalendarYears {
		t.Errorf("unit = %v, want years", d.Unit)
	}
	want := map[string]float64{"19": 100, "20": 100, "21": 100}
	if diff := cmp.Diff(want, d.Units()); diff != "" {
		t.Errorf("century units mismatch (-want +got):\n%s", diff)
	}
	for _, b := range d.Buckets {
		if b.Full != 100 {
			t.Errorf("century %s full = %v, want 100", b.Key, b.Full)
		}
	}

	// Clipped edges prorate over their own year.
	d, err = c.Decompose(utc(1950, 7, 2, 12, 0, 0), utc(2001, 1, 1, 0, 0, 0), scale.Century)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Buckets[0].Units; got != 50.5 {
		t.Errorf("clipped century = %v years, want 50.5", got)
	}
}

func TestDecomposeMillennia(t *testing.T) {
	c := Default()
	begin, end := utc(1, 1, 1, 0, 0, 0), utc(3001, 1, 1, 0, 0, 0)
	d, err := c.Decompose(begin, end, scale.Millennium)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"1": 1000, "2": 1000, "3": 1000}
	if diff := cmp.Diff(want, d.Units()); diff != "" {
		t.Errorf("millennium units mismatch (-want +got):\n%s", diff)
	}
	if got := Count(begin, end, scale.Millennium); got != 3 {
		t.Errorf("Count(3000y, millennium) = %d, want 3", got)
	}
	if got := Count(begin, end, scale.Year); got != 3000 {
		t.Errorf("Count(3000y, year) = %d, want 3000", got)
	}
}

func TestUnitsAndAdvance(t *testing.T) {
	c := Default()
	lo := utc(1500, 3, 1, 0, 0, 0)
	hi := utc(2500, 3, 1, 0, 0, 0)
	days := c.Units(lo, hi, scale.Month.Unit())
	if days != float64(hi.UnixMilli()-lo.UnixMilli())/86400000 {
		t.Errorf("Units over 1000 years = %v days", days)
	}
	if got := c.Advance(lo, days, scale.Month.Unit()); !got.Equal(hi) {
		t.Errorf("Advance(%v days) = %v, want %v", days, got, hi)
	}

	years := c.Units(lo, hi, scale.CalendarYears)
	if years < 999.99 || years > 1000.01 {
		t.Errorf("Units(years) = %v, want about 1000", years)
	}
	if got := c.Advance(lo, years, scale.CalendarYears); !got.Equal(hi) {
		t.Errorf("Advance(%v years) = %v, want %v", years, got, hi)
	}
	if got := c.Advance(utc(2023, 1, 1, 0, 0, 0), 1.5, scale.CalendarYears); !got.Equal(utc(2024, 7, 2, 0, 0, 0)) {
		t.Errorf("Advance(1.5 years) = %v, want 2024-07-02", got)
	}
}

func TestDecomposeYearFamily(t *testing.T) {
	c := Default()
	d, err := c.Decompose(utc(2001, 1, 1, 0, 0, 0), utc(2011, 1, 1, 0, 0, 0), scale.Year)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range d.Buckets {
		year := b.Begin.Year()
		if int(b.Units) != c.DaysInYear(year) {
			t.Errorf("year %s has %v days, want %d", b.Key, b.Units, c.DaysInYear(year))
		}
	}

	d, err = c.Decompose(utc(2024, 1, 1, 0, 0, 0), utc(2041, 1, 1, 0, 0, 0), scale.Decade)
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, b := range d.Buckets {
		keys = append(keys, b.Key)
	}
	if diff := cmp.Diff([]string{"203", "204"}, keys); diff != "" {
		t.Errorf("decade keys mismatch (-want +got):\n%s", diff)
	}
	// 2024..2030 is clipped: 7 years, two of them leap.
	if got := d.Buckets[0].Units; got != 7*365+2 {
		t.Errorf("first decade units = %v, want %d", got, 7*365+2)
	}
}

func TestDecomposeUnsupportedAndInvalid(t *testing.T) {
	c := Default()
	begin, end := utc(2024, 1, 1, 0, 0, 0), utc(2024, 1, 2, 0, 0, 0)

	d, err := c.Decompose(begin, end, scale.Custom)
	if err != nil {
		t.Fatal(err)
	}
	if d.Supported() || len(d.Buckets) != 0 {
		t.Error("custom scale should have no buckets")
	}
	if d.Delta != 86400000 {
		t.Errorf("delta = %dms, want 24h", d.Delta)
	}

	if _, err := c.Decompose(end, begin, scale.Day); !errors.Is(err, errors.ErrCodeRange) {
		t.Errorf("reversed window error = %v, want RANGE_ERROR", err)
	}

	d, err = c.Decompose(begin, begin, scale.Day)
	if err != nil || len(d.Buckets) != 0 {
		t.Errorf("empty window = %v buckets, err %v", len(d.Buckets), err)
	}
}

func TestCount(t *testing.T) {
	begin := utc(2024, 1, 1, 0, 0, 0)
	if got := Count(begin, begin.Add(90*time.Minute), scale.Hour); got != 2 {
		t.Errorf("Count(90m, hour) = %d, want 2", got)
	}
	if got := Count(begin, begin.Add(72*time.Hour), scale.Day); got != 3 {
		t.Errorf("Count(72h, day) = %d, want 3", got)
	}
	if got := Count(begin, begin, scale.Day); got != 0 {
		t.Errorf("Count(empty) = %d, want 0", got)
	}
}
