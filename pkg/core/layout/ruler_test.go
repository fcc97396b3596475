package layout

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

func dayConfig() Config {
	c := DefaultConfig()
	c.Scale = scale.Day
	c.Start, c.End = "2024-01-30", "2024-02-02"
	c.Now = func() time.Time { return now }
	return c
}

func lineIDs(l RulerLine) []string {
	out := make([]string, len(l.Buckets))
	for i, b := range l.Buckets {
		out[i] = b.ID
	}
	return out
}

func TestRuler_DefaultLine(t *testing.T) {
	r := mustBuild(t, dayConfig(), nil, nil)
	if len(r.Ruler) != 1 {
		t.Fatalf("ruler lines = %d, want 1", len(r.Ruler))
	}
	line := r.Ruler[0]
	if line.Position != "top" || line.Scale != scale.Day {
		t.Errorf("default line = %s %s, want top day", line.Position, line.Scale)
	}
	want := []string{"day-2024/1/30", "day-2024/1/31", "day-2024/2/1", "day-2024/2/2"}
	if diff := cmp.Diff(want, lineIDs(line)); diff != "" {
		t.Errorf("bucket ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRuler_CoarseAndFineLines(t *testing.T) {
	c := dayConfig()
	c.Ruler = Ruler{Top: []scale.Scale{scale.Month}, Bottom: []scale.Scale{scale.Day, scale.Hour}}
	r := mustBuild(t, c, nil, nil)

	month, ok := r.Line("top", scale.Month)
	if !ok {
		t.Fatal("missing month line")
	}
	type xw struct {
		ID       string
		X, Width float64
	}
	var got []xw
	for _, b := range month.Buckets {
		got = append(got, xw{b.ID, b.X, b.Width})
	}
	want := []xw{{"month-2024/1", 0, 150}, {"month-2024/2", 150, 150}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("month line mismatch (-want +got):\n%s", diff)
	}

	hour, ok := r.Line("bottom", scale.Hour)
	if !ok {
		t.Fatal("missing hour line")
	}
	if len(hour.Buckets) != 96 {
		t.Fatalf("hour buckets = %d, want 96", len(hour.Buckets))
	}
	if first := hour.Buckets[0]; first.ID != "hour-2024/1/30 0" || first.Width < 3.12 || first.Width > 3.13 {
		t.Errorf("first hour bucket = %+v", first)
	}
	last := hour.Buckets[95]
	if end := last.X + last.Width; end < 299.9 || end > 300.1 {
		t.Errorf("hour line ends at %v, want 300", end)
	}

	c.Ruler.TruncateLowers = true
	r = mustBuild(t, c, nil, nil)
	if _, ok := r.Line("bottom", scale.Hour); ok {
		t.Error("TruncateLowers kept the hour line")
	}
	if len(r.Ruler) != 2 {
		t.Errorf("ruler lines = %d, want 2", len(r.Ruler))
	}
}

func TestRuler_WeeksOnMonthGrid(t *testing.T) {
	c := DefaultConfig()
	c.Scale = scale.Month
	c.Start, c.End = "2024-01-01", "2024-02-15"
	c.Ruler.Top = []scale.Scale{scale.Month, scale.Week}
	r := mustBuild(t, c, nil, nil)

	weeks, ok := r.Line("top", scale.Week)
	if !ok {
		t.Fatal("missing week line")
	}
	ids := lineIDs(weeks)
	if len(ids) != 9 || ids[0] != "week-2024,1" || ids[8] != "week-2024,9" {
		t.Errorf("week ids = %v", ids)
	}
	if got := weeks.Buckets[0].Width; got < 18.09 || got > 18.11 {
		t.Errorf("first week width = %v, want 7 days at 75px per 29 days", got)
	}
}

func TestRuler_WeekLayoutRegroupsDays(t *testing.T) {
	c := DefaultConfig()
	c.Scale = scale.Week
	c.Start, c.End = "2024-03-04", "2024-03-17"
	r := mustBuild(t, c, nil, nil)
	if len(r.Grid) != 14 {
		t.Fatalf("grid = %d day buckets, want 14", len(r.Grid))
	}
	if diff := cmp.Diff([]string{"week-2024,10", "week-2024,11"}, lineIDs(r.Ruler[0])); diff != "" {
		t.Errorf("week line mismatch (-want +got):\n%s", diff)
	}
}

func TestRuler_QuarterHourStopsLine(t *testing.T) {
	c := hourConfig()
	c.Ruler.Top = []scale.Scale{scale.Hour, scale.QuarterHour, scale.Minute}
	r := mustBuild(t, c, nil, nil)
	if len(r.Ruler) != 2 {
		t.Fatalf("ruler lines = %d, want 2", len(r.Ruler))
	}
	q := r.Ruler[1]
	if q.Scale != scale.QuarterHour || len(q.Buckets) != 28 {
		t.Errorf("quarter hour line = %s with %d buckets, want 28", q.Scale, len(q.Buckets))
	}
	if q.Buckets[1].ID != "quarterHour-2024/3/5 8:15" {
		t.Errorf("second quarter id = %q", q.Buckets[1].ID)
	}
}

func TestRuler_FineLineRespectsLimit(t *testing.T) {
	c := dayConfig()
	c.Start, c.End = "2024-01-01", "2024-03-31"
	c.Ruler.Bottom = []scale.Scale{scale.Minute}
	if _, err := Build(c, nil, nil); !errors.Is(err, errors.ErrCodeRange) {
		t.Errorf("Build() error = %v, want RANGE_ERROR", err)
	}
}
