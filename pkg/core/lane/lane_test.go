package lane

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/timeline/pkg/errors"
)

var day = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func at(hh, mm int) time.Time {
	return day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func item(id string, h1, m1, h2, m2 int) Item {
	return Item{ID: id, Start: at(h1, m1), End: at(h2, m2)}
}

func TestAllocate_Empty(t *testing.T) {
	a := Allocate(nil, Options{Policy: MultiRow})
	if len(a.Tracks) != 0 || a.PackMaxOverlap != 0 || a.MaxConcurrent != 0 {
		t.Errorf("empty allocation = %+v", a)
	}
	if a.RowSpan != 1 {
		t.Errorf("RowSpan = %d, want 1", a.RowSpan)
	}
}

func TestAllocate_SplitRowPack(t *testing.T) {
	items := []Item{
		item("a", 10, 0, 11, 0),
		item("b", 10, 30, 11, 30),
	}
	a := Allocate(items, Options{Policy: SplitRow})

	if len(a.Tracks) != 2 {
		t.Fatalf("tracks = %d, want 2", len(a.Tracks))
	}
	if a.MaxOverlap() != 1 {
		t.Errorf("MaxOverlap() = %d, want 1", a.MaxOverlap())
	}
	want := map[string]Hint{
		"a": {Track: 0, Slot: 0, Divisor: 2},
		"b": {Track: 1, Slot: 1, Divisor: 2},
	}
	if diff := cmp.Diff(want, a.Hints); diff != "" {
		t.Errorf("hints mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocate_TouchingShareTrack(t *testing.T) {
	items := []Item{
		item("a", 9, 0, 10, 0),
		item("b", 10, 0, 11, 0),
		item("c", 11, 0, 12, 0),
	}
	a := Allocate(items, Options{Policy: SplitRow})
	if diff := cmp.Diff([][]string{{"a", "b", "c"}}, a.Tracks); diff != "" {
		t.Errorf("tracks mismatch (-want +got):\n%s", diff)
	}
	if a.MaxConcurrent != 1 {
		t.Errorf("MaxConcurrent = %d, want 1", a.MaxConcurrent)
	}
}

func TestAllocate_StableOrder(t *testing.T) {
	items := []Item{
		item("late", 12, 0, 13, 0),
		item("first", 10, 0, 11, 0),
		item("second", 10, 0, 11, 0),
	}
	a := Allocate(items, Options{Policy: SplitRow})
	want := [][]string{{"first", "late"}, {"second"}}
	if diff := cmp.Diff(want, a.Tracks); diff != "" {
		t.Errorf("tracks mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocate_Policies(t *testing.T) {
	// a overlaps b, b overlaps c, a and c are disjoint; d stands alone.
	items := []Item{
		item("a", 9, 0, 10, 30),
		item("b", 10, 0, 11, 30),
		item("c", 11, 0, 12, 0),
		item("d", 14, 0, 15, 0),
	}

	tests := []struct {
		name    string
		opts    Options
		hints   map[string]Hint
		rowSpan int
		overlap int
	}{
		{
			name: "overlay",
			opts: Options{Policy: Overlay},
			hints: map[string]Hint{
				"a": {0, 0, 1}, "b": {1, 0, 1}, "c": {0, 0, 1}, "d": {0, 0, 1},
			},
			rowSpan: 1,
			overlap: 1,
		},
		{
			name: "splitrow pack",
			opts: Options{Policy: SplitRow},
			hints: map[string]Hint{
				"a": {0, 0, 2}, "b": {1, 1, 2}, "c": {0, 0, 2}, "d": {0, 0, 2},
			},
			rowSpan: 1,
			overlap: 1,
		},
		{
			name: "splitrow separate",
			opts: Options{Policy: SplitRow, Separate: true},
			hints: map[string]Hint{
				"a": {0, 0, 3}, "b": {1, 1, 3}, "c": {0, 2, 3}, "d": {0, 0, 1},
			},
			rowSpan: 1,
			overlap: 2,
		},
		{
			name: "multirow pack",
			opts: Options{Policy: MultiRow},
			hints: map[string]Hint{
				"a": {0, 0, 1}, "b": {1, 1, 1}, "c": {0, 0, 1}, "d": {0, 0, 1},
			},
			rowSpan: 2,
			overlap: 1,
		},
		{
			name: "multirow separate",
			opts: Options{Policy: MultiRow, Separate: true},
			hints: map[string]Hint{
				"a": {0, 0, 1}, "b": {1, 1, 1}, "c": {0, 2, 1}, "d": {0, 0, 1},
			},
			rowSpan: 3,
			overlap: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Allocate(items, tt.opts)
			if diff := cmp.Diff(tt.hints, a.Hints); diff != "" {
				t.Errorf("hints mismatch (-want +got):\n%s", diff)
			}
			if a.RowSpan != tt.rowSpan {
				t.Errorf("RowSpan = %d, want %d", a.RowSpan, tt.rowSpan)
			}
			if a.MaxOverlap() != tt.overlap {
				t.Errorf("MaxOverlap() = %d, want %d", a.MaxOverlap(), tt.overlap)
			}
		})
	}
}

func TestAllocate_OverlapFiguresDiffer(t *testing.T) {
	items := []Item{
		item("a", 9, 0, 12, 0),
		item("b", 10, 0, 11, 0),
		item("c", 10, 30, 11, 30),
	}
	a := Allocate(items, Options{Policy: SplitRow})
	if a.PackMaxOverlap != 2 {
		t.Errorf("PackMaxOverlap = %d, want 2", a.PackMaxOverlap)
	}
	if a.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want 3", a.MaxConcurrent)
	}
	if a.MaxOverlap() != a.PackMaxOverlap {
		t.Error("pack mode should report PackMaxOverlap")
	}
	a.Options.Separate = true
	if a.MaxOverlap() != a.MaxConcurrent {
		t.Error("separate mode should report MaxConcurrent")
	}
}

func TestAllocate_Optimal(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := 1 + r.Intn(40)
		items := make([]Item, n)
		for i := range items {
			start := at(r.Intn(20), r.Intn(60))
			items[i] = Item{
				ID:    fmt.Sprintf("e%d", i),
				Start: start,
				End:   start.Add(time.Duration(r.Intn(300)) * time.Minute),
			}
		}

		a := Allocate(items, Options{Policy: MultiRow})
		if len(a.Tracks) != MaxConcurrency(items) {
			t.Fatalf("round %d: %d tracks, max concurrency %d", round, len(a.Tracks), MaxConcurrency(items))
		}

		byID := make(map[string]Item, n)
		for _, it := range items {
			byID[it.ID] = it
		}
		seen := 0
		for ti, track := range a.Tracks {
			for i := 1; i < len(track); i++ {
				prev, cur := byID[track[i-1]], byID[track[i]]
				if prev.End.After(cur.Start) {
					t.Fatalf("round %d: track %d holds overlapping %s and %s", round, ti, prev.ID, cur.ID)
				}
			}
			seen += len(track)
		}
		if seen != n {
			t.Fatalf("round %d: tracks hold %d items, want %d", round, seen, n)
		}
	}
}

func TestPolicyParse(t *testing.T) {
	for _, name := range []string{"overlay", "SPLITROW", "multi-row", "MultiRow"} {
		p, err := ParsePolicy(name)
		if err != nil {
			t.Errorf("ParsePolicy(%q) error: %v", name, err)
			continue
		}
		var back Policy
		text, _ := p.MarshalText()
		if err := back.UnmarshalText(text); err != nil || back != p {
			t.Errorf("text round trip of %q = %v, %v", name, back, err)
		}
	}
	if _, err := ParsePolicy("stack"); !errors.Is(err, errors.ErrCodeConfig) {
		t.Errorf("ParsePolicy(stack) error = %v, want CONFIG_ERROR", err)
	}
}
