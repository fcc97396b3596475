package lane

import (
	"container/heap"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/timeline/pkg/errors"
)

// Item is the part of an event the allocator looks at.
type Item struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Overlaps reports whether a and b share any instant, half-open.
func (a Item) Overlaps(b Item) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Policy selects how overlapping items share a row.
type Policy int

const (
	SplitRow Policy = iota
	Overlay
	MultiRow
)

var policyNames = [...]string{
	SplitRow: "splitrow",
	Overlay:  "overlay",
	MultiRow: "multirow",
}

func (p Policy) String() string {
	if p < SplitRow || p > MultiRow {
		return "unknown"
	}
	return policyNames[p]
}

// ParsePolicy resolves a policy name, ignoring case and dashes.
func ParsePolicy(name string) (Policy, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "")
	for p, s := range policyNames {
		if s == n {
			return Policy(p), nil
		}
	}
	return 0, errors.New(errors.ErrCodeConfig, "unknown parallel event policy %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if p < SplitRow || p > MultiRow {
		return nil, errors.New(errors.ErrCodeConfig, "invalid policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Options controls an allocation.
type Options struct {
	Policy   Policy
	Separate bool // slot items by parallel group instead of by track
}

// Hint is the vertical placement of one item inside its category.
type Hint struct {
	Track   int `json:"track"`
	Slot    int `json:"slot"`
	Divisor int `json:"divisor"`
}

// Allocation is the result of [Allocate] for one category.
type Allocation struct {
	Options Options

	// Tracks holds item ids per track, each track in start order.
	Tracks [][]string
	Hints  map[string]Hint

	PackMaxOverlap int // len(Tracks) - 1, or 0 without items
	MaxConcurrent  int // sweep line maximum of open items
	LargestGroup   int // size of the largest parallel group

	// RowSpan is the number of full-height rows the category occupies.
	RowSpan int
}

// MaxOverlap returns the overlap figure the active mode consumes: the
// sweep line concurrency in separate mode, the pack figure otherwise.
func (a Allocation) MaxOverlap() int {
	if a.Options.Separate {
		return a.MaxConcurrent
	}
	return a.PackMaxOverlap
}

// Allocate assigns items to tracks and derives slot hints under opts.
// Empty input yields an empty allocation with a row span of 1.
func Allocate(items []Item, opts Options) Allocation {
	a := Allocation{Options: opts, Hints: make(map[string]Hint, len(items)), RowSpan: 1}
	if len(items) == 0 {
		return a
	}

	sorted := sortByStart(items)
	var lastEnd []time.Time
	track := make(map[string]int, len(sorted))
	for _, it := range sorted {
		t := -1
		for i, end := range lastEnd {
			if !end.After(it.Start) {
				t = i
				break
			}
		}
		if t < 0 {
			t = len(lastEnd)
			lastEnd = append(lastEnd, time.Time{})
			a.Tracks = append(a.Tracks, nil)
		}
		lastEnd[t] = maxEnd(it)
		a.Tracks[t] = append(a.Tracks[t], it.ID)
		track[it.ID] = t
	}

	a.PackMaxOverlap = len(a.Tracks) - 1
	a.MaxConcurrent = MaxConcurrency(items)

	groups := Groups(items)
	position := make(map[string][2]int, len(sorted)) // id -> {index, group size}
	for _, g := range groups {
		if len(g) > a.LargestGroup {
			a.LargestGroup = len(g)
		}
		for i, it := range g {
			position[it.ID] = [2]int{i, len(g)}
		}
	}

	for _, it := range sorted {
		h := Hint{Track: track[it.ID], Divisor: 1}
		switch opts.Policy {
		case SplitRow:
			if opts.Separate {
				h.Slot, h.Divisor = position[it.ID][0], position[it.ID][1]
			} else {
				h.Slot, h.Divisor = h.Track, len(a.Tracks)
			}
		case MultiRow:
			if opts.Separate {
				h.Slot = position[it.ID][0]
			} else {
				h.Slot = h.Track
			}
		}
		a.Hints[it.ID] = h
	}

	if opts.Policy == MultiRow {
		if opts.Separate {
			a.RowSpan = a.LargestGroup
		} else {
			a.RowSpan = a.PackMaxOverlap + 1
		}
	}
	return a
}

// maxEnd guards against items whose end precedes their start.
func maxEnd(it Item) time.Time {
	if it.End.Before(it.Start) {
		return it.Start
	}
	return it.End
}

func sortByStart(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// endHeap is a min-heap of end instants.
type endHeap []time.Time

func (h endHeap) Len() int           { return len(h) }
func (h endHeap) Less(i, j int) bool { return h[i].Before(h[j]) }
func (h endHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *endHeap) Push(x any)        { *h = append(*h, x.(time.Time)) }
func (h *endHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// MaxConcurrency returns the largest number of items open at one instant.
// An item ending exactly when another starts is closed by then; a
// zero-length item counts as open at its own instant.
func MaxConcurrency(items []Item) int {
	if len(items) == 0 {
		return 0
	}
	sorted := sortByStart(items)
	open := &endHeap{}
	best := 0
	for _, it := range sorted {
		for open.Len() > 0 && !(*open)[0].After(it.Start) {
			heap.Pop(open)
		}
		heap.Push(open, maxEnd(it))
		if open.Len() > best {
			best = open.Len()
		}
	}
	return best
}
