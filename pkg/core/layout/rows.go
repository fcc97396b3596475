package layout

import (
	"sort"

	"github.com/matzehuels/timeline/pkg/errors"
)

// rowGroup collects the events laid out in one row.
type rowGroup struct {
	category Category
	events   []int // indices into the event slice
}

// OrderCategories returns cats in row order. Categories with a Position are
// spliced in at that 1-based index, the rest keep their input order.
func OrderCategories(cats []Category) []Category {
	var free, fixed []Category
	for _, c := range cats {
		if c.Position > 0 {
			fixed = append(fixed, c)
		} else {
			free = append(free, c)
		}
	}
	sort.SliceStable(fixed, func(i, j int) bool { return fixed[i].Position < fixed[j].Position })

	out := free
	for _, c := range fixed {
		i := c.Position - 1
		if i > len(out) {
			i = len(out)
		}
		out = append(out, Category{})
		copy(out[i+1:], out[i:])
		out[i] = c
	}
	return out
}

// groupRows assigns every event to a row. Categorized events go to their
// category; the rest use their row hint, or row 1. Without categories the
// row count is NumRows, stretched to fit the largest hint. Event ids must be
// present and unique.
func groupRows(c Config, cats []Category, events []Event) ([]rowGroup, error) {
	var rows []rowGroup
	index := make(map[string]int, len(cats))
	for _, cat := range OrderCategories(cats) {
		if err := errors.ValidateCategoryID(cat.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "category")
		}
		if _, dup := index[cat.ID]; dup {
			return nil, errors.New(errors.ErrCodeConfig, "duplicate category %q", cat.ID)
		}
		index[cat.ID] = len(rows)
		rows = append(rows, rowGroup{category: cat})
	}

	if len(rows) == 0 {
		n := c.NumRows
		for _, ev := range events {
			if ev.Row > n {
				n = ev.Row
			}
		}
		if n < 1 {
			n = 1
		}
		rows = make([]rowGroup, n)
	}

	seen := make(map[string]bool, len(events))
	for i, ev := range events {
		switch {
		case ev.ID == "":
			return nil, errors.New(errors.ErrCodeConfig, "event %d has no id", i)
		case seen[ev.ID]:
			return nil, errors.New(errors.ErrCodeConfig, "duplicate event id %q", ev.ID)
		case ev.Type == TypeMixed || !ev.Type.valid():
			return nil, errors.New(errors.ErrCodeConfig, "event %q has invalid type %q", ev.ID, ev.Type)
		}
		seen[ev.ID] = true

		if ev.Category != "" {
			r, ok := index[ev.Category]
			if !ok {
				return nil, errors.New(errors.ErrCodeConfig, "event %q references unknown category %q", ev.ID, ev.Category)
			}
			rows[r].events = append(rows[r].events, i)
			continue
		}
		r := ev.Row - 1
		if r < 0 {
			r = 0
		}
		if r >= len(rows) {
			r = len(rows) - 1
		}
		rows[r].events = append(rows[r].events, i)
	}
	return rows, nil
}
