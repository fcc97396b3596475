package layout

import (
	"math"
	"time"

	"github.com/matzehuels/timeline/pkg/core/calendar"
	"github.com/matzehuels/timeline/pkg/core/coord"
	"github.com/matzehuels/timeline/pkg/core/lane"
	"github.com/matzehuels/timeline/pkg/errors"
)

// Build runs one layout pass. It never returns a partial result: any
// failure aborts the pass with a CONFIG_ERROR, RANGE_ERROR or DATE_ERROR.
func Build(c Config, cats []Category, events []Event) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}
	logger := c.logger()
	cal := c.Calendar

	w, err := ResolveWindow(c)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("window resolved", "scale", c.Scale, "begin", w.Begin, "end", w.End)

	n := calendar.Count(w.Begin, w.Next(), c.Scale)
	if limit, ok := c.Limits.Of(c.Scale); ok && !c.DisableLimiter {
		if n > limit {
			return Result{}, errors.New(errors.ErrCodeRange,
				"window %s..%s needs about %d %s grids, limit is %d",
				w.Begin.Format(time.RFC3339), w.End.Format(time.RFC3339), n, c.Scale, limit)
		}
		logger.Debug("limiter passed", "grids", n, "limit", limit)
	}

	d, err := cal.Decompose(w.Begin, w.Next(), c.Scale)
	if err != nil {
		return Result{}, err
	}
	if len(d.Buckets) < 2 {
		return Result{}, errors.New(errors.ErrCodeRange, "window holds %d %s bucket(s), need at least 2", len(d.Buckets), c.Scale)
	}
	m, err := coord.New(d, c.MinGridSize)
	if err != nil {
		return Result{}, err
	}
	if m.Width() < 2 {
		return Result{}, errors.New(errors.ErrCodeRange, "content width %.2fpx is below 2px", m.Width())
	}

	rows, err := groupRows(c, cats, events)
	if err != nil {
		return Result{}, err
	}

	markerMax := math.Min(c.MinGridSize-2*c.MarginHeight, c.RowHeight-2*c.MarginHeight)
	marker, err := markerSize(c.Marker, markerMax)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Window:       w,
		Scale:        c.Scale,
		ScaleSize:    c.MinGridSize,
		Base:         m.Base(),
		Unit:         m.Unit(),
		Width:        m.Width(),
		RowHeight:    c.RowHeight,
		Grid:         m.Buckets(),
		Now:          c.now(),
		Placements:   make([]Placement, len(events)),
	}

	p := placer{c: c, m: m, marker: marker}
	lines := 0
	for ri, row := range rows {
		items := make([]lane.Item, 0, len(row.events))
		for _, ei := range row.events {
			ev := events[ei]
			if intersects(ev, w) {
				items = append(items, lane.Item{ID: ev.ID, Start: ev.Start, End: ev.End})
			}
		}
		alloc := lane.Allocate(items, lane.Options{Policy: c.Policy, Separate: c.Separate})

		span := 1
		if c.Policy == lane.MultiRow {
			span = alloc.RowSpan
		}
		r := Row{
			Category:       row.category.ID,
			Label:          row.category.Label,
			Index:          ri + 1,
			Y:              float64(lines) * (c.RowHeight + Border),
			Height:         float64(span)*c.RowHeight + float64(span-1)*Border,
			RowSpan:        span,
			Tracks:         len(alloc.Tracks),
			PackMaxOverlap: alloc.PackMaxOverlap,
			MaxConcurrent:  alloc.MaxConcurrent,
			MaxOverlap:     alloc.MaxOverlap(),
		}
		res.Rows = append(res.Rows, r)

		for _, ei := range row.events {
			ev := events[ei]
			h, ok := alloc.Hints[ev.ID]
			res.Placements[ei] = p.place(ev, r, lines, h, ok)
		}
		lines += span
	}

	res.Height = float64(lines)*c.RowHeight + float64(lines-1)*Border
	if res.Height < 2 {
		return Result{}, errors.New(errors.ErrCodeRange, "content height %.2fpx is below 2px", res.Height)
	}

	res.Ruler, err = buildRuler(c, w, m)
	if err != nil {
		return Result{}, err
	}

	if w.Contains(res.Now) {
		x := m.ToX(res.Now)
		res.NowX = &x
	}

	dropped := 0
	for _, pl := range res.Placements {
		if pl.Dropped {
			dropped++
		}
	}
	logger.Debug("layout complete",
		"buckets", len(res.Grid), "rows", len(res.Rows), "events", len(events), "dropped", dropped,
		"width", res.Width, "height", res.Height)
	return res, nil
}

// intersects reports whether ev has any instant inside w. Points on the
// window boundary count as inside.
func intersects(ev Event, w Window) bool {
	end := ev.End
	if end.Before(ev.Start) {
		end = ev.Start
	}
	return !ev.Start.After(w.End) && !end.Before(w.Begin)
}

// placer computes the geometry of single events.
type placer struct {
	c      Config
	m      *coord.Mapper
	marker float64
}

// kind picks how ev is drawn. Mixed layouts draw anything at least a pixel
// wide as a bar. Otherwise an explicit hint wins, and an instantaneous event
// without one is a point even in a bar layout.
func (p placer) kind(ev Event, width float64) EventType {
	if p.c.Type == TypeMixed {
		if ev.Type == TypeBar || (ev.Type != TypePoint && width >= 1) {
			return TypeBar
		}
		return TypePoint
	}
	if ev.Type == TypeBar || ev.Type == TypePoint {
		return ev.Type
	}
	if p.c.Type == TypePoint || !ev.End.After(ev.Start) {
		return TypePoint
	}
	return TypeBar
}

// slot returns the y offset and height of an event inside its row.
func (p placer) slot(r Row, linesBefore int, h lane.Hint) (y, height float64) {
	rh, mg := p.c.RowHeight, p.c.MarginHeight
	switch p.c.Policy {
	case lane.SplitRow:
		div := float64(max(h.Divisor, 1))
		y = float64(r.Index-1)*(rh+Border) + rh/div*float64(h.Slot) + mg
		height = (rh - 2*mg) / div
	case lane.MultiRow:
		y = float64(linesBefore+h.Slot)*(rh+Border) + mg
		height = rh - 2*mg
	default:
		y = float64(r.Index-1)*(rh+Border) + mg
		height = rh - 2*mg
	}
	return coord.Round2(y), coord.Round2(height)
}

func (p placer) place(ev Event, r Row, linesBefore int, h lane.Hint, allocated bool) Placement {
	pl := Placement{
		ID:       ev.ID,
		Category: ev.Category,
		Row:      r.Index,
		Start:    ev.Start,
		End:      ev.End,
		Track:    h.Track,
		Slot:     h.Slot,
		Divisor:  h.Divisor,
	}
	x, width := p.m.Span(ev.Start, ev.End)
	pl.Kind = p.kind(ev, width)
	if !allocated {
		pl.Dropped = true
		return pl
	}
	content := p.m.Width()
	y, height := p.slot(r, linesBefore, h)

	if pl.Kind == TypePoint {
		if x < 0 || x > content {
			pl.Dropped = true
			return pl
		}
		size := p.marker
		pl.Marker = size
		pl.Geometry = Geometry{
			X:      coord.Round2(x - size/2),
			Y:      coord.Round2(y + (height-size)/2),
			Width:  size,
			Height: size,
		}
		return pl
	}

	if x >= content {
		pl.Dropped = true
		return pl
	}
	if x < 0 {
		width += x
		x = 0
		pl.Clipped = true
	}
	if x+width > content {
		width = content - x
		pl.Clipped = true
	}
	width = coord.Round2(width)
	if width < 1 {
		pl.Dropped, pl.Clipped = true, false
		return pl
	}
	pl.Geometry = Geometry{X: x, Y: y, Width: width, Height: height}
	return pl
}
