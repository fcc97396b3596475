// Package coord maps instants to horizontal pixel offsets and back.
//
// A [Mapper] is built from a calendar decomposition and a grid size in
// pixels. The base variable, the smallest full bucket length in base units
// (the largest for week scale), defines how much time one grid of
// scaleSize pixels covers. Every bucket is then scaled independently against
// it, so months of 28 to 31 days get proportionally different widths while
// bucket widths still add up to the content width.
//
// Offsets are measured in the decomposition's unit through the calendar
// that built it, so windows spanning centuries map without overflow.
//
// All offsets and widths are rounded to two decimals, half away from zero.
package coord

import (
	"math"
	"time"

	"github.com/matzehuels/timeline/pkg/core/calendar"
	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

// GridBucket is a decomposition bucket placed on the x axis.
type GridBucket struct {
	Key   string    `json:"key"`
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
	X     float64   `json:"x"`
	Width float64   `json:"width"`
}

// Mapper converts between instants and x offsets for one window.
type Mapper struct {
	scale     scale.Scale
	begin     time.Time
	end       time.Time
	scaleSize float64
	base      float64
	d         calendar.Decomposition
	buckets   []GridBucket
	width     float64
}

// New builds a mapper over d with grids of scaleSize pixels.
//
// It returns a CONFIG_ERROR when scaleSize is not positive or d has no
// buckets to derive a base variable from.
func New(d calendar.Decomposition, scaleSize float64) (*Mapper, error) {
	if scaleSize <= 0 || math.IsNaN(scaleSize) {
		return nil, errors.New(errors.ErrCodeConfig, "grid size must be positive, got %v", scaleSize)
	}
	if !d.Supported() {
		return nil, errors.New(errors.ErrCodeConfig, "scale %s has no calendar grid", d.Scale)
	}
	if len(d.Buckets) == 0 {
		return nil, errors.New(errors.ErrCodeConfig, "window %s..%s has no %s buckets", d.Begin, d.End, d.Scale)
	}

	base := BaseVariable(d)
	if base <= 0 {
		return nil, errors.New(errors.ErrCodeConfig, "degenerate base variable for %s", d.Scale)
	}

	m := &Mapper{
		scale:     d.Scale,
		begin:     d.Begin,
		end:       d.End,
		scaleSize: scaleSize,
		base:      base,
		d:         d,
		buckets:   make([]GridBucket, 0, len(d.Buckets)),
	}

	x := 0.0
	for _, b := range d.Buckets {
		w := Round2(b.Units * scaleSize / base)
		m.buckets = append(m.buckets, GridBucket{Key: b.Key, Begin: b.Begin, End: b.End, X: Round2(x), Width: w})
		x += w
	}
	m.width = Round2(x)
	return m, nil
}

// BaseVariable returns the smallest full bucket length of d in base units,
// or the largest for week scale.
func BaseVariable(d calendar.Decomposition) float64 {
	base := 0.0
	for i, b := range d.Buckets {
		switch {
		case i == 0:
			base = b.Full
		case d.Scale == scale.Week && b.Full > base:
			base = b.Full
		case d.Scale != scale.Week && b.Full < base:
			base = b.Full
		}
	}
	return base
}

// Round2 rounds v to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Scale returns the scale the mapper was built for.
func (m *Mapper) Scale() scale.Scale { return m.scale }

// Begin returns the window start.
func (m *Mapper) Begin() time.Time { return m.begin }

// End returns the window end.
func (m *Mapper) End() time.Time { return m.end }

// ScaleSize returns the grid size in pixels.
func (m *Mapper) ScaleSize() float64 { return m.scaleSize }

// Base returns the base variable.
func (m *Mapper) Base() float64 { return m.base }

// Unit returns the unit the base variable is counted in.
func (m *Mapper) Unit() scale.Unit { return m.d.Unit }

// Width returns the content width, the sum of all bucket widths.
func (m *Mapper) Width() float64 { return m.width }

// Buckets returns the grid buckets in chronological order.
func (m *Mapper) Buckets() []GridBucket {
	out := make([]GridBucket, len(m.buckets))
	copy(out, m.buckets)
	return out
}

// ToX returns the x offset of t. Instants outside the window extrapolate
// linearly; clamping is up to the caller.
func (m *Mapper) ToX(t time.Time) float64 {
	return Round2(m.d.Measure(m.begin, t) / m.base * m.scaleSize)
}

// Span returns the x offset of start and the width up to end.
func (m *Mapper) Span(start, end time.Time) (x, width float64) {
	x = m.ToX(start)
	return x, Round2(m.ToX(end) - x)
}

// ToInstant returns the instant at offset x. It returns an OUT_OF_RANGE
// error when the instant falls outside the window.
func (m *Mapper) ToInstant(x float64) (time.Time, error) {
	t := m.d.Advance(m.begin, x/m.scaleSize*m.base)
	if t.Before(m.begin) || t.After(m.end) {
		return time.Time{}, errors.New(errors.ErrCodeOutOfRange, "offset %.2fpx maps to %s outside %s..%s",
			x, t.Format(time.RFC3339), m.begin.Format(time.RFC3339), m.end.Format(time.RFC3339))
	}
	return t, nil
}
