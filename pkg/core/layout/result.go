package layout

import (
	"time"

	"github.com/matzehuels/timeline/pkg/core/calendar"
	"github.com/matzehuels/timeline/pkg/core/coord"
	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

// Geometry is a rectangle in content pixels.
type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Row is the vertical band of one category, or of one numbered row when
// there are no categories.
type Row struct {
	Category string  `json:"category,omitempty"`
	Label    string  `json:"label,omitempty"`
	Index    int     `json:"index"` // 1-based
	Y        float64 `json:"y"`
	Height   float64 `json:"height"`
	RowSpan  int     `json:"rowSpan"`

	Tracks         int `json:"tracks"`
	PackMaxOverlap int `json:"packMaxOverlap"`
	MaxConcurrent  int `json:"maxConcurrent"`
	MaxOverlap     int `json:"maxOverlap"`
}

// Placement is the computed geometry of one event. Dropped placements
// carry no geometry.
type Placement struct {
	ID       string    `json:"id"`
	Category string    `json:"category,omitempty"`
	Row      int       `json:"row"`
	Kind     EventType `json:"kind"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`

	Geometry Geometry `json:"geometry"`
	Track    int      `json:"track"`
	Slot     int      `json:"slot"`
	Divisor  int      `json:"divisor"`
	Marker   float64  `json:"marker,omitempty"`

	Clipped bool `json:"clipped,omitempty"`
	Dropped bool `json:"dropped,omitempty"`
}

// RulerBucket is one labelled cell of a ruler line. ID is "scale-key" and
// feeds the zoom resolver.
type RulerBucket struct {
	ID    string    `json:"id"`
	Key   string    `json:"key"`
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
	X     float64   `json:"x"`
	Width float64   `json:"width"`
}

// RulerLine is one horizontal ruler.
type RulerLine struct {
	Position string        `json:"position"` // "top" or "bottom"
	Scale    scale.Scale   `json:"scale"`
	Buckets  []RulerBucket `json:"buckets"`
}

// Result is the immutable output of one layout pass.
type Result struct {
	Window    Window      `json:"window"`
	Scale     scale.Scale `json:"scale"`
	ScaleSize float64     `json:"scaleSize"`
	Base      float64     `json:"base"`
	// Unit is what Base counts: one grid of ScaleSize pixels covers Base
	// units.
	Unit scale.Unit `json:"unit"`

	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	RowHeight float64 `json:"rowHeight"`

	Grid       []coord.GridBucket `json:"grid"`
	Rows       []Row              `json:"rows"`
	Placements []Placement        `json:"placements"`
	Ruler      []RulerLine        `json:"ruler"`

	Now  time.Time `json:"now"`
	NowX *float64  `json:"nowX,omitempty"`
}

// Placement returns the placement of the event with id.
func (r Result) Placement(id string) (Placement, bool) {
	for _, p := range r.Placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// Visible returns the placements that were not dropped.
func (r Result) Visible() []Placement {
	var out []Placement
	for _, p := range r.Placements {
		if !p.Dropped {
			out = append(out, p)
		}
	}
	return out
}

// ToX maps t onto the x axis of the result, extrapolating outside the
// window.
func (r Result) ToX(t time.Time) float64 {
	if r.Base <= 0 {
		return 0
	}
	return coord.Round2(r.calendar().Units(r.Window.Begin, t, r.Unit) / r.Base * r.ScaleSize)
}

// calendar measures in the location the window was resolved in.
func (r Result) calendar() calendar.Calendar {
	return calendar.New(r.Window.Begin.Location(), calendar.DefaultFirstDayOfWeek)
}

// At returns a copy of r with the present-time marker moved to now.
func (r Result) At(now time.Time) Result {
	r.Now = now
	r.NowX = nil
	if r.Window.Contains(now) {
		x := r.ToX(now)
		r.NowX = &x
	}
	return r
}

// InstantAt returns the instant at offset x. Offsets outside the window
// are an OUT_OF_RANGE error.
func (r Result) InstantAt(x float64) (time.Time, error) {
	if r.Base <= 0 || r.ScaleSize <= 0 {
		return time.Time{}, errors.New(errors.ErrCodeOutOfRange, "empty layout")
	}
	t := r.calendar().Advance(r.Window.Begin, x/r.ScaleSize*r.Base, r.Unit)
	if t.Before(r.Window.Begin) || t.After(r.Window.Next()) {
		return time.Time{}, errors.New(errors.ErrCodeOutOfRange, "offset %.2fpx is outside the window", x)
	}
	if t.After(r.Window.End) {
		t = r.Window.End
	}
	return t, nil
}

// RowAt returns the row covering offset y, borders included with the row
// above them.
func (r Result) RowAt(y float64) (Row, bool) {
	for _, row := range r.Rows {
		if y >= row.Y && y < row.Y+row.Height+Border {
			return row, true
		}
	}
	return Row{}, false
}

// Line returns the first ruler line at position with scale s.
func (r Result) Line(position string, s scale.Scale) (RulerLine, bool) {
	for _, l := range r.Ruler {
		if l.Position == position && l.Scale == s {
			return l, true
		}
	}
	return RulerLine{}, false
}
