package timeline

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/timeline/pkg/core/calendar"
	"github.com/matzehuels/timeline/pkg/core/lane"
	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/core/zoom"
	"github.com/matzehuels/timeline/pkg/errors"
)

// Default values a document falls back to.
const (
	DefaultScale          = "hour"
	DefaultTimezone       = "UTC"
	DefaultFirstDayOfWeek = "monday"
)

// Document is one timeline: its configuration, categories and events.
type Document struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Title      string     `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Config     Config     `json:"config" yaml:"config" toml:"config"`
	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty" toml:"categories,omitempty"`
	Events     []Event    `json:"events" yaml:"events" toml:"events"`
}

// Config is the document form of [layout.Config]. Enumerations are kept as
// names so every format reads them the same way.
type Config struct {
	Scale string `json:"scale,omitempty" yaml:"scale,omitempty" toml:"scale,omitempty"`
	Start string `json:"start,omitempty" yaml:"start,omitempty" toml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty" toml:"end,omitempty"`
	Range int    `json:"range,omitempty" yaml:"range,omitempty" toml:"range,omitempty"`

	MinGridSize  float64 `json:"minGridSize,omitempty" yaml:"minGridSize,omitempty" toml:"minGridSize,omitempty"`
	RowHeight    float64 `json:"rowHeight,omitempty" yaml:"rowHeight,omitempty" toml:"rowHeight,omitempty"`
	MarginHeight float64 `json:"marginHeight,omitempty" yaml:"marginHeight,omitempty" toml:"marginHeight,omitempty"`
	NumRows      int     `json:"numRows,omitempty" yaml:"numRows,omitempty" toml:"numRows,omitempty"`

	Type     string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Marker   string `json:"marker,omitempty" yaml:"marker,omitempty" toml:"marker,omitempty"`
	Policy   string `json:"policy,omitempty" yaml:"policy,omitempty" toml:"policy,omitempty"`
	Separate bool   `json:"separate,omitempty" yaml:"separate,omitempty" toml:"separate,omitempty"`

	Timezone       string `json:"timezone,omitempty" yaml:"timezone,omitempty" toml:"timezone,omitempty"`
	FirstDayOfWeek string `json:"firstDayOfWeek,omitempty" yaml:"firstDayOfWeek,omitempty" toml:"firstDayOfWeek,omitempty"`

	DisableLimiter bool           `json:"disableLimiter,omitempty" yaml:"disableLimiter,omitempty" toml:"disableLimiter,omitempty"`
	Limits         map[string]int `json:"limits,omitempty" yaml:"limits,omitempty" toml:"limits,omitempty"`

	Ruler Ruler `json:"ruler,omitempty" yaml:"ruler,omitempty" toml:"ruler,omitempty"`
}

// Ruler names the ruler lines by scale.
type Ruler struct {
	Top            []string `json:"top,omitempty" yaml:"top,omitempty" toml:"top,omitempty"`
	Bottom         []string `json:"bottom,omitempty" yaml:"bottom,omitempty" toml:"bottom,omitempty"`
	TruncateLowers bool     `json:"truncateLowers,omitempty" yaml:"truncateLowers,omitempty" toml:"truncateLowers,omitempty"`
}

// Category is a timeline row.
type Category struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Position int    `json:"position,omitempty" yaml:"position,omitempty" toml:"position,omitempty"`
}

// Event is a stored event. Start and End hold raw values.
type Event struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	Start    any    `json:"start" yaml:"start" toml:"start"`
	End      any    `json:"end,omitempty" yaml:"end,omitempty" toml:"end,omitempty"`
	Row      int    `json:"row,omitempty" yaml:"row,omitempty" toml:"row,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
}

// UnmarshalYAML keeps timestamp scalars such as an unquoted 2024-03-01 as
// their text, so Inputs reads them in the document's timezone instead of
// as UTC instants.
func (e *Event) UnmarshalYAML(n *yaml.Node) error {
	type plain Event
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!timestamp" {
			continue
		}
		switch k.Value {
		case "start":
			p.Start = v.Value
		case "end":
			p.End = v.Value
		}
	}
	*e = Event(p)
	return nil
}

// ValidateAndSetDefaults fills defaults, assigns missing event ids and
// checks the document's identifiers.
func (d *Document) ValidateAndSetDefaults() error {
	if d.ID != "" {
		if err := errors.ValidateTimelineID(d.ID); err != nil {
			return err
		}
	}
	if d.Config.Scale == "" {
		d.Config.Scale = DefaultScale
	}
	if d.Config.Timezone == "" {
		d.Config.Timezone = DefaultTimezone
	}
	if d.Config.FirstDayOfWeek == "" {
		d.Config.FirstDayOfWeek = DefaultFirstDayOfWeek
	}
	for _, c := range d.Categories {
		if err := errors.ValidateCategoryID(c.ID); err != nil {
			return err
		}
	}
	for i := range d.Events {
		if strings.TrimSpace(d.Events[i].ID) == "" {
			d.Events[i].ID = uuid.NewString()
		}
	}
	return nil
}

// Calendar returns the calendar the document's instants are read in.
func (c Config) Calendar() (calendar.Calendar, error) {
	loc := time.UTC
	if c.Timezone != "" {
		l, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return calendar.Calendar{}, errors.Wrap(errors.ErrCodeConfig, err, "timezone %q", c.Timezone)
		}
		loc = l
	}
	first := calendar.DefaultFirstDayOfWeek
	if c.FirstDayOfWeek != "" {
		wd, err := parseWeekday(c.FirstDayOfWeek)
		if err != nil {
			return calendar.Calendar{}, err
		}
		first = wd
	}
	return calendar.New(loc, first), nil
}

func parseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, errors.New(errors.ErrCodeConfig, "unknown weekday %q", name)
}

// Options converts the document configuration into a layout config with
// every default applied.
func (d *Document) Options() (layout.Config, error) {
	c := d.Config
	cfg := layout.Config{
		Start:          c.Start,
		End:            c.End,
		Range:          c.Range,
		MinGridSize:    c.MinGridSize,
		RowHeight:      c.RowHeight,
		MarginHeight:   c.MarginHeight,
		NumRows:        c.NumRows,
		Type:           layout.EventType(strings.ToLower(c.Type)),
		Marker:         c.Marker,
		Separate:       c.Separate,
		DisableLimiter: c.DisableLimiter,
		Ruler:          layout.Ruler{TruncateLowers: c.Ruler.TruncateLowers},
	}

	name := c.Scale
	if name == "" {
		name = DefaultScale
	}
	s, err := scale.Parse(name)
	if err != nil {
		return layout.Config{}, err
	}
	cfg.Scale = s

	if c.Policy != "" {
		p, err := lane.ParsePolicy(c.Policy)
		if err != nil {
			return layout.Config{}, err
		}
		cfg.Policy = p
	}

	if cfg.Calendar, err = c.Calendar(); err != nil {
		return layout.Config{}, err
	}

	if len(c.Limits) > 0 {
		cfg.Limits = scale.DefaultLimits()
		for name, n := range c.Limits {
			s, err := scale.Parse(name)
			if err != nil {
				return layout.Config{}, err
			}
			cfg.Limits[s] = n
		}
	}

	if cfg.Ruler.Top, err = parseScales(c.Ruler.Top); err != nil {
		return layout.Config{}, err
	}
	if cfg.Ruler.Bottom, err = parseScales(c.Ruler.Bottom); err != nil {
		return layout.Config{}, err
	}

	cfg.SetDefaults()
	return cfg, nil
}

func parseScales(names []string) ([]scale.Scale, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]scale.Scale, len(names))
	for i, n := range names {
		s, err := scale.Parse(n)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Inputs parses the document's categories and events for a layout pass.
// Instants are read in cal. An event without an end is a point in time.
func (d *Document) Inputs(cal calendar.Calendar) ([]layout.Category, []layout.Event, error) {
	cats := make([]layout.Category, len(d.Categories))
	for i, c := range d.Categories {
		cats[i] = layout.Category{ID: c.ID, Label: c.Label, Position: c.Position}
	}

	events := make([]layout.Event, len(d.Events))
	for i, e := range d.Events {
		start, err := parseInstant(cal, e.Start)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeDate, err, "event %q start", e.ID)
		}
		end := start
		if e.End != nil {
			if end, err = parseInstant(cal, e.End); err != nil {
				return nil, nil, errors.Wrap(errors.ErrCodeDate, err, "event %q end", e.ID)
			}
		}
		if end.Before(start) {
			return nil, nil, errors.New(errors.ErrCodeDate, "event %q ends before it starts", e.ID)
		}
		events[i] = layout.Event{
			ID:       e.ID,
			Category: e.Category,
			Start:    start,
			End:      end,
			Row:      e.Row,
			Type:     layout.EventType(strings.ToLower(e.Type)),
		}
	}
	return cats, events, nil
}

// parseInstant reads one raw value. TOML local dates and times carry no
// zone and are taken as wall clock in the calendar's location.
func parseInstant(cal calendar.Calendar, v any) (time.Time, error) {
	if t, ok := v.(time.Time); ok && strings.HasSuffix(t.Location().String(), "-local") {
		y, m, dd := t.Date()
		hh, mm, ss := t.Clock()
		return cal.Date(y, m, dd, hh, mm, ss, t.Nanosecond()/int(time.Millisecond)), nil
	}
	return cal.Parse(v)
}

// Build lays out the document.
func (d *Document) Build(configure func(*layout.Config)) (layout.Result, error) {
	cfg, err := d.Options()
	if err != nil {
		return layout.Result{}, err
	}
	if configure != nil {
		configure(&cfg)
	}
	cats, events, err := d.Inputs(cfg.Calendar)
	if err != nil {
		return layout.Result{}, err
	}
	return layout.Build(cfg, cats, events)
}

// Zoom returns a copy of the document narrowed to target.
func (d *Document) Zoom(target zoom.Target) (*Document, error) {
	cal, err := d.Config.Calendar()
	if err != nil {
		return nil, err
	}
	out := d.Clone()
	out.Config.Scale = target.Scale.String()
	out.Config.Start = cal.Key(target.Begin, scale.Millisecond)
	out.Config.End = cal.Key(target.End, scale.Millisecond)
	if target.MinGridSize > 0 {
		out.Config.MinGridSize = target.MinGridSize
	}
	return out, nil
}

// Clone returns a deep copy of the document's slices and maps. Raw event
// values are shared.
func (d *Document) Clone() *Document {
	out := *d
	out.Categories = append([]Category(nil), d.Categories...)
	out.Events = append([]Event(nil), d.Events...)
	out.Config.Ruler.Top = append([]string(nil), d.Config.Ruler.Top...)
	out.Config.Ruler.Bottom = append([]string(nil), d.Config.Ruler.Bottom...)
	if d.Config.Limits != nil {
		out.Config.Limits = make(map[string]int, len(d.Config.Limits))
		for k, v := range d.Config.Limits {
			out.Config.Limits[k] = v
		}
	}
	return &out
}
