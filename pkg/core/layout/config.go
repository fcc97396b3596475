package layout

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/timeline/pkg/core/calendar"
	"github.com/matzehuels/timeline/pkg/core/lane"
	"github.com/matzehuels/timeline/pkg/core/scale"
	"github.com/matzehuels/timeline/pkg/errors"
)

// Window tokens accepted by Config.Start and Config.End.
const (
	TokenCurrent = "current"
	TokenAuto    = "auto"
)

// Defaults applied by [Config.SetDefaults].
const (
	DefaultScale        = scale.Hour
	DefaultRange        = 3
	DefaultRowHeight    = 75.0
	DefaultMarginHeight = 2.0
	DefaultMinGridSize  = 75.0
	DefaultMarker       = "normal"

	// Border is the gap between two physical rows.
	Border = 1.0

	minMarker = 12.0
)

// EventType selects how events are drawn.
type EventType string

const (
	TypeBar   EventType = "bar"
	TypePoint EventType = "point"
	TypeMixed EventType = "mixed"
)

func (t EventType) valid() bool {
	switch t {
	case "", TypeBar, TypePoint, TypeMixed:
		return true
	}
	return false
}

// Ruler selects the ruler lines drawn above and below the grid. Lines left
// empty fall back to a single top line at the configured scale.
type Ruler struct {
	Top    []scale.Scale `json:"top,omitempty"`
	Bottom []scale.Scale `json:"bottom,omitempty"`

	// TruncateLowers drops lines finer than the configured scale.
	TruncateLowers bool `json:"truncateLowers,omitempty"`
}

// Config holds everything a layout pass needs besides categories and events.
type Config struct {
	Scale scale.Scale `json:"scale"`

	// Start is "current", empty, or an instant in any form calendar.Parse
	// accepts. End is "auto", "current", or an instant.
	Start string `json:"start"`
	End   string `json:"end"`
	// Range is the number of higher-scale units an "auto" end adds.
	Range int `json:"range"`

	MinGridSize  float64 `json:"minGridSize"`
	RowHeight    float64 `json:"rowHeight"`
	MarginHeight float64 `json:"marginHeight"`
	NumRows      int     `json:"numRows,omitempty"`

	Type   EventType `json:"type"`
	Marker string    `json:"marker"` // small, normal, large, or a size in pixels

	Policy   lane.Policy `json:"policy"`
	Separate bool        `json:"separate"`

	Calendar       calendar.Calendar `json:"-"`
	DisableLimiter bool              `json:"disableLimiter,omitempty"`
	Limits         scale.Limits      `json:"limits,omitempty"`

	Ruler Ruler `json:"ruler"`

	// Now is the clock behind the "current" token and the present-time
	// marker. Nil means time.Now.
	Now func() time.Time `json:"-"`

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger `json:"-"`
}

// DefaultConfig returns a config with every default set.
func DefaultConfig() Config {
	c := Config{Scale: DefaultScale}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	if c.Start == "" {
		c.Start = TokenCurrent
	}
	if c.End == "" {
		c.End = TokenAuto
	}
	if c.Range == 0 {
		c.Range = DefaultRange
	}
	if c.MinGridSize == 0 {
		c.MinGridSize = DefaultMinGridSize
	}
	if c.RowHeight == 0 {
		c.RowHeight = DefaultRowHeight
	}
	if c.MarginHeight == 0 {
		c.MarginHeight = DefaultMarginHeight
	}
	if c.Type == "" {
		c.Type = TypeBar
	}
	if c.Marker == "" {
		c.Marker = DefaultMarker
	}
	if c.Calendar.Location == nil {
		c.Calendar = calendar.Default()
	}
}

// Validate reports the first invalid field as a CONFIG_ERROR.
func (c Config) Validate() error {
	switch {
	case !c.Scale.Valid():
		return errors.New(errors.ErrCodeConfig, "invalid scale %d", int(c.Scale))
	case !c.Scale.Calendar():
		return errors.New(errors.ErrCodeConfig, "scale %s cannot be laid out", c.Scale)
	case c.RowHeight <= 0:
		return errors.New(errors.ErrCodeConfig, "row height must be positive, got %v", c.RowHeight)
	case c.MinGridSize <= 0:
		return errors.New(errors.ErrCodeConfig, "grid size must be positive, got %v", c.MinGridSize)
	case c.MarginHeight < 0 || 2*c.MarginHeight >= c.RowHeight:
		return errors.New(errors.ErrCodeConfig, "margin %v does not fit row height %v", c.MarginHeight, c.RowHeight)
	case c.NumRows < 0:
		return errors.New(errors.ErrCodeConfig, "row count must not be negative, got %d", c.NumRows)
	case !c.Type.valid():
		return errors.New(errors.ErrCodeConfig, "unknown event type %q", c.Type)
	case c.Policy.String() == "unknown":
		return errors.New(errors.ErrCodeConfig, "invalid parallel event policy %d", int(c.Policy))
	case isAuto(c.End) && c.Range < 1:
		return errors.New(errors.ErrCodeConfig, "auto range must be at least 1, got %d", c.Range)
	}
	if _, err := markerSize(c.Marker, 1); err != nil {
		return err
	}
	for _, s := range append(append([]scale.Scale{}, c.Ruler.Top...), c.Ruler.Bottom...) {
		if !s.Calendar() {
			return errors.New(errors.ErrCodeConfig, "ruler line scale %s has no calendar grid", s)
		}
	}
	return nil
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Calendar.In(c.Now())
	}
	return c.Calendar.In(time.Now())
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(io.Discard)
}

func isCurrent(tok string) bool {
	return tok == "" || strings.EqualFold(tok, TokenCurrent)
}

func isAuto(tok string) bool {
	return tok == "" || strings.EqualFold(tok, TokenAuto)
}

// markerSize resolves a marker setting against the largest square that
// fits a grid cell and a row.
func markerSize(setting string, max float64) (float64, error) {
	var size float64
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "small":
		size = max / 4
	case "", "normal":
		size = max / 2
	case "large":
		size = max * 0.75
	default:
		v, err := strconv.ParseFloat(setting, 64)
		if err != nil || v <= 0 {
			return 0, errors.New(errors.ErrCodeConfig, "invalid marker size %q", setting)
		}
		size = v
	}
	if size < minMarker {
		size = minMarker
	}
	return size, nil
}

// Category is a row of the timeline.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	// Position is an optional 1-based row index. Categories without one
	// keep their input order around the positioned ones.
	Position int `json:"position,omitempty"`
}

// Event is the part of a stored event the engine reads.
type Event struct {
	ID       string    `json:"id"`
	Category string    `json:"category,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	// Row is a 1-based row hint for events without a category.
	Row  int       `json:"row,omitempty"`
	Type EventType `json:"type,omitempty"`
}
