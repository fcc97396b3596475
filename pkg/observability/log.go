package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements all
// three hook sets.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks logging to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{Logger: l}
}

func (h *LogHooks) OnLayoutStart(_ context.Context, scale string, events int) {
	h.Logger.Debug("layout start", "scale", scale, "events", events)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, scale string, placements int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("layout failed", "scale", scale, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("layout complete", "scale", scale, "placements", placements, "duration", d)
}

func (h *LogHooks) OnZoom(_ context.Context, bucket string, d time.Duration, err error) {
	h.Logger.Debug("zoom", "bucket", bucket, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, kind string) {
	h.Logger.Debug("cache hit", "kind", kind)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, kind string) {
	h.Logger.Debug("cache miss", "kind", kind)
}

func (h *LogHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.Logger.Debug("cache set", "kind", kind, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.Logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
