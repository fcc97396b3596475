package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/timeline/pkg/cache"
	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/core/zoom"
	"github.com/matzehuels/timeline/pkg/observability"
	"github.com/matzehuels/timeline/pkg/timeline"
)

// Runner lays out documents with caching. It holds no per-call state and
// may be shared between goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Now is the clock behind "current" windows. Nil means time.Now.
	Now func() time.Time
}

// NewRunner returns a runner. A nil cache disables caching, a nil keyer
// means the DefaultKeyer and a nil logger the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Layout lays out doc.
func (r *Runner) Layout(ctx context.Context, doc *timeline.Document) (layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, doc, Options{})
	return res, err
}

// LayoutWithCacheInfo lays out doc and reports whether the result came from
// the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, doc *timeline.Document, opts Options) (layout.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return layout.Result{}, false, err
	}
	cfg, err := doc.Options()
	if err != nil {
		return layout.Result{}, false, err
	}
	now := cfg.Calendar.In(r.now())
	cfg.Now = func() time.Time { return now }
	cfg.Logger = r.Logger

	hash, err := DocumentHash(doc)
	if err != nil {
		return layout.Result{}, false, err
	}
	var keyOpts cache.LayoutKeyOpts
	if followsClock(doc.Config) {
		keyOpts.Now = cfg.Calendar.Floor(now, layout.WindowUnit(cfg.Scale))
	}
	key := r.Keyer.LayoutKey(hash, keyOpts)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if res, err := timeline.UnmarshalResult(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				r.Logger.Debug("layout cache hit", "key", key)
				return res.At(now), true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, cfg.Scale.String(), len(doc.Events))

	cats, events, err := doc.Inputs(cfg.Calendar)
	if err != nil {
		hooks.OnLayoutComplete(ctx, cfg.Scale.String(), 0, time.Since(start), err)
		return layout.Result{}, false, err
	}
	res, err := layout.Build(cfg, cats, events)
	hooks.OnLayoutComplete(ctx, cfg.Scale.String(), len(res.Placements), time.Since(start), err)
	if err != nil {
		return layout.Result{}, false, err
	}

	r.Logger.Info("computed layout",
		"scale", res.Scale,
		"grids", len(res.Grid),
		"placements", len(res.Placements),
		"width", res.Width,
		"duration", time.Since(start))

	if data, err := timeline.MarshalResult(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, false, nil
}

// Zoom resolves a ruler bucket of doc's layout and lays out the narrowed
// document.
func (r *Runner) Zoom(ctx context.Context, doc *timeline.Document, req ZoomRequest) (*ZoomResult, error) {
	start := time.Now()
	z, err := r.zoom(ctx, doc, req)
	observability.Pipeline().OnZoom(ctx, req.Bucket, time.Since(start), err)
	return z, err
}

func (r *Runner) zoom(ctx context.Context, doc *timeline.Document, req ZoomRequest) (*ZoomResult, error) {
	cfg, err := doc.Options()
	if err != nil {
		return nil, err
	}
	target, err := zoom.Resolve(req.Bucket, zoom.Options{
		Calendar:      cfg.Calendar,
		Wrap:          req.Wrap,
		ViewportWidth: req.ViewportWidth,
		MinGridSize:   cfg.MinGridSize,
	})
	if err != nil {
		return nil, err
	}
	narrowed, err := doc.Zoom(target)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("zoom", "bucket", req.Bucket, "scale", target.Scale, "begin", target.Begin, "end", target.End)

	res, err := r.Layout(ctx, narrowed)
	if err != nil {
		return nil, err
	}
	return &ZoomResult{Target: target, Document: narrowed, Result: res}, nil
}

// Close closes the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
