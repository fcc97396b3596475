package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat stamps lines to the millisecond, the precision instants
// carry.
const logTimeFormat = "15:04:05.000"

// newLogger returns the CLI logger writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// stage times one step of a command. Its outcome is logged with the stage
// name and a "took" field. Not safe for concurrent use.
type stage struct {
	logger *log.Logger
	name   string
	start  time.Time
}

// startStage begins a stage on the logger attached to ctx.
func startStage(ctx context.Context, name string) *stage {
	l := loggerFrom(ctx)
	l.Debug("stage started", "stage", name)
	return &stage{logger: l, name: name, start: time.Now()}
}

func (s *stage) took() time.Duration {
	return time.Since(s.start).Round(time.Millisecond)
}

// done logs msg at info level followed by keyvals.
func (s *stage) done(msg string, keyvals ...any) {
	s.logger.Info(msg, append(keyvals, "stage", s.name, "took", s.took())...)
}

// failed records err at debug level. The command reports it to the user.
func (s *stage) failed(err error) {
	s.logger.Debug("stage failed", "stage", s.name, "took", s.took(), "err", err)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFrom returns the logger attached to ctx, or log.Default().
func loggerFrom(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
