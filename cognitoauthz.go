package cognitoauthz

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

var (
	// LogLevel is the log level used by the cognitoauthz logger.
	LogLevel = new(slog.LevelVar)

	// StatsForNerds captures metrics from key set fetches and authorization decisions.
	StatsForNerds = metrics.NewSet()

	logger atomic.Pointer[slog.Logger]
)

// Logger returns the global cognitoauthz logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// SetLogger sets the [*slog.Logger] used by cognitoauthz.
// The default handler disables logging.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func init() {
	SetLogger(slog.New(discardHandler{}))
}

// discardHandler is an [slog.Handler] which is always disabled and therefore logs nothing.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
