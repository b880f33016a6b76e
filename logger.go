package shadergraph

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards all records. Enabled returns false so callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(NopLogger())
}

// SetLogger configures the logger used by shadergraph. By default nothing is logged.
// Passing nil restores the silent default. Safe for concurrent use.
//
// Log levels used:
//   - [slog.LevelDebug]: graph mutations (node creation, links, deletions)
//   - [slog.LevelWarn]: rejected user actions and repaired inconsistencies
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = NopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by shadergraph.
// Sub-packages call this to share configuration without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
