// Package slog adapts a *slog.Logger to accessor.Logger.
package slog

import (
	"context"
	stdslog "log/slog"

	"github.com/unkn0wn-root/accessor"
)

var _ accessor.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New tags every record with component=accessor. A nil l uses slog.Default().
func New(l *stdslog.Logger) Logger {
	if l == nil {
		l = stdslog.Default()
	}
	return Logger{L: l.With("component", "accessor")}
}

func (s Logger) Debug(msg string, f accessor.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f accessor.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f accessor.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f accessor.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(level stdslog.Level, msg string, f accessor.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, level) {
		return
	}
	attrs := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			attrs = append(attrs, stdslog.String(k, err.Error()))
			continue
		}
		attrs = append(attrs, stdslog.Any(k, v))
	}
	s.L.LogAttrs(ctx, level, msg, attrs...)
}
