package logging

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts logrus to Logger. Key-value args become logrus fields;
// a dangling key is recorded under "!BADKEY" like slog does.
type LogrusLogger struct {
	e *logrus.Entry
}

func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{e: logrus.NewEntry(l)}
}

func (g *LogrusLogger) Debug(ctx context.Context, msg string, args ...any) {
	g.entry(ctx, args).Debug(msg)
}

func (g *LogrusLogger) Info(ctx context.Context, msg string, args ...any) {
	g.entry(ctx, args).Info(msg)
}

func (g *LogrusLogger) Warn(ctx context.Context, msg string, args ...any) {
	g.entry(ctx, args).Warn(msg)
}

func (g *LogrusLogger) Error(ctx context.Context, msg string, args ...any) {
	g.entry(ctx, args).Error(msg)
}

func (g *LogrusLogger) With(args ...any) Logger {
	return &LogrusLogger{e: g.e.WithFields(toFields(args))}
}

func (g *LogrusLogger) entry(ctx context.Context, args []any) *logrus.Entry {
	e := g.e
	if ctx != nil {
		e = e.WithContext(ctx)
	}
	return e.WithFields(toFields(withContextArgs(ctx, args)))
}

func toFields(args []any) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		f[fmt.Sprint(args[i])] = args[i+1]
	}
	return f
}
