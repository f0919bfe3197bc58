package lexical

import (
	"context"
	"log/slog"
	"time"
)

// BuildLogEvent describes one builder run.
type BuildLogEvent struct {
	Lines    int
	Skipped  int
	Duration time.Duration
	Err      error
}

// BuildLogger records builder runs.
type BuildLogger interface {
	LogBuild(BuildLogEvent)
}

// BuildLoggerFunc adapts a function to BuildLogger.
type BuildLoggerFunc func(BuildLogEvent)

// LogBuild implements BuildLogger.
func (f BuildLoggerFunc) LogBuild(event BuildLogEvent) {
	if f != nil {
		f(event)
	}
}

// ReconcileLogEvent describes one Reconcile run.
type ReconcileLogEvent struct {
	Flags    WriteFlags
	Added    int
	Removed  int
	Modified int
	Retained int
	Duration time.Duration
	Err      error
}

// ReconcileLogger records Reconcile runs.
type ReconcileLogger interface {
	LogReconcile(ReconcileLogEvent)
}

// ReconcileLoggerFunc adapts a function to ReconcileLogger.
type ReconcileLoggerFunc func(ReconcileLogEvent)

// LogReconcile implements ReconcileLogger.
func (f ReconcileLoggerFunc) LogReconcile(event ReconcileLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogBuild(BuildLogEvent)          {}
func (noopLogger) LogReconcile(ReconcileLogEvent)  {}
func (noopLogger) LogEvaluation(EvaluatorLogEvent) {}

// Logger satisfies every logger interface of the package.
type Logger interface {
	BuildLogger
	ReconcileLogger
	EvaluatorLogger
}

// SlogLogger forwards events to a *slog.Logger: errors at error level,
// everything else at debug.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return noopLogger{}
	}
	return slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) LogBuild(event BuildLogEvent) {
	level := slog.LevelDebug
	if event.Err != nil {
		level = slog.LevelError
	}
	l.logger.LogAttrs(context.Background(), level, "lexical build",
		slog.Int("lines", event.Lines),
		slog.Int("skipped", event.Skipped),
		slog.Duration("duration", event.Duration),
		slog.Any("error", event.Err),
	)
}

func (l slogLogger) LogReconcile(event ReconcileLogEvent) {
	level := slog.LevelDebug
	if event.Err != nil {
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("flags", event.Flags.String()),
		slog.Int("added", event.Added),
		slog.Int("removed", event.Removed),
		slog.Int("modified", event.Modified),
		slog.Int("retained", event.Retained),
		slog.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
	}
	if lint := event.Flags.Lint(); lint != nil && event.Err == nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("lint", lint.Error()))
	}
	l.logger.LogAttrs(context.Background(), level, "lexical reconcile", attrs...)
}

func (l slogLogger) LogEvaluation(event EvaluatorLogEvent) {
	level := slog.LevelDebug
	if event.Err != nil {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(context.Background(), level, "lexical filter",
		slog.String("engine", event.Engine),
		slog.String("expr", event.Expr),
		slog.String("key", event.Key),
		slog.Duration("duration", event.Duration),
		slog.Any("error", event.Err),
	)
}
