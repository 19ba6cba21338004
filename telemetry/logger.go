// Package telemetry wires structured logging, tracing and metrics for the
// rest of the tool.
package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks. Output goes to stderr so
// the JSON result on stdout stays machine-readable.
func NewLogger(service string) *Logger {
	return NewLoggerTo(service, os.Stderr)
}

// NewLoggerTo creates a logger writing to the given sink.
func NewLoggerTo(service string, w io.Writer) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(w).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// LogReconcileStart logs the start of a reconciliation.
func (l *Logger) LogReconcileStart(ctx context.Context, kind, naturalKey, state string, dryRun bool) {
	l.WithContext(ctx).Info().
		Str("kind", kind).
		Str("natural_key", naturalKey).
		Str("state", state).
		Bool("dry_run", dryRun).
		Msg("reconcile started")
}

// LogReconcileResult logs the outcome of a reconciliation.
func (l *Logger) LogReconcileResult(ctx context.Context, kind, naturalKey string, changed bool, durationMs float64) {
	l.WithContext(ctx).Info().
		Str("kind", kind).
		Str("natural_key", naturalKey).
		Bool("changed", changed).
		Float64("duration_ms", durationMs).
		Msg("reconcile completed")
}

// LogReconcileError logs a failed reconciliation.
func (l *Logger) LogReconcileError(ctx context.Context, kind, naturalKey string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("kind", kind).
		Str("natural_key", naturalKey).
		Msg("reconcile failed")
}
