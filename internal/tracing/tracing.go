// Package tracing provides OpenTelemetry tracing for debounce hosts.
//
// It exports a root span per host run and child spans for every bounce and
// reconcile. The trace ID is derived from the run ID so all spans from one
// run correlate.
package tracing

import (
	"cmp"
	"context"
	"encoding/hex"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is also the default service name.
const TracerName = "bounce"

// maxKeyWidth caps the debounce.key attribute. Watch keys are file paths.
const maxKeyWidth = 200

// Reconcile outcomes recorded on reconcile spans.
const (
	OutcomeDispatched = "dispatched"
	OutcomePending    = "pending"
	OutcomeUnderflow  = "underflow"
	OutcomeFailed     = "failed"
)

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	initOnce       sync.Once
	enabled        bool
	mu             sync.RWMutex
)

// Config selects the OTLP collector spans are exported to.
type Config struct {
	// Endpoint is a gRPC host:port. Empty disables tracing.
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Insecure       bool
}

// Init sets up export to cfg.Endpoint. Only the first call has any effect;
// until it succeeds every Start function returns a no-op span.
func Init(cfg Config) error {
	var initErr error
	initOnce.Do(func() {
		if cfg.Endpoint == "" {
			slog.Debug("Tracing disabled: no endpoint configured")
			return
		}

		provider, err := newProvider(cfg)
		if err != nil {
			slog.Warn("Failed to create OTLP exporter", "endpoint", cfg.Endpoint, "error", err)
			initErr = err
			return
		}
		otel.SetTracerProvider(provider)

		mu.Lock()
		tracerProvider = provider
		tracer = provider.Tracer(TracerName)
		enabled = true
		mu.Unlock()

		slog.Info("Tracing initialized", "endpoint", cfg.Endpoint)
	})
	return initErr
}

func newProvider(cfg Config) (*sdktrace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cmp.Or(cfg.ServiceName, TracerName)),
		semconv.ServiceVersion(cmp.Or(cfg.ServiceVersion, "unknown")),
		attribute.String("host.name", hostname()),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

// Shutdown flushes buffered spans and stops export.
func Shutdown(ctx context.Context) error {
	mu.RLock()
	defer mu.RUnlock()

	if tracerProvider == nil {
		return nil
	}

	return tracerProvider.Shutdown(ctx)
}

// Enabled reports whether spans are being exported.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Span wraps an optional OpenTelemetry span. All methods are safe on a span
// created while tracing is disabled.
type Span struct {
	span trace.Span
	ctx  context.Context
}

// Context returns the context carrying the span.
func (s *Span) Context() context.Context {
	return s.ctx
}

// End ends the span.
func (s *Span) End() {
	if s.span != nil {
		s.span.End()
	}
}

// SetError records err on the span.
func (s *Span) SetError(err error) {
	if s.span != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
}

// SetAttributes sets attrs on the span.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	if s.span != nil {
		s.span.SetAttributes(attrs...)
	}
}

// RunSpan is the root span of a host run.
type RunSpan struct {
	Span
	traceID trace.TraceID
}

// TraceID returns the hex trace ID shared by every span of the run.
func (r *RunSpan) TraceID() string {
	return r.traceID.String()
}

// StartRun starts the root span for one run of a debounce host. host names
// the host, for example "watch".
func StartRun(ctx context.Context, runID, host string) *RunSpan {
	traceID := deriveTraceID(runID)
	if !Enabled() {
		return &RunSpan{Span: Span{ctx: ctx}, traceID: traceID}
	}

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{},
		TraceFlags: trace.FlagsSampled,
	})
	ctx = trace.ContextWithSpanContext(ctx, spanCtx)

	ctx, span := tracer.Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.host", host),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)

	return &RunSpan{
		Span:    Span{span: span, ctx: ctx},
		traceID: traceID,
	}
}

// StartBounce starts a span for a bounce on key.
func StartBounce(ctx context.Context, key string, delay time.Duration) *Span {
	if !Enabled() {
		return &Span{ctx: ctx}
	}

	ctx, span := tracer.Start(ctx, "bounce",
		trace.WithAttributes(
			attribute.String("debounce.key", truncate(key, maxKeyWidth)),
			attribute.Int64("debounce.delay_ms", delay.Milliseconds()),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return &Span{span: span, ctx: ctx}
}

// SetPending records the pending count after a bounce or reconcile.
func (s *Span) SetPending(n int) {
	if s.span != nil {
		s.span.SetAttributes(attribute.Int("debounce.pending", n))
	}
}

// StartReconcile starts a span for a reconcile on key.
func StartReconcile(ctx context.Context, key string) *Span {
	if !Enabled() {
		return &Span{ctx: ctx}
	}

	ctx, span := tracer.Start(ctx, "reconcile",
		trace.WithAttributes(
			attribute.String("debounce.key", truncate(key, maxKeyWidth)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return &Span{span: span, ctx: ctx}
}

// SetOutcome records how a reconcile resolved.
func (s *Span) SetOutcome(outcome string) {
	if s.span != nil {
		s.span.SetAttributes(attribute.String("debounce.outcome", outcome))
	}
}

// deriveTraceID maps a UUID run ID onto the trace ID bytes. Other run IDs
// are folded into 16 bytes with XOR.
func deriveTraceID(runID string) trace.TraceID {
	var id trace.TraceID
	if b, err := hex.DecodeString(strings.ReplaceAll(runID, "-", "")); err == nil && len(b) == len(id) {
		copy(id[:], b)
		return id
	}
	for i, c := range []byte(runID) {
		id[i%len(id)] ^= c
	}
	return id
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// truncate cuts s to at most width cells, ending in "..." when cut. It never
// splits a rune, so the result stays valid UTF-8.
func truncate(s string, width int) string {
	return ansi.Truncate(s, width, "...")
}
