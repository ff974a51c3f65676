// Package telemetry provides the engine's in-process OpenTelemetry
// instrumentation: a package-level meter for operation counters and
// latency histograms, and a package-level tracer for per-operation spans.
//
// Only the OTel API is used here, never the SDK: with no metric/trace
// provider registered, the API's built-in no-op implementations make every
// call in this package a cheap, allocation-light stub. A host process that
// wants real telemetry registers its own SDK providers via
// otel.SetMeterProvider / otel.SetTracerProvider before opening an Engine;
// this package neither knows nor cares whether one is registered.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/engine"

// Metrics holds the OpenTelemetry instruments recorded around engine
// operations.
type Metrics struct {
	// OpDuration tracks operation latency. Use with the "op" attribute.
	OpDuration metric.Float64Histogram

	// OpTotal counts operation invocations. Use with "op" and "status".
	OpTotal metric.Int64Counter

	// TraversalVisited tracks how many nodes a single traversal visited.
	// Use with the "kind" attribute (bfs, dfs, conversation_thread).
	TraversalVisited metric.Int64Histogram
}

// NewMetrics creates the instrument set against the given MeterProvider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(scopeName)
	var err error
	met := &Metrics{}

	if met.OpDuration, err = m.Float64Histogram("memgraph.engine.op.duration",
		metric.WithDescription("Latency of engine operations."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if met.OpTotal, err = m.Int64Counter("memgraph.engine.op.total",
		metric.WithDescription("Total engine operations by op and status."),
	); err != nil {
		return nil, err
	}
	if met.TraversalVisited, err = m.Int64Histogram("memgraph.engine.traversal.visited",
		metric.WithDescription("Nodes visited per traversal call."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics instance, built lazily
// from otel.GetMeterProvider() on first use. Safe to call before any SDK
// provider is registered; the instruments simply record into the no-op
// provider until one is.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("telemetry: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Tracer returns the package-level tracer for engine spans.
func Tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// StartOp starts a span named "engine.<op>" and returns a function that
// records the operation's duration and outcome and ends the span. Call the
// returned function with the operation's error (nil on success) via defer:
//
//	ctx, end := telemetry.StartOp(ctx, "add_prompt")
//	defer func() { end(err) }()
func StartOp(ctx context.Context, op string) (context.Context, func(err error)) {
	ctx, span := Tracer().Start(ctx, "engine."+op)
	start := time.Now()
	return ctx, func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		dur := time.Since(start).Seconds()
		attrs := metric.WithAttributes(attribute.String("op", op), attribute.String("status", status))
		DefaultMetrics().OpDuration.Record(ctx, dur, attrs)
		DefaultMetrics().OpTotal.Add(ctx, 1, attrs)
		span.End()
	}
}

// RecordTraversal records how many nodes a bounded traversal visited.
func RecordTraversal(ctx context.Context, kind string, visited int) {
	DefaultMetrics().TraversalVisited.Record(ctx, int64(visited),
		metric.WithAttributes(attribute.String("kind", kind)))
}
