package inbox

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/JuanKhanjar/inbox"
)

// otelInstrumentation holds OpenTelemetry instrumentation for the inbox service.
type otelInstrumentation struct {
	enabled bool

	// Tracing
	tracingEnabled bool
	tracer         trace.Tracer

	// Metrics
	metricsEnabled bool

	// Submission
	submitLatency metric.Float64Histogram
	submitCount   metric.Int64Counter
	submitErrors  metric.Int64Counter

	// Reads
	getLatency    metric.Float64Histogram
	getCount      metric.Int64Counter
	getErrors     metric.Int64Counter
	listLatency   metric.Float64Histogram
	listCount     metric.Int64Counter
	listErrors    metric.Int64Counter
	searchLatency metric.Float64Histogram
	searchCount   metric.Int64Counter
	searchErrors  metric.Int64Counter

	// Mutations
	updateLatency metric.Float64Histogram
	updateCount   metric.Int64Counter
	updateErrors  metric.Int64Counter
	deleteLatency metric.Float64Histogram
	deleteCount   metric.Int64Counter
	deleteErrors  metric.Int64Counter
	bulkLatency   metric.Float64Histogram
	bulkCount     metric.Int64Counter
	bulkErrors    metric.Int64Counter

	// Statistics
	statsLatency metric.Float64Histogram
	statsCount   metric.Int64Counter
	statsErrors  metric.Int64Counter
}

// newOtelInstrumentation creates new OTel instrumentation from options.
func newOtelInstrumentation(opts *options) (*otelInstrumentation, error) {
	o := &otelInstrumentation{
		enabled:        opts.tracingEnabled || opts.metricsEnabled,
		tracingEnabled: opts.tracingEnabled,
		metricsEnabled: opts.metricsEnabled,
	}

	if !o.enabled {
		return o, nil
	}

	// Initialize tracer
	if opts.tracingEnabled {
		tp := opts.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		o.tracer = tp.Tracer(instrumentationName)
	}

	// Initialize metrics
	if opts.metricsEnabled {
		mp := opts.meterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
		if err := o.initMetrics(mp); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// instrumentGroup initializes one latency/count/errors triple.
func instrumentGroup(meter metric.Meter, op, what string) (metric.Float64Histogram, metric.Int64Counter, metric.Int64Counter, error) {
	latency, err := meter.Float64Histogram(
		"inbox."+op+".duration",
		metric.WithDescription("Duration of "+what+" operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	count, err := meter.Int64Counter(
		"inbox."+op+".count",
		metric.WithDescription("Number of "+what+" operations"),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	errCount, err := meter.Int64Counter(
		"inbox."+op+".errors",
		metric.WithDescription("Number of "+what+" errors"),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	return latency, count, errCount, nil
}

// initMetrics initializes all metric instruments.
func (o *otelInstrumentation) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(instrumentationName)

	var err error
	if o.submitLatency, o.submitCount, o.submitErrors, err = instrumentGroup(meter, "submit", "submit"); err != nil {
		return err
	}
	if o.getLatency, o.getCount, o.getErrors, err = instrumentGroup(meter, "get", "get"); err != nil {
		return err
	}
	if o.listLatency, o.listCount, o.listErrors, err = instrumentGroup(meter, "list", "list"); err != nil {
		return err
	}
	if o.searchLatency, o.searchCount, o.searchErrors, err = instrumentGroup(meter, "search", "search"); err != nil {
		return err
	}
	if o.updateLatency, o.updateCount, o.updateErrors, err = instrumentGroup(meter, "update", "update"); err != nil {
		return err
	}
	if o.deleteLatency, o.deleteCount, o.deleteErrors, err = instrumentGroup(meter, "delete", "delete"); err != nil {
		return err
	}
	if o.bulkLatency, o.bulkCount, o.bulkErrors, err = instrumentGroup(meter, "bulk", "bulk"); err != nil {
		return err
	}
	if o.statsLatency, o.statsCount, o.statsErrors, err = instrumentGroup(meter, "stats", "stats"); err != nil {
		return err
	}
	return nil
}

// startSpan starts a new span if tracing is enabled.
// The returned func records the error and ends the span.
func (o *otelInstrumentation) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if !o.tracingEnabled || o.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := o.tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// recordSubmit records submission metrics.
func (o *otelInstrumentation) recordSubmit(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}
	o.submitLatency.Record(ctx, duration.Seconds())
	o.submitCount.Add(ctx, 1)
	if err != nil {
		o.submitErrors.Add(ctx, 1)
	}
}

// recordGet records single-message read metrics.
func (o *otelInstrumentation) recordGet(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}
	o.getLatency.Record(ctx, duration.Seconds())
	o.getCount.Add(ctx, 1)
	if err != nil {
		o.getErrors.Add(ctx, 1)
	}
}

// recordList records list operation metrics.
func (o *otelInstrumentation) recordList(ctx context.Context, duration time.Duration, operation string, resultCount int, err error) {
	if !o.metricsEnabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Int("result_count", resultCount),
	)
	o.listLatency.Record(ctx, duration.Seconds(), attrs)
	o.listCount.Add(ctx, 1, attrs)
	if err != nil {
		o.listErrors.Add(ctx, 1, attrs)
	}
}

// recordSearch records search operation metrics.
func (o *otelInstrumentation) recordSearch(ctx context.Context, duration time.Duration, resultCount int, err error) {
	if !o.metricsEnabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.Int("result_count", resultCount),
	)
	o.searchLatency.Record(ctx, duration.Seconds(), attrs)
	o.searchCount.Add(ctx, 1, attrs)
	if err != nil {
		o.searchErrors.Add(ctx, 1, attrs)
	}
}

// recordUpdate records read-flag mutation metrics.
func (o *otelInstrumentation) recordUpdate(ctx context.Context, duration time.Duration, operation string, err error) {
	if !o.metricsEnabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
	)
	o.updateLatency.Record(ctx, duration.Seconds(), attrs)
	o.updateCount.Add(ctx, 1, attrs)
	if err != nil {
		o.updateErrors.Add(ctx, 1, attrs)
	}
}

// recordDelete records delete operation metrics.
func (o *otelInstrumentation) recordDelete(ctx context.Context, duration time.Duration, deleted int64, err error) {
	if !o.metricsEnabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.Int64("deleted_count", deleted),
	)
	o.deleteLatency.Record(ctx, duration.Seconds(), attrs)
	o.deleteCount.Add(ctx, 1, attrs)
	if err != nil {
		o.deleteErrors.Add(ctx, 1, attrs)
	}
}

// recordBulk records bulk operation metrics.
func (o *otelInstrumentation) recordBulk(ctx context.Context, duration time.Duration, action string, affected int64, err error) {
	if !o.metricsEnabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("action", action),
		attribute.Int64("affected_count", affected),
	)
	o.bulkLatency.Record(ctx, duration.Seconds(), attrs)
	o.bulkCount.Add(ctx, 1, attrs)
	if err != nil {
		o.bulkErrors.Add(ctx, 1, attrs)
	}
}

// recordStats records statistics report metrics.
func (o *otelInstrumentation) recordStats(ctx context.Context, duration time.Duration, err error) {
	if !o.metricsEnabled {
		return
	}
	o.statsLatency.Record(ctx, duration.Seconds())
	o.statsCount.Add(ctx, 1)
	if err != nil {
		o.statsErrors.Add(ctx, 1)
	}
}
