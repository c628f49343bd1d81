package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records OpenTelemetry instruments exported through the
// Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	turnCounter   otelmetric.Int64Counter
	turnDuration  otelmetric.Float64Histogram
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	turnCounter, err := meter.Int64Counter(
		"assistant.turns",
		otelmetric.WithDescription("Conversation turns processed"),
	)
	if err != nil {
		return nil, err
	}

	turnDuration, err := meter.Float64Histogram(
		"assistant.turn.duration",
		otelmetric.WithDescription("Turn processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	jobCounter, err := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	if err != nil {
		return nil, err
	}

	jobDuration, err := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider: provider,
		turnCounter:   turnCounter,
		turnDuration:  turnDuration,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
	}, nil
}

// RecordTurn counts one finished turn. outcome is "ok" or "error".
func (o *Observability) RecordTurn(ctx context.Context, kind, resolution, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("resolution", resolution),
		attribute.String("outcome", outcome),
	)
	o.turnCounter.Add(ctx, 1, attrs)
	o.turnDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) RecordJob(ctx context.Context, taskType, status string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	)
	o.jobCounter.Add(ctx, 1, attrs)
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	return o.meterProvider.Shutdown(ctx)
}
