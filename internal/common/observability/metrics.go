package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability records wizard step transitions through an otel meter
// exported to Prometheus, and starts spans on the global tracer.
type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	tracer          trace.Tracer
	stepTransitions otelmetric.Int64Counter
	stepDuration    otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	stepTransitions, err := meter.Int64Counter(
		"wizard.step.transitions",
		otelmetric.WithDescription("Number of wizard step transitions"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"wizard.step.duration",
		otelmetric.WithDescription("Time spent on a wizard step before leaving it"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		tracer:          otel.Tracer(serviceName),
		stepTransitions: stepTransitions,
		stepDuration:    stepDuration,
	}, nil
}

// StartSpan starts a span on the global tracer provider (noop unless one is installed).
func (o *Observability) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return otel.Tracer("consultation-booking").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name)
}

// RecordStepTransition counts a move from one step to another. direction is
// "next", "back" or "submit".
func (o *Observability) RecordStepTransition(ctx context.Context, from, to int, direction string) {
	if o == nil || o.stepTransitions == nil {
		return
	}
	o.stepTransitions.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.Int("from", from),
		attribute.Int("to", to),
		attribute.String("direction", direction),
	))
}

func (o *Observability) RecordStepDuration(ctx context.Context, step int, duration time.Duration) {
	if o == nil || o.stepDuration == nil {
		return
	}
	o.stepDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.Int("step", step),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
