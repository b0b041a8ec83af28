package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability holds the assistant's domain instruments. A nil *Observability
// is valid and records nothing.
type Observability struct {
	meterProvider      *metric.MeterProvider
	detections         otelmetric.Int64Counter
	classifierFailures otelmetric.Int64Counter
	pendingTransitions otelmetric.Int64Counter
	productResolutions otelmetric.Int64Counter
	classifierLatency  otelmetric.Float64Histogram
}

// New exports through the Prometheus registerer so the instruments show up on /metrics.
func New(serviceName string, reg promclient.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	o, err := NewWithReader(serviceName, exporter)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(o.meterProvider)
	return o, nil
}

// NewWithReader builds the instruments on an arbitrary reader; tests pass a ManualReader.
func NewWithReader(serviceName string, reader metric.Reader) (*Observability, error) {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	meter := provider.Meter(serviceName)

	o := &Observability{meterProvider: provider}
	var err error

	if o.detections, err = meter.Int64Counter(
		"assistant.intent.detections",
		otelmetric.WithDescription("Intent detections by source and primary intent"),
	); err != nil {
		return nil, err
	}
	if o.classifierFailures, err = meter.Int64Counter(
		"assistant.classifier.failures",
		otelmetric.WithDescription("Classifier calls that degraded to the general intent"),
	); err != nil {
		return nil, err
	}
	if o.pendingTransitions, err = meter.Int64Counter(
		"assistant.pending.transitions",
		otelmetric.WithDescription("Pending action state transitions"),
	); err != nil {
		return nil, err
	}
	if o.productResolutions, err = meter.Int64Counter(
		"assistant.product.resolutions",
		otelmetric.WithDescription("Product name lookups by matching tier"),
	); err != nil {
		return nil, err
	}
	if o.classifierLatency, err = meter.Float64Histogram(
		"assistant.classifier.duration",
		otelmetric.WithDescription("Classifier call duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Observability) RecordDetection(ctx context.Context, source, intent string) {
	if o == nil {
		return
	}
	o.detections.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("source", source),
		attribute.String("intent", intent),
	))
}

func (o *Observability) RecordClassifierFailure(ctx context.Context, kind string) {
	if o == nil {
		return
	}
	o.classifierFailures.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("kind", kind)))
}

func (o *Observability) RecordClassifierDuration(ctx context.Context, d time.Duration, outcome string) {
	if o == nil {
		return
	}
	o.classifierLatency.Record(ctx, float64(d.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) RecordPendingTransition(ctx context.Context, transition string) {
	if o == nil {
		return
	}
	o.pendingTransitions.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("transition", transition)))
}

func (o *Observability) RecordProductResolution(ctx context.Context, tier string) {
	if o == nil {
		return
	}
	o.productResolutions.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("tier", tier)))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
