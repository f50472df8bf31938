package logger

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	meterName = "logbricks/logger"

	metricSubmitted         = "logbricks.entries.submitted"
	metricDropped           = "logbricks.entries.dropped"
	metricFiltered          = "logbricks.entries.filtered"
	metricDelivered         = "logbricks.entries.delivered"
	metricDestinationErrors = "logbricks.destination.errors"
	metricQueueDepth        = "logbricks.queue.depth"

	attrSDKName     = "sdk.name"
	attrSDKVersion  = "sdk.version"
	attrReason      = "reason"
	attrDestination = "destination"
	attrOperation   = "operation"
)

// Filter reasons recorded on logbricks.entries.filtered.
const (
	reasonDisabled         = "disabled"
	reasonLevel            = "level"
	reasonInterceptor      = "interceptor"
	reasonInterceptorError = "interceptor_error"
)

// Destination operations recorded on logbricks.destination.errors.
const (
	opWrite = "write"
	opFlush = "flush"
	opClose = "close"
)

// pipelineMetrics holds the instruments of one Logger. Every instrument is usable even when
// creation failed, because the no-op implementation stands in for it.
type pipelineMetrics struct {
	base         metric.MeasurementOption
	submitted    metric.Int64Counter
	dropped      metric.Int64Counter
	filtered     metric.Int64Counter
	delivered    metric.Int64Counter
	destErrors   metric.Int64Counter
	registration metric.Registration
}

func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize logbricks metric %s: %v\n", name, err)
	}
}

func newPipelineMetrics(mp metric.MeterProvider, name, version string, queueDepth func() int) *pipelineMetrics {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter(meterName)
	fallback := noop.Meter{}

	counter := func(metricName, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(metricName, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			logMetricError(metricName, err)
			c, _ = fallback.Int64Counter(metricName)
		}
		return c
	}

	baseAttrs := attribute.NewSet(
		attribute.String(attrSDKName, name),
		attribute.String(attrSDKVersion, version),
	)
	m := &pipelineMetrics{
		base:       metric.WithAttributeSet(baseAttrs),
		submitted:  counter(metricSubmitted, "Entries accepted for processing", "{entry}"),
		dropped:    counter(metricDropped, "Entries dropped because the queue was full", "{entry}"),
		filtered:   counter(metricFiltered, "Entries discarded by level, enabled flag or interceptors", "{entry}"),
		delivered:  counter(metricDelivered, "Entries that reached the destination stage", "{entry}"),
		destErrors: counter(metricDestinationErrors, "Failed destination operations", "{error}"),
	}

	gauge, err := meter.Int64ObservableGauge(metricQueueDepth,
		metric.WithDescription("Entries waiting in the intake queue"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		logMetricError(metricQueueDepth, err)
		return m
	}
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, int64(queueDepth()), metric.WithAttributeSet(baseAttrs))
		return nil
	}, gauge)
	if err != nil {
		logMetricError(metricQueueDepth, err)
		return m
	}
	m.registration = reg
	return m
}

func (m *pipelineMetrics) recordSubmitted(ctx context.Context) {
	m.submitted.Add(ctx, 1, m.base)
}

func (m *pipelineMetrics) recordDropped(ctx context.Context) {
	m.dropped.Add(ctx, 1, m.base)
}

func (m *pipelineMetrics) recordFiltered(ctx context.Context, reason string) {
	m.filtered.Add(ctx, 1, m.base, metric.WithAttributes(attribute.String(attrReason, reason)))
}

func (m *pipelineMetrics) recordDelivered(ctx context.Context) {
	m.delivered.Add(ctx, 1, m.base)
}

func (m *pipelineMetrics) recordDestinationError(ctx context.Context, destination, operation string) {
	m.destErrors.Add(ctx, 1, m.base, metric.WithAttributes(
		attribute.String(attrDestination, destination),
		attribute.String(attrOperation, operation),
	))
}

func (m *pipelineMetrics) unregister() {
	if m.registration != nil {
		_ = m.registration.Unregister()
	}
}
