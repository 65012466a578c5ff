package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds the service's instruments
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	FeatureRequestsTotal metric.Int64Counter
	SynthesisDuration    metric.Float64Histogram
	FeaturesGenerated    metric.Int64Counter
	FeatureRequestErrors metric.Int64Counter
	DatasetRows          metric.Int64Gauge
}

// CreateBusinessMetrics registers the service instruments on meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.FeatureRequestsTotal, err = meter.Int64Counter(
		"feature_requests_total",
		metric.WithDescription("Total number of feature requests by operation"),
	); err != nil {
		return nil, err
	}
	if m.SynthesisDuration, err = meter.Float64Histogram(
		"feature_synthesis_duration_seconds",
		metric.WithDescription("Time spent planning and computing features"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.FeaturesGenerated, err = meter.Int64Counter(
		"features_generated_total",
		metric.WithDescription("Total number of feature columns produced"),
	); err != nil {
		return nil, err
	}
	if m.FeatureRequestErrors, err = meter.Int64Counter(
		"feature_request_errors_total",
		metric.WithDescription("Total number of rejected or failed feature requests"),
	); err != nil {
		return nil, err
	}
	if m.DatasetRows, err = meter.Int64Gauge(
		"dataset_rows",
		metric.WithDescription("Rows of the loaded dataset by entity"),
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordFeatureRequest records one feature request. errKind is empty on
// success and names the failure class otherwise.
func (m *BusinessMetrics) RecordFeatureRequest(ctx context.Context, operation string, duration time.Duration, features int, errKind string) {
	if m == nil {
		return
	}
	op := attribute.String("operation", operation)
	status := "success"
	if errKind != "" {
		status = "failure"
		m.FeatureRequestErrors.Add(ctx, 1, metric.WithAttributes(op, attribute.String("error.type", errKind)))
	}
	m.FeatureRequestsTotal.Add(ctx, 1, metric.WithAttributes(op, attribute.String("status", status)))
	m.SynthesisDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(op, attribute.String("status", status)))
	if features > 0 {
		m.FeaturesGenerated.Add(ctx, int64(features), metric.WithAttributes(op))
	}
}

// RecordDataset publishes the row counts of the loaded dataset.
func (m *BusinessMetrics) RecordDataset(ctx context.Context, customers, loans int) {
	if m == nil {
		return
	}
	m.DatasetRows.Record(ctx, int64(customers), metric.WithAttributes(attribute.String("entity", "customers")))
	m.DatasetRows.Record(ctx, int64(loans), metric.WithAttributes(attribute.String("entity", "loans")))
}
