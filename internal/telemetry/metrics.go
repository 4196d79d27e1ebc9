package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RegistrationMetricsMeterName is the name used for the registration metrics meter
	RegistrationMetricsMeterName = "github.com/nmos-go/node/registration"

	// DiscoveryMetricsMeterName is the name used for the discovery metrics meter
	DiscoveryMetricsMeterName = "github.com/nmos-go/node/discovery"
)

// RegistrationMetrics holds the OpenTelemetry instruments for the
// registration driver and update propagator.
type RegistrationMetrics struct {
	registrationsTotal  metric.Int64Counter
	heartbeatsTotal     metric.Int64Counter
	droppedUpdatesTotal metric.Int64Counter
	bulkDuration        metric.Float64Histogram
}

// NewRegistrationMetrics creates a new RegistrationMetrics instance with the
// given meter provider. If provider is nil, it returns nil (no-op metrics).
func NewRegistrationMetrics(provider metric.MeterProvider) (*RegistrationMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistrationMetricsMeterName)

	registrationsTotal, err := meter.Int64Counter(
		"nmos_node_registrations_total",
		metric.WithDescription("Number of resource registration requests by result"),
		metric.WithUnit("{registration}"),
	)
	if err != nil {
		return nil, err
	}

	heartbeatsTotal, err := meter.Int64Counter(
		"nmos_node_heartbeats_total",
		metric.WithDescription("Number of registry heartbeats by result"),
		metric.WithUnit("{heartbeat}"),
	)
	if err != nil {
		return nil, err
	}

	droppedUpdatesTotal, err := meter.Int64Counter(
		"nmos_node_dropped_updates_total",
		metric.WithDescription("Number of resource updates dropped because no registry was active"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return nil, err
	}

	bulkDuration, err := meter.Float64Histogram(
		"nmos_node_bulk_registration_duration_seconds",
		metric.WithDescription("Duration of bulk registration passes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	return &RegistrationMetrics{
		registrationsTotal:  registrationsTotal,
		heartbeatsTotal:     heartbeatsTotal,
		droppedUpdatesTotal: droppedUpdatesTotal,
		bulkDuration:        bulkDuration,
	}, nil
}

// RecordRegistration records one registration request and its result.
func (m *RegistrationMetrics) RecordRegistration(ctx context.Context, kind string, result string) {
	if m == nil || m.registrationsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
		attribute.String("result", result),
	}

	m.registrationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordHeartbeat records one heartbeat and its result.
func (m *RegistrationMetrics) RecordHeartbeat(ctx context.Context, result string) {
	if m == nil || m.heartbeatsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("result", result),
	}

	m.heartbeatsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDroppedUpdate records a resource update dropped for lack of an
// active registry.
func (m *RegistrationMetrics) RecordDroppedUpdate(ctx context.Context, kind string) {
	if m == nil || m.droppedUpdatesTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("kind", kind),
	}

	m.droppedUpdatesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBulkDuration records the duration of a bulk registration pass.
func (m *RegistrationMetrics) RecordBulkDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.bulkDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}

	m.bulkDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// DiscoveryMetrics holds the OpenTelemetry instruments for registry discovery.
type DiscoveryMetrics struct {
	candidatesTotal metric.Int64Counter
}

// NewDiscoveryMetrics creates a new DiscoveryMetrics instance with the given
// meter provider. If provider is nil, it returns nil (no-op metrics).
func NewDiscoveryMetrics(provider metric.MeterProvider) (*DiscoveryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(DiscoveryMetricsMeterName)

	candidatesTotal, err := meter.Int64Counter(
		"nmos_node_candidates_discovered_total",
		metric.WithDescription("Number of registration API candidates discovered via DNS-SD"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, err
	}

	return &DiscoveryMetrics{
		candidatesTotal: candidatesTotal,
	}, nil
}

// RecordCandidate records one discovered registration API candidate.
func (m *DiscoveryMetrics) RecordCandidate(ctx context.Context, legacy bool) {
	if m == nil || m.candidatesTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("legacy", legacy),
	}

	m.candidatesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
