package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewRegistrationMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewRegistrationMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewRegistrationMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.registrationsTotal)
		assert.NotNil(t, metrics.heartbeatsTotal)
		assert.NotNil(t, metrics.droppedUpdatesTotal)
		assert.NotNil(t, metrics.bulkDuration)
	})
}

func TestRegistrationMetrics_Record(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *RegistrationMetrics
		// Should not panic
		metrics.RecordRegistration(context.Background(), "node", "success")
		metrics.RecordHeartbeat(context.Background(), "success")
		metrics.RecordDroppedUpdate(context.Background(), "sender")
		metrics.RecordBulkDuration(context.Background(), time.Second, true)
	})

	t.Run("records instruments into the registration scope", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewRegistrationMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)

		metrics.RecordRegistration(context.Background(), "node", "success")
		metrics.RecordRegistration(context.Background(), "device", "already_exists")
		metrics.RecordHeartbeat(context.Background(), "not_found")
		metrics.RecordDroppedUpdate(context.Background(), "flow")
		metrics.RecordBulkDuration(context.Background(), 250*time.Millisecond, true)

		var rm metricdata.ResourceMetrics
		err = reader.Collect(context.Background(), &rm)
		require.NoError(t, err)
		require.NotEmpty(t, rm.ScopeMetrics)

		var foundScope bool
		for _, scope := range rm.ScopeMetrics {
			if scope.Scope.Name == RegistrationMetricsMeterName {
				foundScope = true
				assert.Len(t, scope.Metrics, 4)
			}
		}
		assert.True(t, foundScope, "expected to find registration metrics scope")
	})
}

func TestNewDiscoveryMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewDiscoveryMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("records discovered candidates", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewDiscoveryMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)

		metrics.RecordCandidate(context.Background(), false)
		metrics.RecordCandidate(context.Background(), true)

		var rm metricdata.ResourceMetrics
		err = reader.Collect(context.Background(), &rm)
		require.NoError(t, err)

		var foundScope bool
		for _, scope := range rm.ScopeMetrics {
			if scope.Scope.Name == DiscoveryMetricsMeterName {
				foundScope = true
				assert.NotEmpty(t, scope.Metrics)
			}
		}
		assert.True(t, foundScope, "expected to find discovery metrics scope")
	})
}
