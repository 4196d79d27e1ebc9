package registration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/nmos-go/node/internal/model"
	"github.com/nmos-go/node/internal/telemetry"
)

func startPropagator(t *testing.T, events <-chan model.Event, current *Current, opts ...PropagatorOption) {
	t.Helper()

	propagator := NewPropagator(events, current, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = propagator.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestPropagator_ForwardsChangesToActiveRegistry(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry(t)
	current := &Current{}
	current.Set(newTestClient(t, registry))

	events := make(chan model.Event, 8)
	startPropagator(t, events, current)

	node := buildTestNode(t)
	events <- model.Event{Kind: model.EventAdded, Resource: node}
	events <- model.Event{Kind: model.EventUpdated, Resource: node}
	events <- model.Event{Kind: model.EventRemoved, Resource: node}

	require.Eventually(t, func() bool {
		return len(registry.recorded()) == 3
	}, 5*time.Second, 10*time.Millisecond)

	recorded := registry.recorded()
	assert.Equal(t, http.MethodPost, recorded[0].Method)
	assert.Equal(t, http.MethodPost, recorded[1].Method)
	assert.Equal(t, http.MethodDelete, recorded[2].Method)
	assert.Equal(t, "/x-nmos/registration/v1.3/resource/nodes/"+node.ResourceID().String(), recorded[2].Path)
}

func TestPropagator_AddedUsesAlreadyExistsRecovery(t *testing.T) {
	t.Parallel()

	registry := newFakeRegistry(t)
	registry.postStatus = func(n int) int {
		if n == 1 {
			return http.StatusOK
		}
		return http.StatusCreated
	}
	current := &Current{}
	current.Set(newTestClient(t, registry))

	events := make(chan model.Event, 1)
	startPropagator(t, events, current)

	events <- model.Event{Kind: model.EventAdded, Resource: buildTestNode(t)}

	// POST, DELETE of the stale entry, re-POST.
	require.Eventually(t, func() bool {
		return len(registry.recorded()) == 3
	}, 5*time.Second, 10*time.Millisecond)

	recorded := registry.recorded()
	assert.Equal(t, http.MethodDelete, recorded[1].Method)
}

func TestPropagator_DropsUpdatesWithoutActiveRegistry(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := telemetry.NewRegistrationMetrics(mp)
	require.NoError(t, err)

	current := &Current{}
	events := make(chan model.Event, 2)
	startPropagator(t, events, current, WithPropagatorMetrics(metrics))

	node := buildTestNode(t)
	events <- model.Event{Kind: model.EventAdded, Resource: node}
	events <- model.Event{Kind: model.EventUpdated, Resource: node}

	require.Eventually(t, func() bool {
		return droppedUpdatesTotal(t, reader) == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPropagator_RecoversWhenRegistryReturns(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := telemetry.NewRegistrationMetrics(mp)
	require.NoError(t, err)

	current := &Current{}
	events := make(chan model.Event, 4)
	startPropagator(t, events, current, WithPropagatorMetrics(metrics))

	node := buildTestNode(t)

	// Dropped: no registry yet. Wait for the drop to be counted before
	// installing the registry, otherwise this event could be forwarded too.
	events <- model.Event{Kind: model.EventAdded, Resource: node}
	require.Eventually(t, func() bool {
		return droppedUpdatesTotal(t, reader) == 1
	}, 5*time.Second, 10*time.Millisecond)

	registry := newFakeRegistry(t)
	current.Set(newTestClient(t, registry))

	events <- model.Event{Kind: model.EventUpdated, Resource: node}

	require.Eventually(t, func() bool {
		return len(registry.recorded()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, http.MethodPost, registry.recorded()[0].Method)
	assert.EqualValues(t, 1, droppedUpdatesTotal(t, reader))
}

// droppedUpdatesTotal sums nmos_node_dropped_updates_total across all
// attribute sets.
func droppedUpdatesTotal(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		return 0
	}
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "nmos_node_dropped_updates_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}
