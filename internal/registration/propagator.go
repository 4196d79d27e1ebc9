package registration

import (
	"context"
	"log/slog"

	"github.com/nmos-go/node/internal/model"
	"github.com/nmos-go/node/internal/telemetry"
)

// Propagator forwards incremental resource changes to the active registry.
// Changes arriving while no registry is active are dropped; the next bulk
// registration pass carries the current graph anyway.
type Propagator struct {
	events  <-chan model.Event
	current *Current
	metrics *telemetry.RegistrationMetrics
}

// PropagatorOption is a function that configures the propagator
type PropagatorOption func(*Propagator)

// WithPropagatorMetrics sets the registration metrics bundle for the propagator
func WithPropagatorMetrics(metrics *telemetry.RegistrationMetrics) PropagatorOption {
	return func(p *Propagator) {
		p.metrics = metrics
	}
}

// NewPropagator creates a propagator consuming events and targeting
// whatever registry the shared cell currently holds.
func NewPropagator(events <-chan model.Event, current *Current, opts ...PropagatorOption) *Propagator {
	p := &Propagator{
		events:  events,
		current: current,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run consumes events until the context is cancelled or the event channel
// closes.
func (p *Propagator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-p.events:
			if !ok {
				return nil
			}
			p.propagate(ctx, event)
		}
	}
}

func (p *Propagator) propagate(ctx context.Context, event model.Event) {
	client := p.current.Get()
	if client == nil {
		slog.Warn("Dropping resource update, no active registry",
			"event", event.Kind,
			"kind", event.Resource.Kind(),
			"id", event.Resource.ResourceID())
		if p.metrics != nil {
			p.metrics.RecordDroppedUpdate(ctx, string(event.Resource.Kind()))
		}
		return
	}

	var err error
	switch event.Kind {
	case model.EventAdded:
		err = client.Register(ctx, event.Resource)
	case model.EventUpdated:
		err = client.Update(ctx, event.Resource)
	case model.EventRemoved:
		err = client.Delete(ctx, event.Resource)
	default:
		slog.Error("Unknown resource event kind", "event", event.Kind)
		return
	}

	if err != nil {
		slog.Error("Failed to propagate resource change",
			"event", event.Kind,
			"kind", event.Resource.Kind(),
			"id", event.Resource.ResourceID(),
			"error", err)
		return
	}

	slog.Debug("Propagated resource change",
		"event", event.Kind,
		"kind", event.Resource.Kind(),
		"id", event.Resource.ResourceID())
}
