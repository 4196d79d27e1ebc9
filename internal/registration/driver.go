package registration

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/discovery"
	"github.com/nmos-go/node/internal/httpclient"
	"github.com/nmos-go/node/internal/model"
	"github.com/nmos-go/node/internal/telemetry"
)

const (
	// DefaultSelectInterval is the default interval between registry
	// selection attempts while no registry is active
	DefaultSelectInterval = 5 * time.Second

	// DefaultHeartbeatInterval is the default interval between node health
	// heartbeats while registered
	DefaultHeartbeatInterval = 5 * time.Second
)

// Metric result labels.
const (
	resultSuccess  = "success"
	resultError    = "error"
	resultNotFound = "not_found"
)

// DriverConfig carries the identity and timing the driver runs with.
type DriverConfig struct {
	// NodeID is the node resource the driver registers and heartbeats for
	NodeID uuid.UUID

	// Version is the API version spoken to every selected registry
	Version apiver.Version

	// SelectInterval is the pause between selection attempts
	SelectInterval time.Duration

	// HeartbeatInterval is the pause between heartbeats
	HeartbeatInterval time.Duration
}

func (c *DriverConfig) selectInterval() time.Duration {
	if c.SelectInterval <= 0 {
		return DefaultSelectInterval
	}
	return c.SelectInterval
}

func (c *DriverConfig) heartbeatInterval() time.Duration {
	if c.HeartbeatInterval <= 0 {
		return DefaultHeartbeatInterval
	}
	return c.HeartbeatInterval
}

// Driver keeps the node registered with the best discovered registry.
// It selects candidates from the discovery queue, bulk-registers the
// resource graph in dependency order, then heartbeats until the registry
// is lost, at which point it goes back to selecting.
type Driver interface {
	// Run blocks until the context is cancelled
	Run(ctx context.Context) error

	// Status returns a snapshot of the driver state
	Status() Status
}

// defaultDriver is the default implementation of Driver
type defaultDriver struct {
	graph   *model.Graph
	queue   *discovery.CandidateQueue
	http    httpclient.Client
	current *Current
	config  DriverConfig

	tracker *tracker
	metrics *telemetry.RegistrationMetrics
}

// Option is a function that configures the driver
type Option func(*defaultDriver)

// WithMetrics sets the registration metrics bundle for the driver
func WithMetrics(metrics *telemetry.RegistrationMetrics) Option {
	return func(d *defaultDriver) {
		d.metrics = metrics
	}
}

// NewDriver creates a driver with injected dependencies. current is the
// shared registry cell also read by the propagator.
func NewDriver(
	graph *model.Graph,
	queue *discovery.CandidateQueue,
	httpClient httpclient.Client,
	current *Current,
	config DriverConfig,
	opts ...Option,
) Driver {
	d := &defaultDriver{
		graph:   graph,
		queue:   queue,
		http:    httpClient,
		current: current,
		config:  config,
		tracker: newTracker(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Status returns a snapshot of the driver state
func (d *defaultDriver) Status() Status {
	return d.tracker.snapshot()
}

// Run blocks until the context is cancelled
func (d *defaultDriver) Run(ctx context.Context) error {
	slog.Info("Starting registration driver",
		"node_id", d.config.NodeID,
		"api_version", d.config.Version.String())

	ticker := time.NewTicker(d.config.selectInterval())
	defer ticker.Stop()

	d.tracker.setPhase(PhaseSelecting, "")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Registration driver stopping")
			return nil
		case <-ticker.C:
			candidate := d.queue.PopCompatible(d.config.Version)
			if candidate == nil {
				continue
			}

			slog.Info("Selected registry", "registry", candidate.String())
			client := NewClient(d.http, candidate.URL, d.config.Version)
			d.current.Set(client)

			d.serveRegistry(ctx, client)

			// Registry lost or context cancelled; back to selecting.
			d.current.Clear()
			d.tracker.setPhase(PhaseSelecting, "")
		}
	}
}

// serveRegistry runs the registered lifetime against one registry: bulk
// registration, then heartbeats until loss or cancellation.
func (d *defaultDriver) serveRegistry(ctx context.Context, client *Client) {
	registryURL := client.BaseURL().String()

	d.tracker.setPhase(PhaseRegistering, registryURL)
	if err := d.bulkRegister(ctx, client); err != nil {
		slog.Error("Bulk registration failed, abandoning registry",
			"registry", registryURL,
			"error", err)
		d.tracker.failure()
		return
	}

	d.tracker.setPhase(PhaseHeartbeating, registryURL)
	d.heartbeatLoop(ctx, client)
}

// bulkRegister posts the whole resource graph in dependency order. Any
// failure aborts the pass; there is no partial resume.
func (d *defaultDriver) bulkRegister(ctx context.Context, client *Client) error {
	start := time.Now()

	err := d.registerAll(ctx, client)

	if d.metrics != nil {
		d.metrics.RecordBulkDuration(ctx, time.Since(start), err == nil)
	}
	if err != nil {
		return err
	}

	slog.Info("Bulk registration complete",
		"registry", client.BaseURL().String(),
		"duration", time.Since(start))
	return nil
}

func (d *defaultDriver) registerAll(ctx context.Context, client *Client) error {
	var ordered []model.Registerable
	for _, n := range d.graph.Nodes() {
		ordered = append(ordered, n)
	}
	for _, dev := range d.graph.Devices() {
		ordered = append(ordered, dev)
	}
	for _, s := range d.graph.Sources() {
		ordered = append(ordered, s)
	}
	for _, f := range d.graph.Flows() {
		ordered = append(ordered, f)
	}
	for _, s := range d.graph.Senders() {
		ordered = append(ordered, s)
	}
	for _, r := range d.graph.Receivers() {
		ordered = append(ordered, r)
	}

	for _, res := range ordered {
		err := client.Register(ctx, res)
		d.recordRegistration(ctx, res, err)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *defaultDriver) recordRegistration(ctx context.Context, r model.Registerable, err error) {
	if d.metrics == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	d.metrics.RecordRegistration(ctx, string(r.Kind()), result)
}

// heartbeatLoop posts node health until the registry is lost. A 404 on the
// first beat after a registration pass means the registry forgot the node;
// that triggers exactly one automatic re-registration. Any later 404, any
// other non-2xx status, or a transport failure is a loss.
func (d *defaultDriver) heartbeatLoop(ctx context.Context, client *Client) {
	ticker := time.NewTicker(d.config.heartbeatInterval())
	defer ticker.Stop()

	firstBeat := true
	reRegistered := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := client.Heartbeat(ctx, d.config.NodeID)
			if err != nil {
				slog.Warn("Heartbeat transport failure, registry lost",
					"registry", client.BaseURL().String(),
					"error", err)
				d.recordHeartbeat(ctx, resultError)
				d.tracker.failure()
				return
			}

			switch {
			case status >= 200 && status < 300:
				firstBeat = false
				d.recordHeartbeat(ctx, resultSuccess)
				d.tracker.heartbeatAccepted()

			case status == http.StatusNotFound && firstBeat && !reRegistered:
				slog.Warn("Registry does not know this node, re-registering once",
					"registry", client.BaseURL().String())
				d.recordHeartbeat(ctx, resultNotFound)

				d.tracker.setPhase(PhaseRegistering, client.BaseURL().String())
				if err := d.bulkRegister(ctx, client); err != nil {
					slog.Error("Re-registration failed, abandoning registry",
						"registry", client.BaseURL().String(),
						"error", err)
					d.tracker.failure()
					return
				}
				d.tracker.setPhase(PhaseHeartbeating, client.BaseURL().String())
				reRegistered = true

			default:
				slog.Warn("Heartbeat rejected, registry lost",
					"registry", client.BaseURL().String(),
					"status", status)
				d.recordHeartbeat(ctx, resultError)
				d.tracker.failure()
				return
			}
		}
	}
}

func (d *defaultDriver) recordHeartbeat(ctx context.Context, result string) {
	if d.metrics == nil {
		return
	}
	d.metrics.RecordHeartbeat(ctx, result)
}
