// Package node assembles the resource graph, discovery, registration and
// the HTTP API into a runnable node.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/nmos-go/node/internal/api"
	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/config"
	"github.com/nmos-go/node/internal/discovery"
	"github.com/nmos-go/node/internal/httpclient"
	"github.com/nmos-go/node/internal/model"
	"github.com/nmos-go/node/internal/registration"
	"github.com/nmos-go/node/internal/telemetry"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	// eventBuffer bounds how far the graph can run ahead of the
	// propagator; events past the buffer are dropped with a warning.
	eventBuffer = 64

	// recordBuffer bounds the raw advertisement stream between the
	// browser and the consumer.
	recordBuffer = 16
)

// Options is a function that configures the node builder
type Options func(*nodeConfig) error

// nodeConfig collects everything New needs to assemble a node. It supports
// dependency injection for testing while providing production defaults.
type nodeConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	browser    discovery.Browser
	advertiser discovery.Advertiser
	httpClient httpclient.Client

	// HTTP server options
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithConfig sets the node configuration
func WithConfig(c *config.Config) Options {
	return func(cfg *nodeConfig) error {
		if c == nil {
			return fmt.Errorf("config cannot be nil")
		}
		cfg.config = c
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Options {
	return func(cfg *nodeConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithBrowser allows injecting a custom discovery browser (for testing)
func WithBrowser(b discovery.Browser) Options {
	return func(cfg *nodeConfig) error {
		cfg.browser = b
		return nil
	}
}

// WithAdvertiser allows injecting a custom discovery advertiser (for testing)
func WithAdvertiser(a discovery.Advertiser) Options {
	return func(cfg *nodeConfig) error {
		cfg.advertiser = a
		return nil
	}
}

// WithHTTPClient allows injecting a custom registration HTTP client (for testing)
func WithHTTPClient(c httpclient.Client) Options {
	return func(cfg *nodeConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for metrics
func WithMeterProvider(mp metric.MeterProvider) Options {
	return func(cfg *nodeConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP tracing
func WithTracerProvider(tp trace.TracerProvider) Options {
	return func(cfg *nodeConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// Node owns every long-running component of the NMOS node and runs them
// under a shared lifetime.
type Node struct {
	config *config.Config
	self   *model.Node
	graph  *model.Graph

	browser    discovery.Browser
	advertiser discovery.Advertiser
	consumer   *discovery.Consumer
	records    chan discovery.Record

	driver     registration.Driver
	propagator *registration.Propagator

	httpServer *http.Server
}

// New assembles a node from the configuration. The returned node does not
// run anything until Run is called.
func New(opts ...Options) (*Node, error) {
	cfg := &nodeConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	nodeID := cfg.config.GetNodeID()
	version := cfg.config.GetAPIVersion()

	// The graph publishes a change event for every mutation; the
	// propagator drains them towards the current registry.
	events := make(chan model.Event, eventBuffer)
	graph := model.NewGraph(model.WithEvents(events))

	self, err := buildSelf(cfg.config, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to build node resource: %w", err)
	}
	if err := graph.InsertNode(self); err != nil {
		return nil, fmt.Errorf("failed to seed node resource: %w", err)
	}

	discoveryComponents, err := buildDiscoveryComponents(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build discovery components: %w", err)
	}

	driver, propagator, err := buildRegistrationComponents(
		cfg, graph, discoveryComponents.queue, events, nodeID, version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build registration components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, graph, nodeID, version, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	return &Node{
		config:     cfg.config,
		self:       self,
		graph:      graph,
		browser:    discoveryComponents.browser,
		advertiser: discoveryComponents.advertiser,
		consumer:   discoveryComponents.consumer,
		records:    discoveryComponents.records,
		driver:     driver,
		propagator: propagator,
		httpServer: httpServer,
	}, nil
}

// buildSelf constructs the node's own resource from the configuration.
func buildSelf(cfg *config.Config, nodeID uuid.UUID) (*model.Node, error) {
	self, err := model.NewNodeBuilder(cfg.Node.Label, cfg.Node.Href).Build()
	if err != nil {
		return nil, err
	}
	// The configured identity survives restarts; the builder's random ID
	// does not.
	self.Core.ID = nodeID
	self.Hostname = self.Href.Hostname()
	return self, nil
}

// discoveryComponents bundles the discovery side of the node.
type discoveryComponents struct {
	browser    discovery.Browser
	advertiser discovery.Advertiser
	consumer   *discovery.Consumer
	queue      *discovery.CandidateQueue
	records    chan discovery.Record
}

func buildDiscoveryComponents(cfg *nodeConfig) (*discoveryComponents, error) {
	slog.Info("Initializing discovery components")

	if cfg.browser == nil {
		cfg.browser = discovery.NewZeroconfBrowser()
	}
	if cfg.advertiser == nil {
		cfg.advertiser = discovery.NewZeroconfAdvertiser()
	}

	queue := discovery.NewCandidateQueue()

	var consumerOpts []discovery.ConsumerOption
	if cfg.meterProvider != nil {
		discoveryMetrics, err := telemetry.NewDiscoveryMetrics(cfg.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create discovery metrics: %w", err)
		}
		if discoveryMetrics != nil {
			consumerOpts = append(consumerOpts, discovery.WithConsumerMetrics(discoveryMetrics))
			slog.Info("Discovery metrics enabled")
		}
	}

	return &discoveryComponents{
		browser:    cfg.browser,
		advertiser: cfg.advertiser,
		consumer:   discovery.NewConsumer(queue, consumerOpts...),
		queue:      queue,
		records:    make(chan discovery.Record, recordBuffer),
	}, nil
}

func buildRegistrationComponents(
	cfg *nodeConfig,
	graph *model.Graph,
	queue *discovery.CandidateQueue,
	events <-chan model.Event,
	nodeID uuid.UUID,
	version apiver.Version,
) (registration.Driver, *registration.Propagator, error) {
	slog.Info("Initializing registration components")

	if cfg.httpClient == nil {
		cfg.httpClient = httpclient.NewDefaultClient(cfg.config.GetHTTPTimeout())
	}

	var driverOpts []registration.Option
	var propagatorOpts []registration.PropagatorOption
	if cfg.meterProvider != nil {
		registrationMetrics, err := telemetry.NewRegistrationMetrics(cfg.meterProvider)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create registration metrics: %w", err)
		}
		if registrationMetrics != nil {
			driverOpts = append(driverOpts, registration.WithMetrics(registrationMetrics))
			propagatorOpts = append(propagatorOpts, registration.WithPropagatorMetrics(registrationMetrics))
			slog.Info("Registration metrics enabled")
		}
	}

	current := &registration.Current{}
	driver := registration.NewDriver(graph, queue, cfg.httpClient, current, registration.DriverConfig{
		NodeID:            nodeID,
		Version:           version,
		SelectInterval:    cfg.config.GetSelectInterval(),
		HeartbeatInterval: cfg.config.GetHeartbeatInterval(),
	}, driverOpts...)

	propagator := registration.NewPropagator(events, current, propagatorOpts...)

	return driver, propagator, nil
}

func buildHTTPServer(
	cfg *nodeConfig,
	graph *model.Graph,
	nodeID uuid.UUID,
	version apiver.Version,
	driver registration.Driver,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if cfg.middlewares == nil {
		cfg.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(cfg.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing wrap the whole chain so every request is
	// captured, including ones rejected further in.
	if cfg.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(cfg.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			cfg.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, cfg.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}
	if cfg.tracerProvider != nil {
		tracingMiddleware := telemetry.TracingMiddleware(cfg.tracerProvider)
		cfg.middlewares = append([]func(http.Handler) http.Handler{tracingMiddleware}, cfg.middlewares...)
	}

	router := api.NewServer(graph, nodeID, version, driver, api.WithMiddlewares(cfg.middlewares...))

	server := &http.Server{
		Addr:         cfg.config.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.readTimeout,
		WriteTimeout: cfg.writeTimeout,
		IdleTimeout:  cfg.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", server.Addr)
	return server, nil
}

// Graph returns the node's resource graph. Inserting or removing resources
// on it is how callers publish media topology.
func (n *Node) Graph() *model.Graph {
	return n.graph
}

// Self returns the node's own resource.
func (n *Node) Self() *model.Node {
	return n.self
}

// Driver exposes the registration driver, mainly for status inspection.
func (n *Node) Driver() registration.Driver {
	return n.driver
}

// HTTPServer returns the HTTP server (useful for testing to get the actual port)
func (n *Node) HTTPServer() *http.Server {
	return n.httpServer
}

// Run starts every component and blocks until the context is cancelled or
// one of them fails. The first failure tears the rest down.
func (n *Node) Run(ctx context.Context) error {
	var advertisePort int
	if n.config.GetAdvertise() {
		port, err := portFromAddress(n.httpServer.Addr)
		if err != nil {
			return fmt.Errorf("cannot advertise node API: %w", err)
		}
		advertisePort = port
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := n.browser.Browse(ctx, n.records); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("discovery browser failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		n.consumer.Run(ctx, n.records)
		return nil
	})

	group.Go(func() error {
		return n.driver.Run(ctx)
	})

	group.Go(func() error {
		return n.propagator.Run(ctx)
	})

	if n.config.GetAdvertise() {
		instance := n.self.Core.Label
		group.Go(func() error {
			if err := n.advertiser.Advertise(ctx, instance, advertisePort); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("node advertisement failed: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		slog.Info("Node API listening", "address", n.httpServer.Addr)
		if err := n.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		if err := n.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err := group.Wait()
	slog.Info("Node shutdown complete")
	return err
}

func portFromAddress(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("address %q has no port: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("address %q has no numeric port: %w", addr, err)
	}
	return port, nil
}
