// Package config provides configuration loading and management for the node.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/telemetry"
)

// EnvPrefix is the environment variable prefix for node settings.
const EnvPrefix = "NMOS_NODE"

const (
	// DefaultAddress is the default listen address for the node API
	DefaultAddress = ":3212"

	// DefaultAPIVersion is the wire version spoken when none is configured
	DefaultAPIVersion = "v1.3"

	// DefaultHTTPTimeout is the default timeout for registry requests
	DefaultHTTPTimeout = 10 * time.Second

	// DefaultSelectInterval is the default pause between registry selection attempts
	DefaultSelectInterval = 5 * time.Second

	// DefaultHeartbeatInterval is the default pause between registry heartbeats
	DefaultHeartbeatInterval = 5 * time.Second
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Node describes the node resource this process represents
	Node NodeConfig `yaml:"node"`

	// Server configures the node's HTTP API
	Server ServerConfig `yaml:"server,omitempty"`

	// Registration configures registry selection and heartbeating
	Registration RegistrationConfig `yaml:"registration,omitempty"`

	// Discovery configures DNS-SD browsing and self-advertisement
	Discovery DiscoveryConfig `yaml:"discovery,omitempty"`

	// Telemetry configures tracing and metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// NodeConfig identifies the node resource
type NodeConfig struct {
	// ID is the node's UUID; a random one is generated when empty
	ID string `yaml:"id,omitempty"`

	// Label is the node's human-readable label
	Label string `yaml:"label"`

	// Href is the absolute URL of the node's API, advertised to registries
	Href string `yaml:"href"`

	// APIVersion is the wire version spoken to registries and served on the
	// node API, e.g. "v1.3"
	APIVersion string `yaml:"apiVersion,omitempty"`
}

// ServerConfig configures the node's HTTP API
type ServerConfig struct {
	// Address is the listen address, e.g. ":3212"
	Address string `yaml:"address,omitempty"`
}

// RegistrationConfig configures the registration driver
type RegistrationConfig struct {
	// SelectInterval is the pause between registry selection attempts,
	// e.g. "5s"
	SelectInterval string `yaml:"selectInterval,omitempty"`

	// HeartbeatInterval is the pause between heartbeats, e.g. "5s"
	HeartbeatInterval string `yaml:"heartbeatInterval,omitempty"`

	// HTTPTimeout bounds each request to a registry, e.g. "10s"
	HTTPTimeout string `yaml:"httpTimeout,omitempty"`
}

// DiscoveryConfig configures DNS-SD
type DiscoveryConfig struct {
	// Advertise controls whether the node advertises itself via DNS-SD.
	// Defaults to true; set to explicitly false to disable.
	Advertise *bool `yaml:"advertise,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := c.Node.validate(); err != nil {
		return err
	}

	if err := c.Registration.validate(); err != nil {
		return err
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	return nil
}

func (n *NodeConfig) validate() error {
	if n.Label == "" {
		return fmt.Errorf("node.label is required")
	}

	if n.Href == "" {
		return fmt.Errorf("node.href is required")
	}
	href, err := url.Parse(n.Href)
	if err != nil || !href.IsAbs() {
		return fmt.Errorf("node.href must be an absolute URL, got %q", n.Href)
	}

	if n.ID != "" {
		if _, err := uuid.Parse(n.ID); err != nil {
			return fmt.Errorf("node.id must be a UUID: %w", err)
		}
	}

	version := n.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	v, err := apiver.Parse(version)
	if err != nil {
		return fmt.Errorf("node.apiVersion: %w", err)
	}
	if !v.IsSupported() {
		return fmt.Errorf("node.apiVersion %s is not supported", v)
	}

	return nil
}

func (r *RegistrationConfig) validate() error {
	for name, value := range map[string]string{
		"registration.selectInterval":    r.SelectInterval,
		"registration.heartbeatInterval": r.HeartbeatInterval,
		"registration.httpTimeout":       r.HTTPTimeout,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration (e.g. '5s'): %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, value)
		}
	}
	return nil
}

// GetNodeID returns the configured node ID, generating a random one when
// unset. Call Validate first; an unparsable configured ID panics here.
func (c *Config) GetNodeID() uuid.UUID {
	if c.Node.ID == "" {
		return uuid.New()
	}
	return uuid.MustParse(c.Node.ID)
}

// GetAPIVersion returns the configured API version, using the default if
// not specified. Call Validate first.
func (c *Config) GetAPIVersion() apiver.Version {
	version := c.Node.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	v, err := apiver.Parse(version)
	if err != nil {
		panic(fmt.Sprintf("unvalidated api version %q: %v", version, err))
	}
	return v
}

// GetAddress returns the listen address, using default if not specified
func (c *Config) GetAddress() string {
	if c.Server.Address == "" {
		return DefaultAddress
	}
	return c.Server.Address
}

// GetSelectInterval returns the registry selection interval, using default
// if not specified
func (c *Config) GetSelectInterval() time.Duration {
	return durationOrDefault(c.Registration.SelectInterval, DefaultSelectInterval)
}

// GetHeartbeatInterval returns the heartbeat interval, using default if
// not specified
func (c *Config) GetHeartbeatInterval() time.Duration {
	return durationOrDefault(c.Registration.HeartbeatInterval, DefaultHeartbeatInterval)
}

// GetHTTPTimeout returns the registry request timeout, using default if
// not specified
func (c *Config) GetHTTPTimeout() time.Duration {
	return durationOrDefault(c.Registration.HTTPTimeout, DefaultHTTPTimeout)
}

// GetAdvertise reports whether the node should advertise itself via DNS-SD
func (c *Config) GetAdvertise() bool {
	if c.Discovery.Advertise == nil {
		return true
	}
	return *c.Discovery.Advertise
}

func durationOrDefault(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
