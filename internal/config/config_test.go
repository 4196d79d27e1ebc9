package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/telemetry"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("loads a complete config", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, `
node:
  id: 67c25159-ce25-4000-a66c-f31fff890265
  label: studio-cam-1
  href: http://cam1.studio.example.com:3212/
  apiVersion: v1.3
server:
  address: ":9000"
registration:
  selectInterval: 2s
  heartbeatInterval: 4s
  httpTimeout: 3s
discovery:
  advertise: false
telemetry:
  enabled: false
`)

		cfg, err := LoadConfig(WithConfigPath(path))
		require.NoError(t, err)

		assert.Equal(t, uuid.MustParse("67c25159-ce25-4000-a66c-f31fff890265"), cfg.GetNodeID())
		assert.Equal(t, "studio-cam-1", cfg.Node.Label)
		assert.Equal(t, apiver.V1_3, cfg.GetAPIVersion())
		assert.Equal(t, ":9000", cfg.GetAddress())
		assert.Equal(t, 2*time.Second, cfg.GetSelectInterval())
		assert.Equal(t, 4*time.Second, cfg.GetHeartbeatInterval())
		assert.Equal(t, 3*time.Second, cfg.GetHTTPTimeout())
		assert.False(t, cfg.GetAdvertise())
	})

	t.Run("applies defaults for omitted fields", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, `
node:
  label: minimal-node
  href: http://node.local/
`)

		cfg, err := LoadConfig(WithConfigPath(path))
		require.NoError(t, err)

		assert.Equal(t, apiver.V1_3, cfg.GetAPIVersion())
		assert.Equal(t, DefaultAddress, cfg.GetAddress())
		assert.Equal(t, DefaultSelectInterval, cfg.GetSelectInterval())
		assert.Equal(t, DefaultHeartbeatInterval, cfg.GetHeartbeatInterval())
		assert.Equal(t, DefaultHTTPTimeout, cfg.GetHTTPTimeout())
		assert.True(t, cfg.GetAdvertise())
		assert.NotEqual(t, uuid.Nil, cfg.GetNodeID())
	})

	t.Run("fails on missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
		require.Error(t, err)
	})

	t.Run("fails without a path", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("fails on malformed YAML", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "node: [not a map")
		_, err := LoadConfig(WithConfigPath(path))
		require.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Node: NodeConfig{
				Label: "node",
				Href:  "http://node.local/",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "minimal config is valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing label",
			mutate:  func(c *Config) { c.Node.Label = "" },
			wantErr: "node.label",
		},
		{
			name:    "missing href",
			mutate:  func(c *Config) { c.Node.Href = "" },
			wantErr: "node.href",
		},
		{
			name:    "relative href",
			mutate:  func(c *Config) { c.Node.Href = "/just/a/path" },
			wantErr: "absolute URL",
		},
		{
			name:    "malformed node id",
			mutate:  func(c *Config) { c.Node.ID = "not-a-uuid" },
			wantErr: "node.id",
		},
		{
			name:    "unparsable api version",
			mutate:  func(c *Config) { c.Node.APIVersion = "banana" },
			wantErr: "apiVersion",
		},
		{
			name:    "unsupported api version",
			mutate:  func(c *Config) { c.Node.APIVersion = "v1.2" },
			wantErr: "not supported",
		},
		{
			name:    "bad heartbeat interval",
			mutate:  func(c *Config) { c.Registration.HeartbeatInterval = "soon" },
			wantErr: "heartbeatInterval",
		},
		{
			name:    "negative select interval",
			mutate:  func(c *Config) { c.Registration.SelectInterval = "-5s" },
			wantErr: "positive",
		},
		{
			name: "invalid telemetry sampling",
			mutate: func(c *Config) {
				c.Telemetry = &telemetry.Config{
					Enabled: true,
					Tracing: &telemetry.TracingConfig{Enabled: true, Sampling: 3},
				}
			},
			wantErr: "telemetry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_GetNodeID(t *testing.T) {
	t.Parallel()

	t.Run("generates a fresh ID when unset", func(t *testing.T) {
		t.Parallel()

		cfg := &Config{}
		first := cfg.GetNodeID()
		assert.NotEqual(t, uuid.Nil, first)
	})

	t.Run("returns the configured ID", func(t *testing.T) {
		t.Parallel()

		id := uuid.New()
		cfg := &Config{Node: NodeConfig{ID: id.String()}}
		assert.Equal(t, id, cfg.GetNodeID())
	})
}
