package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nmos-go/node/internal/config"
	"github.com/nmos-go/node/internal/node"
	"github.com/nmos-go/node/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the node",
	Long: `Run the node: browse for registration APIs via DNS-SD, register the
resource graph with the best discovered registry, heartbeat to keep the
registration alive, and serve the read-only node API.

The node requires a configuration file (--config) that specifies:
- Node identity (ID, label, href)
- Registration timing and API version
- Telemetry settings

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

const telemetryShutdownTimeout = 5 * time.Second

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides the configuration file)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address"))
	if err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	err = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	if err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if address := viper.GetString("address"); address != "" {
		cfg.Server.Address = address
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"api_version", cfg.GetAPIVersion().String(),
		"address", cfg.GetAddress())

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	n, err := node.New(
		node.WithConfig(cfg),
		node.WithMeterProvider(tel.MeterProvider()),
		node.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return fmt.Errorf("failed to build node: %w", err)
	}

	slog.Info("Starting node",
		"node_id", n.Self().ResourceID(),
		"address", cfg.GetAddress())
	if err := n.Run(ctx); err != nil {
		return fmt.Errorf("node failed: %w", err)
	}
	return nil
}
