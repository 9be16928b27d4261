// Command core is a thin demo host for the trustmesh Core facade: it
// loads configuration, wires Core with a Slack notifier if configured,
// starts the background sweeps, and blocks until interrupted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/codeready-toolchain/trustmesh"
	"github.com/codeready-toolchain/trustmesh/pkg/config"
	"github.com/codeready-toolchain/trustmesh/pkg/slack"
	"github.com/joho/godotenv"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment file", "path", envPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	var opts []trustmesh.Option
	if nodeID := os.Getenv("TRUSTMESH_NODE_ID"); nodeID != "" {
		opts = append(opts, trustmesh.WithNodeID(nodeID))
	}
	if svc := slack.NewService(slack.ServiceConfig{
		Token:   os.Getenv("SLACK_BOT_TOKEN"),
		Channel: os.Getenv("SLACK_ALERT_CHANNEL"),
	}); svc != nil {
		opts = append(opts, trustmesh.WithSlack(svc))
		slog.Info("Slack alert notifications enabled", "channel", os.Getenv("SLACK_ALERT_CHANNEL"))
	}

	core, err := trustmesh.NewCore(cfg, opts...)
	if err != nil {
		slog.Error("failed to build trustmesh core", "error", err)
		os.Exit(1)
	}

	core.Start(ctx)
	slog.Info("trustmesh core started", "config_dir", *configDir)

	<-ctx.Done()
	slog.Info("shutting down")
	core.Stop()
}
