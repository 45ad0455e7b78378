// webhook serves the synchook hooks to an external control loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/potooio/synchook/internal/config"
	"github.com/potooio/synchook/internal/hooks/builtin"
	"github.com/potooio/synchook/internal/protocol"
	"github.com/potooio/synchook/internal/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

// run contains the main application logic, separated from main() for testability.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	registry, err := builtin.NewRegistry(cfg.Hooks)
	if err != nil {
		return fmt.Errorf("failed to build hook registry: %w", err)
	}

	logger.Info("Starting synchook webhook",
		zap.String("addr", cfg.Addr),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.Strings("hooks", registry.Names()),
		zap.Bool("tls", cfg.TLSEnabled()),
	)

	srv := server.New(cfg, protocol.NewDispatcher(registry, logger), logger)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	logger.Info("Webhook server stopped")
	return nil
}
