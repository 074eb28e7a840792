// ABOUTME: Record store server subcommand
// ABOUTME: Serves the configured local backend over the HTTP record protocol
package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/harperreed/dealboard/config"
	"github.com/harperreed/dealboard/records"
	"go.uber.org/zap"
)

// StoreServeCommand exposes backend over HTTP until ctx is cancelled.
func StoreServeCommand(ctx context.Context, cfg *config.Config, backend records.Client, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("store serve", flag.ContinueOnError)
	port := fs.Int("port", cfg.Store.Port, "Port to listen on")
	apiKey := fs.String("api-key", cfg.Store.APIKey, "API key clients must send (empty disables auth)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.Backend == config.BackendHTTP {
		return fmt.Errorf("store serve needs a local backend (sqlite, postgres or charm), not http")
	}
	if *apiKey == "" {
		logger.Warn("record store running without an API key")
	}

	server := records.NewServer(backend, *apiKey, logger)
	return serveUntilDone(ctx, logger, fmt.Sprintf(":%d", *port), server.Start, server.Shutdown)
}

// serveUntilDone runs start in the background and shuts down when ctx ends.
func serveUntilDone(ctx context.Context, logger *zap.Logger, addr string, start func(string) error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("addr", addr))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return <-errCh
	}
}
