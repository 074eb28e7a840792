// ABOUTME: Web UI and terminal board subcommands
// ABOUTME: Both run until the context is cancelled or the user quits
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/dealboard/config"
	"github.com/harperreed/dealboard/service"
	"github.com/harperreed/dealboard/tui"
	"github.com/harperreed/dealboard/web"
	"go.uber.org/zap"
)

// ServeCommand runs the web UI.
func ServeCommand(ctx context.Context, cfg *config.Config, svc *service.Services, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.Int("port", cfg.Web.Port, "Port to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := web.NewServer(svc, logger)
	if err != nil {
		return err
	}
	return serveUntilDone(ctx, logger, fmt.Sprintf(":%d", *port), server.Start, server.Shutdown)
}

// BoardCommand opens the terminal pipeline board.
func BoardCommand(ctx context.Context, svc *service.Services, logger *zap.Logger) error {
	return tui.Run(ctx, svc, logger)
}
