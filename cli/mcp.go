// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server on stdio for desktop assistants
package cli

import (
	"context"

	"github.com/harperreed/dealboard/handlers"
	"github.com/harperreed/dealboard/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// MCPCommand starts the MCP server on stdio and blocks until the client disconnects.
func MCPCommand(ctx context.Context, svc *service.Services, logger *zap.Logger, version string) error {
	logger.Info("starting MCP server", zap.String("version", version))
	server := handlers.NewServer(svc, logger, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
