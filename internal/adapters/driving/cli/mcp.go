package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/semdex/internal/adapters/driving/mcp"
	"github.com/custodia-labs/semdex/internal/core/domain"
	"github.com/custodia-labs/semdex/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The vault is reconciled and watched in the background while the server
runs, so results stay current. Queries served during the startup pass
carry a note saying the index is still synchronising.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  semdex mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  semdex mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "semdex": {
        "command": "/path/to/semdex",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	if queryService == nil {
		return errors.New("query service not configured")
	}

	// The server runs even when the index is unavailable; tools report
	// the condition per call so the assistant can explain it.
	if syncService != nil {
		if err := syncService.Start(cmd.Context()); err != nil {
			if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
				return fmt.Errorf("starting vault sync: %w", err)
			}
			logger.Warn("Embedding provider not configured; serving an unavailable index")
		}
	} else {
		logger.Warn("No vault configured; serving the stored index without sync")
	}

	ports := &mcp.Ports{
		Query: queryService,
		Sync:  syncService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
