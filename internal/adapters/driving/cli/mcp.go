package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/storage/tablewatch"
	"github.com/custodia-labs/sercha-assist/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-assist/internal/core/services"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions against the knowledge base.

The server exposes the ask, stats and reindex tools. The embedding table is
watched, so a rebuild by another process is picked up without a restart.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, or --http to pick the first
free port from 8765. HTTP enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  sercha-assist mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  sercha-assist mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "sercha-assist": {
        "command": "/path/to/sercha-assist",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("http", false, "serve over HTTP on the first free port from 8765")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	useHTTP, err := cmd.Flags().GetBool("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}
	if useHTTP && port == 0 {
		port, err = services.FindAvailablePort(services.DefaultPortRangeStart, services.DefaultPortRangeEnd)
		if err != nil {
			return err
		}
	}

	assistant, err := requireAssistant()
	if err != nil {
		return err
	}

	ports := &mcp.Ports{Assistant: assistant}
	if loader != nil {
		ports.Documents = loader
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if tableCache != nil {
		watcher, err := tablewatch.New(assistant.TablePath(), tableCache.Invalidate)
		if err != nil {
			return fmt.Errorf("watch table: %w", err)
		}
		if err := watcher.Start(); err != nil {
			logger.Warn("Not watching %s: %v", assistant.TablePath(), err)
		}
		defer watcher.Stop() //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
