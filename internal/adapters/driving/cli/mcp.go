package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docspace-ai/docspace/internal/adapters/driving/mcp"
)

var (
	mcpPort int
	mcpHTTP bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so assistants can search the
index and pull grounding context.

By default the server speaks JSON-RPC over stdio. Use --http (optionally with
--port) to serve the streamable HTTP transport instead.

Examples:
  # Stdio mode
  docspace mcp serve

  # HTTP mode on the first free port from 8080
  docspace mcp serve --http

  # HTTP mode on a fixed port
  docspace mcp serve --port 9000

Assistant configuration:
  {
    "mcpServers": {
      "docspace": {
        "command": "/path/to/docspace",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = stdio, or the first free port with --http)")
	mcpServeCmd.Flags().BoolVar(&mcpHTTP, "http", false, "serve over HTTP instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	s, err := indexServices()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Similarity: s.Similarity,
		Query:      s.Query,
		Keys:       s.Keys,
	})
	if err != nil {
		return err
	}

	port := mcpPort
	if mcpHTTP && port == 0 {
		port, err = mcp.FindAvailablePort(8080, 8099)
		if err != nil {
			return err
		}
	}

	ctx := commandContext(cmd)
	if port > 0 {
		addr := fmt.Sprintf("localhost:%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
