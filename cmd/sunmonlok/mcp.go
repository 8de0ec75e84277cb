package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sunmonlok/sunmonlok/internal/ipc"
	"github.com/sunmonlok/sunmonlok/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the MCP server on stdio. It talks to a running daemon over the
control socket, so start "sunmonlok daemon" first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return mcp.NewServer(ipc.NewClient()).Run(ctx)
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}
