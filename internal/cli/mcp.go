package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	critmcp "github.com/critdev/crit/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the crit MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the crit MCP server on stdio",
	Long: `Start the crit MCP server on stdio transport.

The server exposes the task queue as MCP tools that AI coding assistants
can call: add_task, get_task, list_tasks, update_task_status, queue_stats.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		srv := critmcp.NewServer(Store, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		// Persist any mutations made through MCP tools.
		return Store.Flush()
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
