package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"proforma-mcs/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	server := mcp.NewServer(cfg, app.engine, app.loader, app.results, Version)
	return server.Serve(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
