package main

import (
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/sheetmatch/internal/logging"
	"github.com/rpggio/sheetmatch/internal/mcp"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the mcp command.
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the comparison tools over MCP stdio",
		Long: `Mcp runs an MCP server on stdin and stdout so agents can resolve identifier
columns and annotate tables without the web interface. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// stdout carries JSON-RPC.
	logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	app, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	server := mcp.NewServer(mcp.Config{Sessions: app.sessions, Version: getVersion(), Logger: logger})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting stdio transport")
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}
