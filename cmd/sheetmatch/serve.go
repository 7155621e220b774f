package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/sheetmatch/internal/config"
	"github.com/rpggio/sheetmatch/internal/domain/activity"
	"github.com/rpggio/sheetmatch/internal/domain/session"
	"github.com/rpggio/sheetmatch/internal/logging"
	"github.com/rpggio/sheetmatch/internal/mcp"
	"github.com/rpggio/sheetmatch/internal/sqlite"
	"github.com/rpggio/sheetmatch/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Long: `Serve starts the browser interface for uploading, comparing and downloading
sheets. Each browser gets its own session. When MCP is enabled the same
comparison tools are available to agents at /mcp.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "Listen address, overriding the configured host and port")
	cmd.Flags().Bool("secure-cookies", false, "Mark session cookies Secure (set when served over HTTPS)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Addr()
	}
	secure, err := cmd.Flags().GetBool("secure-cookies")
	if err != nil {
		return err
	}

	logger := logging.New(cmd.OutOrStdout(), cfg.Log.Level, cfg.Log.Format)

	app, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	opts := transport.Options{
		Sessions:       app.sessions,
		Logger:         logger,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		SecureCookies:  secure,
	}
	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(mcp.Config{Sessions: app.sessions, Version: getVersion(), Logger: logger})
		opts.MCP = sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serveHTTP(ctx, logger, addr, transport.NewServer(opts))
}

// serveHTTP runs the server until ctx is canceled, then shuts it down gracefully.
func serveHTTP(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// app is the storage and service graph shared by serve and mcp.
type app struct {
	db       *sqlite.DB
	sessions *session.Service
}

func openApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	sessionSvc := session.NewService(sqlite.NewSessionRepository(db), activitySvc, logger)

	return &app{db: db, sessions: sessionSvc}, nil
}

func (a *app) close() {
	_ = a.db.Close()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
