package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/bird/internal/config"
	"github.com/teemow/bird/internal/instrumentation"
	"github.com/teemow/bird/internal/logging"
	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/resources"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/anki_tools"
	"github.com/teemow/bird/internal/tools/calendar_tools"
	"github.com/teemow/bird/internal/tools/health_tools"
	"github.com/teemow/bird/internal/tools/obsidian_tools"
	"github.com/teemow/bird/internal/tools/todoist_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the dedicated metrics server.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

type serveOptions struct {
	transport string
	httpAddr  string
	envFile   string
	debug     bool
	readOnly  bool
	metrics   MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server.

Supports multiple transports:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP on /mcp, with /healthz, /readyz and
    /healthz/detailed on the same address

Services are configured from the environment (and an optional .env file).
A service without configuration stays visible and answers every call with
a "not configured" error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyMetricsEnv(&opts.metrics, cmd.Flags().Changed("metrics-enabled"), cmd.Flags().Changed("metrics-addr"), os.Getenv)
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Optional .env file read before the environment")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Register only tools that do not modify any service")
	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyMetricsEnv fills metrics settings from the environment unless the
// matching flag was given explicitly.
func applyMetricsEnv(mc *MetricsConfig, enabledSet, addrSet bool, getenv func(string) string) {
	if !enabledSet {
		switch getenv("METRICS_ENABLED") {
		case "true":
			mc.Enabled = true
		case "false":
			mc.Enabled = false
		}
	}
	if !addrSet {
		if addr := getenv("METRICS_ADDR"); addr != "" {
			mc.Addr = addr
		}
	}
}

func runServe(opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the stdio transport, so logs always go to stderr.
	logger := logging.NewLogger(os.Stderr, opts.debug)
	slog.SetDefault(logger)

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("Error during instrumentation shutdown", logging.Err(err))
		}
	}()
	metrics := provider.Metrics()

	reg := registry.New(shutdownCtx, cfg, logging.NewSlogAdapter(logger),
		registry.WithRefreshObserver(func(result string) {
			metrics.RecordTokenRefresh(shutdownCtx, result)
		}),
	)
	warnIfDegraded(logger, reg)

	serverContext := server.NewServerContext(shutdownCtx, reg,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithReadOnly(opts.readOnly),
		server.WithHealthTimeout(cfg.HealthTimeout),
	)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("Error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	if opts.readOnly {
		logger.Info("Starting server in READ-ONLY mode; write and destructive tools are not registered")
	}

	switch opts.transport {
	case transportStdio:
		return runStdioServer(mcpSrv, logger)
	default:
		var metricsServer *server.MetricsServer
		if opts.metrics.Enabled && provider.Enabled() && instrConfig.MetricsExporter == instrumentation.ExporterPrometheus {
			metricsServer, err = startMetricsServer(opts.metrics, provider)
			if err != nil {
				return err
			}
		}
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts.httpAddr, metricsServer, logger)
	}
}

// newMCPServer builds the MCP server with every tool group and the status
// resources registered against sc.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("bird", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		mcpserver.WithRecovery(),
	)
	if err := registerAllTools(mcpSrv, sc); err != nil {
		return nil, err
	}
	if err := resources.RegisterStatusResources(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register status resources: %w", err)
	}
	return mcpSrv, nil
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func(*mcpserver.MCPServer, *server.ServerContext) error
	}

	registrations := []toolRegistration{
		{name: "Todoist", register: todoist_tools.RegisterTodoistTools},
		{name: "Anki", register: anki_tools.RegisterAnkiTools},
		{name: "Obsidian", register: obsidian_tools.RegisterObsidianTools},
		{name: "Calendar", register: calendar_tools.RegisterCalendarTools},
		{name: "Health", register: health_tools.RegisterHealthTools},
	}

	for _, reg := range registrations {
		if err := reg.register(mcpSrv, sc); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}

// warnIfDegraded logs when the primary task service is missing. Each
// integration's own state is logged by registry.Register.
func warnIfDegraded(logger *slog.Logger, reg *registry.Registry) {
	if !reg.MinimallyFunctional() {
		logger.Warn("Todoist is not configured; bird is running without its primary task service")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	err := mcpserver.ServeStdio(mcpSrv,
		mcpserver.WithErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// startMetricsServer binds the metrics address before returning so that an
// address already in use fails the command.
func startMetricsServer(mc MetricsConfig, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    mc.Addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}
	ln, err := net.Listen("tcp", metricsServer.Addr())
	if err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}
	go func() {
		if err := metricsServer.Serve(ln); err != nil {
			slog.Error("Metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, metricsServer *server.MetricsServer, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := server.NewHTTPServer(mcpSrv, sc, server.NewHealthChecker(sc, version))

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- httpServer.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
	case serveErr = <-serverDone:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during HTTP server shutdown", logging.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during metrics server shutdown", logging.Err(err))
		}
	}
	if serveErr != nil {
		return fmt.Errorf("HTTP server stopped with error: %w", serveErr)
	}
	return nil
}
