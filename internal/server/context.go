package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/bird/internal/health"
	"github.com/teemow/bird/internal/instrumentation"
	"github.com/teemow/bird/internal/logging"
	"github.com/teemow/bird/internal/registry"
)

// ServerContext carries the registry and shared infrastructure to the tool
// handlers. It is created once per process.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	registry *registry.Registry
	reporter *health.Reporter
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	readOnly bool
	timeout  time.Duration

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithReadOnly marks the server as exposing read-only tools only.
func WithReadOnly(readOnly bool) Option {
	return func(sc *ServerContext) { sc.readOnly = readOnly }
}

// WithHealthTimeout bounds each health probe of the default reporter.
func WithHealthTimeout(d time.Duration) Option {
	return func(sc *ServerContext) { sc.timeout = d }
}

// WithReporter replaces the default health reporter.
func WithReporter(r *health.Reporter) Option {
	return func(sc *ServerContext) { sc.reporter = r }
}

// NewServerContext wraps reg. Unless WithReporter is given, a health
// reporter with the default timeout is built over reg.
func NewServerContext(ctx context.Context, reg *registry.Registry, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.reporter == nil {
		sc.reporter = health.NewReporter(reg,
			health.WithTimeout(sc.timeout),
			health.WithLogger(logging.NewSlogAdapter(sc.logger)),
			health.WithObserver(func(service, status string) {
				sc.metrics.RecordHealthProbe(sc.ctx, service, status)
			}),
		)
	}
	return sc
}

// Context is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Registry returns the integrations.
func (sc *ServerContext) Registry() *registry.Registry {
	return sc.registry
}

// Health returns the health reporter.
func (sc *ServerContext) Health() *health.Reporter {
	return sc.reporter
}

func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics may return nil when instrumentation is off; its methods accept a
// nil receiver.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// IsShutdown returns whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the context and releases the clients. It is idempotent.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	if sc.registry == nil {
		return nil
	}
	return sc.registry.Close()
}
