package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/bird/internal/logging"
	"github.com/teemow/bird/internal/registry"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 5 * time.Second

// Status values.
const (
	StatusConnected = "connected"
	StatusError     = "error"
	StatusDisabled  = "disabled"
)

// ServiceStatus is the outcome of one probe.
type ServiceStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Report maps service keys to their status. There is no
// overall verdict.
type Report map[string]ServiceStatus

// Source lists the integrations to probe.
type Source interface {
	Entries() []registry.Entry
}

// Reporter runs the probes.
type Reporter struct {
	source  Source
	timeout time.Duration
	logger  logging.Logger
	observe func(service, status string)
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Reporter) { r.logger = l }
}

// WithObserver is called once per probed service with its status.
func WithObserver(fn func(service, status string)) Option {
	return func(r *Reporter) { r.observe = fn }
}

// NewReporter returns a Reporter over source.
func NewReporter(source Source, opts ...Option) *Reporter {
	r := &Reporter{
		source:  source,
		timeout: DefaultTimeout,
		logger:  logging.Discard(),
		observe: func(string, string) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Check probes all configured services concurrently.
func (r *Reporter) Check(ctx context.Context) Report {
	entries := r.source.Entries()
	results := make([]ServiceStatus, len(entries))

	var g errgroup.Group
	for i, e := range entries {
		if !e.Configured || e.Client == nil {
			results[i] = ServiceStatus{Status: StatusDisabled, Message: e.Reason}
			continue
		}
		g.Go(func() error {
			results[i] = r.probe(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	report := make(Report, len(entries))
	for i, e := range entries {
		report[e.Key] = results[i]
		r.observe(e.Key, results[i].Status)
	}
	return report
}

func (r *Reporter) probe(ctx context.Context, e registry.Entry) ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msg, err := e.Client.Probe(ctx)
	if err != nil {
		r.logger.Warn("Health probe failed", logging.KeyService, e.Key, logging.KeyError, err)
		return ServiceStatus{Status: StatusError, Message: err.Error()}
	}
	return ServiceStatus{Status: StatusConnected, Message: msg}
}
