package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/bird/internal/instrumentation"
)

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		config      MetricsServerConfig
		errContains string
	}{
		{name: "valid", config: MetricsServerConfig{Addr: ":9090", InstrumentationProvider: newTestProvider(t, instrumentation.ExporterPrometheus)}},
		{name: "default addr", config: MetricsServerConfig{InstrumentationProvider: newTestProvider(t, instrumentation.ExporterPrometheus)}},
		{name: "nil provider", config: MetricsServerConfig{Addr: ":9090"}, errContains: "provider is required"},
		{name: "disabled provider", config: MetricsServerConfig{InstrumentationProvider: newDisabledProvider(t)}, errContains: "not enabled"},
		{name: "stdout exporter", config: MetricsServerConfig{InstrumentationProvider: newTestProvider(t, instrumentation.ExporterStdout)}, errContains: "prometheus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewMetricsServer(tt.config)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, srv.Addr())
		})
	}
}

func TestMetricsServer_Handler(t *testing.T) {
	p := newTestProvider(t, instrumentation.ExporterPrometheus)
	p.Metrics().RecordTokenRefresh(context.Background(), "success")

	srv, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: p})
	require.NoError(t, err)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "oauth_token_refresh")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsServer_StartAndShutdown(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{
		InstrumentationProvider: newTestProvider(t, instrumentation.ExporterPrometheus),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: newTestProvider(t, instrumentation.ExporterPrometheus)})
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func newTestProvider(t *testing.T, exporter string) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	p, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "bird-test",
		ServiceVersion:  "test",
		Enabled:         true,
		MetricsExporter: exporter,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(ctx) })
	return p
}

func newDisabledProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	p, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	require.NoError(t, err)
	return p
}
