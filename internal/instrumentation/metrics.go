package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrErrorType = "error_type"
)

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// Metrics records the server's metrics. The zero value is a no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	integrationOpsTotal   metric.Int64Counter
	integrationOpDuration metric.Float64Histogram

	tokenRefreshTotal metric.Int64Counter
	healthProbeTotal  metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	detailedLabels bool
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	counter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
		return c
	}
	histogram := func(name, desc string, buckets ...float64) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...))
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
		return h
	}

	m.httpRequestsTotal = counter("http_requests_total", "Total number of HTTP requests", "{request}")
	m.httpRequestDuration = histogram("http_request_duration_seconds", "HTTP request duration in seconds",
		0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0)

	m.integrationOpsTotal = counter("integration_operations_total", "Total number of integration operations", "{operation}")
	m.integrationOpDuration = histogram("integration_operation_duration_seconds", "Integration operation duration in seconds", durationBuckets...)

	m.tokenRefreshTotal = counter("oauth_token_refresh_total", "Total number of OAuth token refresh attempts", "{attempt}")
	m.healthProbeTotal = counter("health_probe_total", "Total number of integration health probes", "{probe}")

	m.toolInvocationsTotal = counter("mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}")
	m.toolDuration = histogram("mcp_tool_duration_seconds", "MCP tool execution duration in seconds", durationBuckets...)

	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordHTTPRequest records one request served by the HTTP transport.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordIntegrationOperation records one adapter call.
//
// Parameters:
//   - service: todoist, anki, obsidian or calendar
//   - operation: the adapter operation, e.g. create_task or find_free_slots
//   - status: StatusSuccess or StatusError
func (m *Metrics) RecordIntegrationOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.integrationOpsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.integrationOpsTotal.Add(ctx, 1, attrs)
	m.integrationOpDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRefresh records a Google token refresh. Result is "success",
// "invalid_grant" or "error".
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordHealthProbe records one probe outcome (connected, error, disabled).
func (m *Metrics) RecordHealthProbe(ctx context.Context, service, status string) {
	if m == nil || m.healthProbeTotal == nil {
		return
	}
	m.healthProbeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrStatus, status),
	))
}

// RecordToolInvocation records a tool call. errorType is the envelope error
// kind and is only attached with detailed labels enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, errorType string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && errorType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errorType))
	}
	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
