// Package instrumentation provides OpenTelemetry metrics and tracing for
// the bird MCP server.
//
// # Metrics
//
// Tool metrics:
//   - mcp_tool_invocations_total: tool invocations by tool and status
//   - mcp_tool_duration_seconds: tool execution time
//
// Integration metrics:
//   - integration_operations_total: adapter calls by service, operation and status
//   - integration_operation_duration_seconds: adapter call time
//   - oauth_token_refresh_total: Google token refreshes by result
//   - health_probe_total: health probes by service and status
//
// HTTP metrics:
//   - http_requests_total and http_request_duration_seconds for the
//     streamable HTTP transport
//
// # Tracing
//
// Every tool call opens a span named tool.<name> carrying the tool, service
// and operation attributes.
//
// # Configuration
//
// DefaultConfig reads:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: bird)
//   - METRICS_DETAILED_LABELS (default: false)
package instrumentation
