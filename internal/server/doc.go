// Package server holds the process-wide ServerContext and the HTTP
// surfaces of the bird MCP server.
//
// ServerContext carries the integration registry, the health reporter and
// the metrics recorder to every tool handler.
//
// HTTPServer serves the MCP streamable HTTP transport at /mcp together with
// /healthz, /readyz and /healthz/detailed. MetricsServer exposes
// Prometheus metrics on a separate port.
package server
