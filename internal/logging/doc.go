// Package logging provides structured logging utilities for bird.
//
// All logging goes through the standard library's slog package. This package
// keeps attribute names consistent across adapters and tool handlers, and
// makes sure credentials never reach the log output.
//
// # Usage Patterns
//
// Create a logger scoped to one integration:
//
//	logger := logging.WithService(slog.Default(), "todoist")
//	logger.Info("task created", logging.Operation("create_task"))
//
// Mask tokens before logging them:
//
//	logger.Debug("loaded token", "access_token", logging.SanitizeToken(tok.AccessToken))
//
// Logs are written to stderr so the stdio MCP transport keeps stdout for
// JSON-RPC traffic.
package logging
