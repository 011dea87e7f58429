// Package resources provides MCP resources that describe the state of the
// server itself. Resources are read-only JSON documents a client can fetch
// without calling a tool.
package resources
