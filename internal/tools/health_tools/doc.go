// Package health_tools provides the health_check MCP tool.
package health_tools
