// Package common holds what every tool package shares: the instrumented
// handler wrapper, argument parsing and the envelope-to-MCP conversion.
package common
