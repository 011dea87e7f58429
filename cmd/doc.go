// Package cmd implements the command-line interface for bird.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio or streamable HTTP
//   - auth calendar: Run the Google OAuth consent flow and store the token
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
