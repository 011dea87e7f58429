// Package obsidian_tools exposes an Obsidian vault as MCP tools.
//
// Note paths are relative to the vault root and the .md extension may be
// left out. Paths that leave the vault are rejected.
package obsidian_tools
