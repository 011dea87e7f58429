package common

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/server"
)

// AddTool registers tool with the instrumented handler. In read-only mode
// tools that write are skipped. The read-only and destructive hints are
// derived from spec so they cannot drift from the registration.
func AddTool(s *mcpserver.MCPServer, sc *server.ServerContext, tool mcp.Tool, spec Spec, fn Func) bool {
	if sc.ReadOnly() && !spec.ReadOnly {
		return false
	}
	if spec.Name == "" {
		spec.Name = tool.Name
	}
	tool.Annotations.ReadOnlyHint = mcp.ToBoolPtr(spec.ReadOnly)
	tool.Annotations.DestructiveHint = mcp.ToBoolPtr(spec.Destructive)
	tool.Annotations.OpenWorldHint = mcp.ToBoolPtr(true)
	s.AddTool(tool, Handler(sc, spec, fn))
	return true
}
