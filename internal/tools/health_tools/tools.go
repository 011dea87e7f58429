package health_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/common"
)

// RegisterHealthTools registers health_check. It is read-only and always
// available, even when no integration is configured.
func RegisterHealthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	tool := mcp.NewTool("health_check",
		mcp.WithDescription("Check the connectivity of every integration. Unconfigured services are reported as disabled."),
	)
	common.AddTool(s, sc, tool,
		common.Spec{Name: "health_check", Operation: "health_check", ReadOnly: true},
		func(ctx context.Context, _ common.Args) envelope.Result {
			report := sc.Health().Check(ctx)
			return envelope.OK(envelope.Payload{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"services":  report,
			})
		})
	return nil
}
