package todoist_tools

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/todoist"
	"github.com/teemow/bird/internal/tools/common"
)

type opFunc func(ctx context.Context, client *todoist.Client, args common.Args) (envelope.Payload, error)

// dispatch runs op against the Todoist client, or reports that Todoist is
// not configured.
func dispatch(sc *server.ServerContext, op opFunc) common.Func {
	return func(ctx context.Context, args common.Args) envelope.Result {
		return registry.Dispatch(ctx, sc.Registry().Todoist, func(ctx context.Context, c *todoist.Client) (envelope.Payload, error) {
			return op(ctx, c, args)
		})
	}
}

func spec(operation string, readOnly bool) common.Spec {
	return common.Spec{
		Name:      "todoist_" + operation,
		Service:   registry.ServiceTodoist,
		Operation: operation,
		ReadOnly:  readOnly,
	}
}

// RegisterTodoistTools registers all Todoist tools with the MCP server.
// Write tools are skipped in read-only mode.
func RegisterTodoistTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerTaskTools(s, sc); err != nil {
		return fmt.Errorf("failed to register task tools: %w", err)
	}
	if err := registerProjectTools(s, sc); err != nil {
		return fmt.Errorf("failed to register project tools: %w", err)
	}
	return nil
}
