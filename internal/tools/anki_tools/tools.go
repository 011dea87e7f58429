package anki_tools

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/anki"
	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/common"
)

type opFunc func(ctx context.Context, client *anki.Client, args common.Args) (envelope.Payload, error)

func dispatch(sc *server.ServerContext, op opFunc) common.Func {
	return func(ctx context.Context, args common.Args) envelope.Result {
		return registry.Dispatch(ctx, sc.Registry().Anki, func(ctx context.Context, c *anki.Client) (envelope.Payload, error) {
			return op(ctx, c, args)
		})
	}
}

func spec(operation string, readOnly bool) common.Spec {
	return common.Spec{
		Name:      "anki_" + operation,
		Service:   registry.ServiceAnki,
		Operation: operation,
		ReadOnly:  readOnly,
	}
}

// RegisterAnkiTools registers all Anki tools with the MCP server.
func RegisterAnkiTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerDeckTools(s, sc); err != nil {
		return fmt.Errorf("failed to register deck tools: %w", err)
	}
	if err := registerNoteTools(s, sc); err != nil {
		return fmt.Errorf("failed to register note tools: %w", err)
	}
	if err := registerCardTools(s, sc); err != nil {
		return fmt.Errorf("failed to register card tools: %w", err)
	}
	return nil
}

// optionalInt64 reads a non-negative integer argument.
func optionalInt64(args common.Args, key string) (*int64, error) {
	v, err := args.OptionalInt(key)
	if err != nil || v == nil {
		return nil, err
	}
	n := int64(*v)
	return &n, nil
}
