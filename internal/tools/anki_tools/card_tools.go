package anki_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/anki"
	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/batch"
	"github.com/teemow/bird/internal/tools/common"
)

func registerCardTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	common.AddTool(s, sc,
		mcp.NewTool("anki_suspend_cards",
			mcp.WithDescription("Suspend cards so they are not shown in reviews. Unknown IDs are reported, not fatal."),
			mcp.WithString("card_ids",
				mcp.Required(),
				mcp.Description("Card IDs as a JSON array or comma-separated list"),
			),
		),
		spec("suspend_cards", false), dispatch(sc, handleSuspend(true)))

	common.AddTool(s, sc,
		mcp.NewTool("anki_unsuspend_cards",
			mcp.WithDescription("Return suspended cards to the review queue. Unknown IDs are reported, not fatal."),
			mcp.WithString("card_ids",
				mcp.Required(),
				mcp.Description("Card IDs as a JSON array or comma-separated list"),
			),
		),
		spec("unsuspend_cards", false), dispatch(sc, handleSuspend(false)))

	return nil
}

func handleSuspend(suspend bool) opFunc {
	return func(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
		ids, err := batch.ParseIDs(args["card_ids"], "card_ids")
		if err != nil {
			return nil, err
		}
		apply, verb := c.UnsuspendCards, "Unsuspended"
		if suspend {
			apply, verb = c.SuspendCards, "Suspended"
		}
		res, err := apply(ctx, ids)
		if err != nil {
			return nil, err
		}
		return bulkPayload(ids, res, "ok", fmt.Sprintf("%s %d of %d cards", verb, len(res.Applied), len(ids))), nil
	}
}

// bulkPayload reports a best-effort bulk call per requested ID.
func bulkPayload(requested []int64, res *anki.BulkResult, itemMessage, message string) envelope.Payload {
	p := batch.Summarize(batch.FromApplied(requested, res.Missing, itemMessage)).Payload()
	p["message"] = message
	return p
}
