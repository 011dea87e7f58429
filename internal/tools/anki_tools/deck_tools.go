package anki_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/anki"
	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/common"
)

func registerDeckTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	common.AddTool(s, sc,
		mcp.NewTool("anki_get_decks",
			mcp.WithDescription("List all Anki decks"),
		),
		spec("get_decks", true), dispatch(sc, handleGetDecks))

	common.AddTool(s, sc,
		mcp.NewTool("anki_get_deck_stats",
			mcp.WithDescription("Card counts for one deck: total, new, due today, learning and review"),
			mcp.WithString("deck_name",
				mcp.Required(),
				mcp.Description("Name of the deck"),
			),
		),
		spec("get_deck_stats", true), dispatch(sc, handleGetDeckStats))

	common.AddTool(s, sc,
		mcp.NewTool("anki_get_all_stats",
			mcp.WithDescription("Statistics for every deck plus overall totals"),
		),
		spec("get_all_stats", true), dispatch(sc, handleGetAllStats))

	common.AddTool(s, sc,
		mcp.NewTool("anki_create_deck",
			mcp.WithDescription("Create a new Anki deck. Use '::' to nest decks, e.g. 'Languages::Spanish'"),
			mcp.WithString("deck_name",
				mcp.Required(),
				mcp.Description("Name of the deck to create"),
			),
		),
		spec("create_deck", false), dispatch(sc, handleCreateDeck))

	common.AddTool(s, sc,
		mcp.NewTool("anki_update_deck_config",
			mcp.WithDescription("Change the daily new card and review limits of the options group a deck uses"),
			mcp.WithString("deck_name",
				mcp.Required(),
				mcp.Description("Name of the deck"),
			),
			mcp.WithNumber("new_cards_per_day",
				mcp.Description("Maximum new cards per day"),
			),
			mcp.WithNumber("reviews_per_day",
				mcp.Description("Maximum reviews per day"),
			),
		),
		spec("update_deck_config", false), dispatch(sc, handleUpdateDeckConfig))

	return nil
}

func handleGetDecks(ctx context.Context, c *anki.Client, _ common.Args) (envelope.Payload, error) {
	decks, err := c.ListDecks(ctx)
	if err != nil {
		return nil, err
	}
	if decks == nil {
		decks = []anki.Deck{}
	}
	return envelope.Payload{"decks": decks, "count": len(decks)}, nil
}

func handleGetDeckStats(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	deck, err := args.RequiredString("deck_name")
	if err != nil {
		return nil, err
	}
	stats, err := c.DeckStats(ctx, deck)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"deck": deck, "stats": stats}, nil
}

func handleGetAllStats(ctx context.Context, c *anki.Client, _ common.Args) (envelope.Payload, error) {
	stats, err := c.AllStats(ctx)
	if err != nil {
		return nil, err
	}
	p := envelope.Payload{
		"overall_stats": stats.Overall,
		"deck_stats":    stats.Decks,
	}
	if len(stats.Errors) > 0 {
		p["errors"] = stats.Errors
	}
	return p, nil
}

func handleCreateDeck(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	name, err := args.RequiredString("deck_name")
	if err != nil {
		return nil, err
	}
	id, err := c.CreateDeck(ctx, name)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{
		"deck_id": id,
		"message": fmt.Sprintf("Deck '%s' created successfully", name),
	}, nil
}

func handleUpdateDeckConfig(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	deck, err := args.RequiredString("deck_name")
	if err != nil {
		return nil, err
	}
	newPerDay, err := optionalInt64(args, "new_cards_per_day")
	if err != nil {
		return nil, err
	}
	reviewsPerDay, err := optionalInt64(args, "reviews_per_day")
	if err != nil {
		return nil, err
	}
	limits, err := c.UpdateDeckConfig(ctx, deck, newPerDay, reviewsPerDay)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{
		"message":           fmt.Sprintf("Deck '%s' configuration updated", deck),
		"new_cards_per_day": limits.NewCardsPerDay,
		"reviews_per_day":   limits.ReviewsPerDay,
	}, nil
}
