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

func registerNoteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	common.AddTool(s, sc,
		mcp.NewTool("anki_get_note_types",
			mcp.WithDescription("List the available note types (models)"),
		),
		spec("get_note_types", true), dispatch(sc, handleGetNoteTypes))

	common.AddTool(s, sc,
		mcp.NewTool("anki_find_notes",
			mcp.WithDescription("Search notes with Anki search syntax, e.g. 'deck:Spanish tag:verbs'"),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Anki search query"),
			),
		),
		spec("find_notes", true), dispatch(sc, handleFindNotes))

	common.AddTool(s, sc,
		mcp.NewTool("anki_get_note_info",
			mcp.WithDescription("Get fields, tags and cards of notes"),
			mcp.WithString("note_ids",
				mcp.Required(),
				mcp.Description("Note IDs as a JSON array or comma-separated list"),
			),
		),
		spec("get_note_info", true), dispatch(sc, handleGetNoteInfo))

	common.AddTool(s, sc,
		mcp.NewTool("anki_create_note",
			mcp.WithDescription("Add a front/back note to a deck"),
			mcp.WithString("deck_name",
				mcp.Required(),
				mcp.Description("Target deck"),
			),
			mcp.WithString("front",
				mcp.Required(),
				mcp.Description("Front side (question)"),
			),
			mcp.WithString("back",
				mcp.Required(),
				mcp.Description("Back side (answer)"),
			),
			mcp.WithArray("tags",
				mcp.Description("Tags to attach"),
			),
			mcp.WithString("note_type",
				mcp.Description("Note type with Front and Back fields (default: Basic)"),
			),
		),
		spec("create_note", false), dispatch(sc, handleCreateNote))

	common.AddTool(s, sc,
		mcp.NewTool("anki_create_cloze_note",
			mcp.WithDescription("Add a cloze deletion note, e.g. 'The capital of France is {{c1::Paris}}'"),
			mcp.WithString("deck_name",
				mcp.Required(),
				mcp.Description("Target deck"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Text with at least one {{c1::...}} deletion"),
			),
			mcp.WithString("extra",
				mcp.Description("Extra information shown on the back"),
			),
			mcp.WithArray("tags",
				mcp.Description("Tags to attach"),
			),
		),
		spec("create_cloze_note", false), dispatch(sc, handleCreateClozeNote))

	common.AddTool(s, sc,
		mcp.NewTool("anki_add_tags",
			mcp.WithDescription("Add tags to notes"),
			mcp.WithString("note_ids",
				mcp.Required(),
				mcp.Description("Note IDs as a JSON array or comma-separated list"),
			),
			mcp.WithArray("tags",
				mcp.Required(),
				mcp.Description("Tags to add"),
			),
		),
		spec("add_tags", false), dispatch(sc, handleAddTags))

	common.AddTool(s, sc,
		mcp.NewTool("anki_update_note",
			mcp.WithDescription("Replace fields and/or tags of a note"),
			mcp.WithNumber("note_id",
				mcp.Required(),
				mcp.Description("The ID of the note"),
			),
			mcp.WithObject("fields",
				mcp.Description("Field name to new value, e.g. {\"Front\": \"...\"}"),
			),
			mcp.WithArray("tags",
				mcp.Description("Replacement tags"),
			),
		),
		spec("update_note", false), dispatch(sc, handleUpdateNote))

	deleteSpec := spec("delete_notes", false)
	deleteSpec.Destructive = true
	common.AddTool(s, sc,
		mcp.NewTool("anki_delete_notes",
			mcp.WithDescription("Permanently delete notes and their cards. Unknown IDs are reported, not fatal."),
			mcp.WithString("note_ids",
				mcp.Required(),
				mcp.Description("Note IDs as a JSON array or comma-separated list"),
			),
		),
		deleteSpec, dispatch(sc, handleDeleteNotes))

	return nil
}

func handleGetNoteTypes(ctx context.Context, c *anki.Client, _ common.Args) (envelope.Payload, error) {
	types, err := c.GetNoteTypes(ctx)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []string{}
	}
	return envelope.Payload{"note_types": types, "count": len(types)}, nil
}

func handleFindNotes(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	query, err := args.RequiredString("query")
	if err != nil {
		return nil, err
	}
	ids, err := c.FindNotes(ctx, query)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"note_ids": ids, "count": len(ids), "query": query}, nil
}

func handleGetNoteInfo(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	ids, err := batch.ParseIDs(args["note_ids"], "note_ids")
	if err != nil {
		return nil, err
	}
	notes, err := c.GetNotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []anki.NoteInfo{}
	}
	return envelope.Payload{"notes": notes, "count": len(notes)}, nil
}

func handleCreateNote(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	deck, err := args.RequiredString("deck_name")
	if err != nil {
		return nil, err
	}
	tags, err := args.Strings("tags")
	if err != nil {
		return nil, err
	}
	id, err := c.CreateNote(ctx, anki.NoteInput{
		Deck:  deck,
		Front: args.String("front"),
		Back:  args.String("back"),
		Model: args.String("note_type"),
		Tags:  tags,
	})
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"note_id": id, "message": fmt.Sprintf("Note added to deck '%s'", deck)}, nil
}

func handleCreateClozeNote(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	deck, err := args.RequiredString("deck_name")
	if err != nil {
		return nil, err
	}
	text, err := args.RequiredString("text")
	if err != nil {
		return nil, err
	}
	tags, err := args.Strings("tags")
	if err != nil {
		return nil, err
	}
	id, err := c.CreateClozeNote(ctx, anki.ClozeInput{
		Deck:  deck,
		Text:  text,
		Extra: args.String("extra"),
		Tags:  tags,
	})
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"note_id": id, "message": fmt.Sprintf("Cloze note added to deck '%s'", deck)}, nil
}

func handleAddTags(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	ids, err := batch.ParseIDs(args["note_ids"], "note_ids")
	if err != nil {
		return nil, err
	}
	tags, err := args.Strings("tags")
	if err != nil {
		return nil, err
	}
	if err := c.AddTags(ctx, ids, tags); err != nil {
		return nil, err
	}
	return envelope.Payload{"message": fmt.Sprintf("Tags added to %d notes", len(ids))}, nil
}

func handleUpdateNote(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	id, err := args.OptionalInt("note_id")
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, envelope.Validationf("note_id is required")
	}
	fields, err := args.StringMap("fields")
	if err != nil {
		return nil, err
	}
	tags, err := args.Strings("tags")
	if err != nil {
		return nil, err
	}
	if err := c.UpdateNote(ctx, int64(*id), fields, tags); err != nil {
		return nil, err
	}
	return envelope.Payload{"message": fmt.Sprintf("Note %d updated", *id)}, nil
}

func handleDeleteNotes(ctx context.Context, c *anki.Client, args common.Args) (envelope.Payload, error) {
	ids, err := batch.ParseIDs(args["note_ids"], "note_ids")
	if err != nil {
		return nil, err
	}
	res, err := c.DeleteNotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	return bulkPayload(ids, res, "deleted", fmt.Sprintf("Deleted %d of %d notes", len(res.Applied), len(ids))), nil
}
