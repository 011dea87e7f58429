package obsidian_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/obsidian"
	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/common"
)

type opFunc func(ctx context.Context, vault *obsidian.Vault, args common.Args) (envelope.Payload, error)

func dispatch(sc *server.ServerContext, op opFunc) common.Func {
	return func(ctx context.Context, args common.Args) envelope.Result {
		return registry.Dispatch(ctx, sc.Registry().Obsidian, func(ctx context.Context, v *obsidian.Vault) (envelope.Payload, error) {
			return op(ctx, v, args)
		})
	}
}

func spec(operation string, readOnly bool) common.Spec {
	return common.Spec{
		Name:      "obsidian_" + operation,
		Service:   registry.ServiceObsidian,
		Operation: operation,
		ReadOnly:  readOnly,
	}
}

// RegisterObsidianTools registers all vault tools with the MCP server.
func RegisterObsidianTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	common.AddTool(s, sc,
		mcp.NewTool("obsidian_read_note",
			mcp.WithDescription("Read a note's frontmatter and body"),
			mcp.WithString("note_path",
				mcp.Required(),
				mcp.Description("Path relative to the vault root, e.g. '6 - main notes/My Note.md'"),
			),
		),
		spec("read_note", true), dispatch(sc, handleReadNote))

	common.AddTool(s, sc,
		mcp.NewTool("obsidian_search_notes",
			mcp.WithDescription("Find notes by text, folder and/or tag. Text matching is case-insensitive."),
			mcp.WithString("query",
				mcp.Description("Text to look for in the note"),
			),
			mcp.WithString("folder",
				mcp.Description("Only search below this folder"),
			),
			mcp.WithString("tag",
				mcp.Description("Tag from the frontmatter or inline #tag, with or without '#'"),
			),
		),
		spec("search_notes", true), dispatch(sc, handleSearchNotes))

	common.AddTool(s, sc,
		mcp.NewTool("obsidian_list_notes",
			mcp.WithDescription("List notes in the vault or a folder, newest first"),
			mcp.WithString("folder",
				mcp.Description("Folder to list (default: vault root)"),
			),
			mcp.WithBoolean("recursive",
				mcp.Description("Include subfolders (default: true)"),
			),
		),
		spec("list_notes", true), dispatch(sc, handleListNotes))

	common.AddTool(s, sc,
		mcp.NewTool("obsidian_get_vault_stats",
			mcp.WithDescription("Count notes and bytes in the vault, per folder"),
		),
		spec("get_vault_stats", true), dispatch(sc, handleVaultStats))

	common.AddTool(s, sc,
		mcp.NewTool("obsidian_create_note",
			mcp.WithDescription("Create a note. Fails if a note with the same title exists in the folder."),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Note title, also used as the file name"),
			),
			mcp.WithString("content",
				mcp.Description("Markdown body below the title heading"),
			),
			mcp.WithString("folder",
				mcp.Description("Folder relative to the vault root (default: root)"),
			),
			mcp.WithArray("tags",
				mcp.Description("Tags stored in the frontmatter"),
			),
			mcp.WithObject("frontmatter",
				mcp.Description("Additional frontmatter keys"),
			),
		),
		spec("create_note", false), dispatch(sc, handleCreateNote))

	common.AddTool(s, sc,
		mcp.NewTool("obsidian_update_note",
			mcp.WithDescription("Replace or append to a note's body and merge frontmatter keys"),
			mcp.WithString("note_path",
				mcp.Required(),
				mcp.Description("Path relative to the vault root"),
			),
			mcp.WithString("content",
				mcp.Description("New body, or text to append when append is true. Omit to keep the body."),
			),
			mcp.WithBoolean("append",
				mcp.Description("Append content instead of replacing the body"),
			),
			mcp.WithObject("frontmatter",
				mcp.Description("Frontmatter keys to set"),
			),
			mcp.WithBoolean("replace_frontmatter",
				mcp.Description("Drop existing frontmatter keys before setting the given ones"),
			),
		),
		spec("update_note", false), dispatch(sc, handleUpdateNote))

	common.AddTool(s, sc,
		mcp.NewTool("obsidian_get_daily_note",
			mcp.WithDescription("Get the daily note for a date, creating it if needed"),
			mcp.WithString("date",
				mcp.Description("Date as YYYY-MM-DD (default: today)"),
			),
		),
		spec("get_daily_note", false), dispatch(sc, handleDailyNote))

	deleteSpec := spec("delete_note", false)
	deleteSpec.Destructive = true
	common.AddTool(s, sc,
		mcp.NewTool("obsidian_delete_note",
			mcp.WithDescription("Delete a note from the vault"),
			mcp.WithString("note_path",
				mcp.Required(),
				mcp.Description("Path relative to the vault root"),
			),
		),
		deleteSpec, dispatch(sc, handleDeleteNote))

	return nil
}

func handleReadNote(ctx context.Context, v *obsidian.Vault, args common.Args) (envelope.Payload, error) {
	notePath, err := args.RequiredString("note_path")
	if err != nil {
		return nil, err
	}
	note, err := v.ReadNote(ctx, notePath)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"note": note}, nil
}

func handleSearchNotes(ctx context.Context, v *obsidian.Vault, args common.Args) (envelope.Payload, error) {
	notes, err := v.SearchNotes(ctx, obsidian.SearchQuery{
		Query:  args.String("query"),
		Folder: args.String("folder"),
		Tag:    args.String("tag"),
	})
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"results": notes, "count": len(notes)}, nil
}

func handleListNotes(ctx context.Context, v *obsidian.Vault, args common.Args) (envelope.Payload, error) {
	recursive, err := args.Bool("recursive", true)
	if err != nil {
		return nil, err
	}
	notes, err := v.ListNotes(ctx, args.String("folder"), recursive)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"notes": notes, "count": len(notes)}, nil
}

func handleVaultStats(ctx context.Context, v *obsidian.Vault, _ common.Args) (envelope.Payload, error) {
	stats, err := v.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"stats": stats}, nil
}

func handleCreateNote(ctx context.Context, v *obsidian.Vault, args common.Args) (envelope.Payload, error) {
	title, err := args.RequiredString("title")
	if err != nil {
		return nil, err
	}
	tags, err := args.Strings("tags")
	if err != nil {
		return nil, err
	}
	fm, err := args.Object("frontmatter")
	if err != nil {
		return nil, err
	}
	note, err := v.CreateNote(ctx, obsidian.NoteInput{
		Title:       title,
		Content:     args.String("content"),
		Folder:      args.String("folder"),
		Tags:        tags,
		Frontmatter: fm,
	})
	if err != nil {
		return nil, err
	}
	return envelope.Payload{
		"path":    note.Path,
		"message": fmt.Sprintf("Note created: %s", note.Path),
		"note":    note,
	}, nil
}

func handleUpdateNote(ctx context.Context, v *obsidian.Vault, args common.Args) (envelope.Payload, error) {
	notePath, err := args.RequiredString("note_path")
	if err != nil {
		return nil, err
	}
	var u obsidian.NoteUpdate
	if u.Content, err = args.OptionalString("content"); err != nil {
		return nil, err
	}
	if u.Append, err = args.Bool("append", false); err != nil {
		return nil, err
	}
	if u.Frontmatter, err = args.Object("frontmatter"); err != nil {
		return nil, err
	}
	if u.ReplaceFrontmatter, err = args.Bool("replace_frontmatter", false); err != nil {
		return nil, err
	}
	note, err := v.UpdateNote(ctx, notePath, u)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{
		"path":    note.Path,
		"message": fmt.Sprintf("Note updated: %s", note.Path),
		"note":    note,
	}, nil
}

func handleDailyNote(ctx context.Context, v *obsidian.Vault, args common.Args) (envelope.Payload, error) {
	note, err := v.DailyNote(ctx, args.String("date"))
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"path": note.Path, "note": note}, nil
}

func handleDeleteNote(ctx context.Context, v *obsidian.Vault, args common.Args) (envelope.Payload, error) {
	notePath, err := args.RequiredString("note_path")
	if err != nil {
		return nil, err
	}
	if err := v.DeleteNote(ctx, notePath); err != nil {
		return nil, err
	}
	return envelope.Payload{"message": fmt.Sprintf("Note deleted: %s", notePath)}, nil
}
