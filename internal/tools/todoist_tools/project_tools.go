package todoist_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/todoist"
	"github.com/teemow/bird/internal/tools/common"
)

func registerProjectTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	common.AddTool(s, sc,
		mcp.NewTool("todoist_get_projects",
			mcp.WithDescription("List all Todoist projects"),
		),
		spec("get_projects", true), dispatch(sc, handleGetProjects))

	common.AddTool(s, sc,
		mcp.NewTool("todoist_get_labels",
			mcp.WithDescription("List all personal Todoist labels"),
		),
		spec("get_labels", true), dispatch(sc, handleGetLabels))

	common.AddTool(s, sc,
		mcp.NewTool("todoist_get_sections",
			mcp.WithDescription("List Todoist sections, optionally for one project"),
			mcp.WithString("project_id",
				mcp.Description("Only return sections of this project"),
			),
		),
		spec("get_sections", true), dispatch(sc, handleGetSections))

	common.AddTool(s, sc,
		mcp.NewTool("todoist_get_comments",
			mcp.WithDescription("List the comments on a Todoist task"),
			mcp.WithString("task_id",
				mcp.Required(),
				mcp.Description("The ID of the task"),
			),
		),
		spec("get_comments", true), dispatch(sc, handleGetComments))

	common.AddTool(s, sc,
		mcp.NewTool("todoist_add_comment",
			mcp.WithDescription("Add a comment to a Todoist task"),
			mcp.WithString("task_id",
				mcp.Required(),
				mcp.Description("The ID of the task"),
			),
			mcp.WithString("content",
				mcp.Required(),
				mcp.Description("Comment text (Markdown supported)"),
			),
		),
		spec("add_comment", false), dispatch(sc, handleAddComment))

	common.AddTool(s, sc,
		mcp.NewTool("todoist_analyze_stats",
			mcp.WithDescription("Summarise active tasks by priority, project, label and due date"),
		),
		spec("analyze_stats", true), dispatch(sc, handleAnalyzeStats))

	return nil
}

func handleGetProjects(ctx context.Context, c *todoist.Client, _ common.Args) (envelope.Payload, error) {
	projects, err := c.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []todoist.Project{}
	}
	return envelope.Payload{"projects": projects, "count": len(projects)}, nil
}

func handleGetLabels(ctx context.Context, c *todoist.Client, _ common.Args) (envelope.Payload, error) {
	labels, err := c.GetLabels(ctx)
	if err != nil {
		return nil, err
	}
	if labels == nil {
		labels = []todoist.Label{}
	}
	return envelope.Payload{"labels": labels, "count": len(labels)}, nil
}

func handleGetSections(ctx context.Context, c *todoist.Client, args common.Args) (envelope.Payload, error) {
	sections, err := c.GetSections(ctx, args.String("project_id"))
	if err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []todoist.Section{}
	}
	return envelope.Payload{"sections": sections, "count": len(sections)}, nil
}

func handleGetComments(ctx context.Context, c *todoist.Client, args common.Args) (envelope.Payload, error) {
	taskID, err := args.RequiredString("task_id")
	if err != nil {
		return nil, err
	}
	comments, err := c.GetComments(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []todoist.Comment{}
	}
	return envelope.Payload{"comments": comments, "count": len(comments)}, nil
}

func handleAddComment(ctx context.Context, c *todoist.Client, args common.Args) (envelope.Payload, error) {
	taskID, err := args.RequiredString("task_id")
	if err != nil {
		return nil, err
	}
	content, err := args.RequiredString("content")
	if err != nil {
		return nil, err
	}
	comment, err := c.AddComment(ctx, taskID, content)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"comment": comment}, nil
}

func handleAnalyzeStats(ctx context.Context, c *todoist.Client, _ common.Args) (envelope.Payload, error) {
	stats, err := c.AnalyzeStats(ctx)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"stats": stats}, nil
}
