package todoist_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/todoist"
	"github.com/teemow/bird/internal/tools/batch"
	"github.com/teemow/bird/internal/tools/common"
)

func registerTaskTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getTasks := mcp.NewTool("todoist_get_tasks",
		mcp.WithDescription("List active Todoist tasks, optionally filtered by project, label or a Todoist filter query"),
		mcp.WithString("project_id",
			mcp.Description("Only return tasks in this project"),
		),
		mcp.WithString("label",
			mcp.Description("Only return tasks with this label"),
		),
		mcp.WithString("filter_string",
			mcp.Description("Todoist filter query, e.g. 'today | overdue'"),
		),
	)
	common.AddTool(s, sc, getTasks, spec("get_tasks", true), dispatch(sc, handleGetTasks))

	getTask := mcp.NewTool("todoist_get_task",
		mcp.WithDescription("Get a single Todoist task by ID"),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The ID of the task"),
		),
	)
	common.AddTool(s, sc, getTask, spec("get_task", true), dispatch(sc, handleGetTask))

	createTask := mcp.NewTool("todoist_create_task",
		mcp.WithDescription("Create a new Todoist task"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("description",
			mcp.Description("Task description"),
		),
		mcp.WithString("project_id",
			mcp.Description("Project to add the task to (default: Inbox)"),
		),
		mcp.WithString("due_string",
			mcp.Description("Natural language due date, e.g. 'tomorrow at 9am' or 'every monday'"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority from 1 (normal) to 4 (urgent)"),
		),
		mcp.WithArray("labels",
			mcp.Description("Label names to attach"),
		),
	)
	common.AddTool(s, sc, createTask, spec("create_task", false), dispatch(sc, handleCreateTask))

	updateTask := mcp.NewTool("todoist_update_task",
		mcp.WithDescription("Update fields of an existing Todoist task. Omitted fields are left unchanged."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The ID of the task to update"),
		),
		mcp.WithString("content",
			mcp.Description("New task title"),
		),
		mcp.WithString("description",
			mcp.Description("New task description"),
		),
		mcp.WithString("due_string",
			mcp.Description("New natural language due date"),
		),
		mcp.WithNumber("priority",
			mcp.Description("New priority from 1 (normal) to 4 (urgent)"),
		),
		mcp.WithArray("labels",
			mcp.Description("Replacement label names"),
		),
	)
	common.AddTool(s, sc, updateTask, spec("update_task", false), dispatch(sc, handleUpdateTask))

	completeTask := mcp.NewTool("todoist_complete_task",
		mcp.WithDescription("Mark one or more Todoist tasks as completed"),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID, or a JSON array of task IDs, e.g. '[\"123\", \"456\"]'"),
		),
	)
	common.AddTool(s, sc, completeTask, spec("complete_task", false), dispatch(sc, handleCompleteTask))

	deleteSpec := spec("delete_task", false)
	deleteSpec.Destructive = true
	deleteTask := mcp.NewTool("todoist_delete_task",
		mcp.WithDescription("Permanently delete a Todoist task"),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("The ID of the task to delete"),
		),
	)
	common.AddTool(s, sc, deleteTask, deleteSpec, dispatch(sc, handleDeleteTask))

	return nil
}

func handleGetTasks(ctx context.Context, c *todoist.Client, args common.Args) (envelope.Payload, error) {
	tasks, err := c.GetTasks(ctx, todoist.TaskFilter{
		ProjectID: args.String("project_id"),
		Label:     args.String("label"),
		Filter:    args.String("filter_string"),
	})
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []todoist.Task{}
	}
	return envelope.Payload{"tasks": tasks, "count": len(tasks)}, nil
}

func handleGetTask(ctx context.Context, c *todoist.Client, args common.Args) (envelope.Payload, error) {
	id, err := args.RequiredString("task_id")
	if err != nil {
		return nil, err
	}
	task, err := c.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"task": task}, nil
}

func handleCreateTask(ctx context.Context, c *todoist.Client, args common.Args) (envelope.Payload, error) {
	content, err := args.RequiredString("content")
	if err != nil {
		return nil, err
	}
	priority, err := args.Int("priority", 0)
	if err != nil {
		return nil, err
	}
	labels, err := args.Strings("labels")
	if err != nil {
		return nil, err
	}
	task, err := c.CreateTask(ctx, todoist.TaskInput{
		Content:     content,
		Description: args.String("description"),
		ProjectID:   args.String("project_id"),
		DueString:   args.String("due_string"),
		Priority:    priority,
		Labels:      labels,
	})
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"task": task}, nil
}

func handleUpdateTask(ctx context.Context, c *todoist.Client, args common.Args) (envelope.Payload, error) {
	id, err := args.RequiredString("task_id")
	if err != nil {
		return nil, err
	}
	var u todoist.TaskUpdate
	if u.Content, err = args.OptionalString("content"); err != nil {
		return nil, err
	}
	if u.Description, err = args.OptionalString("description"); err != nil {
		return nil, err
	}
	if u.DueString, err = args.OptionalString("due_string"); err != nil {
		return nil, err
	}
	if u.Priority, err = args.OptionalInt("priority"); err != nil {
		return nil, err
	}
	if u.Labels, err = args.Strings("labels"); err != nil {
		return nil, err
	}
	task, err := c.UpdateTask(ctx, id, u)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"task": task}, nil
}

func handleCompleteTask(ctx context.Context, c *todoist.Client, args common.Args) (envelope.Payload, error) {
	ids, err := batch.ParseStringOrArray(args["task_id"], "task_id")
	if err != nil {
		return nil, err
	}
	if len(ids) == 1 {
		if err := c.CompleteTask(ctx, ids[0]); err != nil {
			return nil, err
		}
		return envelope.Payload{"message": fmt.Sprintf("Task %s marked as completed", ids[0])}, nil
	}

	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (string, error) {
		if err := c.CompleteTask(ctx, id); err != nil {
			return "", err
		}
		return "completed", nil
	})
	return batch.Summarize(results).Payload(), nil
}

func handleDeleteTask(ctx context.Context, c *todoist.Client, args common.Args) (envelope.Payload, error) {
	id, err := args.RequiredString("task_id")
	if err != nil {
		return nil, err
	}
	if err := c.DeleteTask(ctx, id); err != nil {
		return nil, err
	}
	return envelope.Payload{"message": fmt.Sprintf("Task %s deleted permanently", id)}, nil
}
