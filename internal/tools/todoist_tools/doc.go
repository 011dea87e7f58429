// Package todoist_tools exposes the Todoist adapter as MCP tools.
//
// Task tools cover create, read, update, complete and delete. Project,
// label, section and comment tools are mostly read-only; todoist_analyze_stats
// summarises the active task list by priority, project, label and due date.
package todoist_tools
