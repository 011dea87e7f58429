// Package todoist is a client for the Todoist REST API.
//
// It covers tasks, projects, labels, sections and comments, plus a local
// statistics pass over the active task list. Network calls are retried on
// transient failures; write requests carry an X-Request-Id so a retried
// request is not applied twice.
package todoist
