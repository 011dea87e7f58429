package todoist_tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/retry"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/todoist"
	"github.com/teemow/bird/internal/tools/toolstest"
)

type fakeTodoist struct {
	calls   atomic.Int32
	created todoist.TaskInput
}

func (f *fakeTodoist) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []todoist.Task{
			{ID: "1", Content: "Buy milk", ProjectID: r.URL.Query().Get("project_id"), Priority: 4},
			{ID: "2", Content: "Read book", Priority: 1},
		})
	})
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&f.created)
		writeJSON(w, todoist.Task{ID: "99", Content: f.created.Content, Priority: f.created.Priority})
	})
	mux.HandleFunc("POST /tasks/{id}/close", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []todoist.Project{{ID: "p1", Name: "Inbox"}})
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newRegistry(t *testing.T, f *fakeTodoist) *registry.Registry {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	client, err := todoist.NewClient("secret", srv.URL,
		todoist.WithRetryPolicy(retry.Policy{Attempts: 1, BaseDelay: time.Millisecond}))
	require.NoError(t, err)
	return &registry.Registry{Todoist: registry.Configured("Todoist", client)}
}

func TestRegisterTodoistTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{
			name: "read-write",
			want: []string{
				"todoist_add_comment", "todoist_analyze_stats", "todoist_complete_task",
				"todoist_create_task", "todoist_delete_task", "todoist_get_comments",
				"todoist_get_labels", "todoist_get_projects", "todoist_get_sections",
				"todoist_get_task", "todoist_get_tasks", "todoist_update_task",
			},
		},
		{
			name:     "read-only",
			readOnly: true,
			want: []string{
				"todoist_analyze_stats", "todoist_get_comments", "todoist_get_labels",
				"todoist_get_projects", "todoist_get_sections", "todoist_get_task",
				"todoist_get_tasks",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sc := toolstest.NewServer(t, nil, server.WithReadOnly(tt.readOnly))
			require.NoError(t, RegisterTodoistTools(s, sc))
			assert.Equal(t, tt.want, toolstest.Names(t, s))
		})
	}
}

func TestAnnotations(t *testing.T) {
	s, sc := toolstest.NewServer(t, nil)
	require.NoError(t, RegisterTodoistTools(s, sc))

	for _, tool := range toolstest.ListTools(t, s) {
		switch tool.Name {
		case "todoist_delete_task":
			assert.True(t, tool.Destructive, tool.Name)
			assert.False(t, tool.ReadOnly, tool.Name)
		case "todoist_get_tasks":
			assert.True(t, tool.ReadOnly, tool.Name)
			assert.False(t, tool.Destructive, tool.Name)
		}
	}
}

func TestNotConfigured(t *testing.T) {
	reg := &registry.Registry{
		Todoist: registry.NotConfigured[*todoist.Client]("Todoist", "TODOIST_API_TOKEN is not set"),
	}
	s, sc := toolstest.NewServer(t, reg)
	require.NoError(t, RegisterTodoistTools(s, sc))

	isError, body := toolstest.Call(t, s, "todoist_get_tasks", nil)
	assert.True(t, isError)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not_configured", body["error_type"])
	assert.Equal(t, "Todoist is not configured: TODOIST_API_TOKEN is not set", body["error"])
}

func TestGetTasks(t *testing.T) {
	f := &fakeTodoist{}
	s, sc := toolstest.NewServer(t, newRegistry(t, f))
	require.NoError(t, RegisterTodoistTools(s, sc))

	isError, body := toolstest.Call(t, s, "todoist_get_tasks", map[string]any{"project_id": "p1"})
	require.False(t, isError, body)
	assert.Equal(t, float64(2), body["count"])
	tasks := body["tasks"].([]any)
	assert.Equal(t, "p1", tasks[0].(map[string]any)["project_id"])
}

func TestCreateTask(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		wantError string
		wantCalls int32
	}{
		{
			name:      "created",
			args:      map[string]any{"content": "Write report", "priority": float64(3), "labels": []any{"work"}},
			wantCalls: 1,
		},
		{
			name:      "missing content",
			args:      map[string]any{"priority": float64(3)},
			wantError: "Todoist error: content is required",
		},
		{
			name:      "priority out of range",
			args:      map[string]any{"content": "x", "priority": float64(7)},
			wantError: "Todoist error: priority must be between 1 and 4, got 7",
		},
		{
			name:      "labels not strings",
			args:      map[string]any{"content": "x", "labels": []any{1}},
			wantError: "Todoist error: labels[0] must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeTodoist{}
			s, sc := toolstest.NewServer(t, newRegistry(t, f))
			require.NoError(t, RegisterTodoistTools(s, sc))

			isError, body := toolstest.Call(t, s, "todoist_create_task", tt.args)
			assert.Equal(t, tt.wantCalls, f.calls.Load())
			if tt.wantError != "" {
				assert.True(t, isError)
				assert.Equal(t, tt.wantError, body["error"])
				assert.Equal(t, "validation", body["error_type"])
				return
			}
			require.False(t, isError, body)
			assert.Equal(t, "Write report", f.created.Content)
			assert.Equal(t, 3, f.created.Priority)
			assert.Equal(t, []string{"work"}, f.created.Labels)
			assert.Equal(t, "99", body["task"].(map[string]any)["id"])
		})
	}
}

func TestCompleteTask(t *testing.T) {
	f := &fakeTodoist{}
	s, sc := toolstest.NewServer(t, newRegistry(t, f))
	require.NoError(t, RegisterTodoistTools(s, sc))

	t.Run("single", func(t *testing.T) {
		isError, body := toolstest.Call(t, s, "todoist_complete_task", map[string]any{"task_id": "1"})
		require.False(t, isError, body)
		assert.Equal(t, "Task 1 marked as completed", body["message"])
	})

	t.Run("single missing", func(t *testing.T) {
		isError, body := toolstest.Call(t, s, "todoist_complete_task", map[string]any{"task_id": "missing"})
		assert.True(t, isError)
		assert.Equal(t, "permanent", body["error_type"])
		assert.Contains(t, body["error"], "HTTP 404")
	})

	t.Run("batch with partial failure", func(t *testing.T) {
		isError, body := toolstest.Call(t, s, "todoist_complete_task", map[string]any{"task_id": `["1", "missing", "3"]`})
		require.False(t, isError, body)
		assert.Equal(t, float64(3), body["total"])
		assert.Equal(t, float64(2), body["successful"])
		assert.Equal(t, float64(1), body["failed"])
	})
}

func TestUpdateTaskRequiresAField(t *testing.T) {
	f := &fakeTodoist{}
	s, sc := toolstest.NewServer(t, newRegistry(t, f))
	require.NoError(t, RegisterTodoistTools(s, sc))

	isError, body := toolstest.Call(t, s, "todoist_update_task", map[string]any{"task_id": "1"})
	assert.True(t, isError)
	assert.Equal(t, "validation", body["error_type"])
	assert.Zero(t, f.calls.Load())
}
