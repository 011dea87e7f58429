package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/bird/internal/config"
	"github.com/teemow/bird/internal/logging"
	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/todoist"
	"github.com/teemow/bird/internal/tools/toolstest"
)

func TestApplyMetricsEnv(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		enabledSet bool
		addrSet    bool
		want       MetricsConfig
	}{
		{
			name: "no env keeps flag defaults",
			want: MetricsConfig{Enabled: true, Addr: ":9090"},
		},
		{
			name: "env disables",
			env:  map[string]string{"METRICS_ENABLED": "false"},
			want: MetricsConfig{Enabled: false, Addr: ":9090"},
		},
		{
			name: "env sets address",
			env:  map[string]string{"METRICS_ADDR": ":9191"},
			want: MetricsConfig{Enabled: true, Addr: ":9191"},
		},
		{
			name:       "explicit flags win",
			env:        map[string]string{"METRICS_ENABLED": "false", "METRICS_ADDR": ":9191"},
			enabledSet: true,
			addrSet:    true,
			want:       MetricsConfig{Enabled: true, Addr: ":9090"},
		},
		{
			name: "unrecognized value ignored",
			env:  map[string]string{"METRICS_ENABLED": "maybe"},
			want: MetricsConfig{Enabled: true, Addr: ":9090"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := MetricsConfig{Enabled: true, Addr: server.DefaultMetricsAddr}
			applyMetricsEnv(&mc, tt.enabledSet, tt.addrSet, func(k string) string { return tt.env[k] })
			assert.Equal(t, tt.want, mc)
		})
	}
}

func TestRegisterAllTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     int
	}{
		{name: "read-write", want: 46},
		{name: "read-only", readOnly: true, want: 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := server.NewServerContext(context.Background(), &registry.Registry{}, server.WithReadOnly(tt.readOnly))
			t.Cleanup(func() { _ = sc.Shutdown() })

			mcpSrv, err := newMCPServer(sc)
			require.NoError(t, err)

			tools := toolstest.ListTools(t, mcpSrv)
			assert.Len(t, tools, tt.want)
			for _, tool := range tools {
				assert.NotEqual(t, "Other", getCategoryFromToolName(tool.Name), tool.Name)
				if tt.readOnly {
					assert.True(t, tool.ReadOnly, tool.Name)
				}
			}
		})
	}
}

func TestWarnIfDegraded(t *testing.T) {
	tests := []struct {
		name     string
		reg      *registry.Registry
		wantWarn bool
	}{
		{name: "no todoist", reg: &registry.Registry{}, wantWarn: true},
		{name: "todoist configured", reg: &registry.Registry{Todoist: registry.Configured[*todoist.Client]("Todoist", nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			warnIfDegraded(logging.NewLogger(&buf, true), tt.reg)

			out := buf.String()
			assert.NotContains(t, out, "Integration configured")
			assert.NotContains(t, out, "Integration disabled")
			if tt.wantWarn {
				assert.Contains(t, out, "primary task service")
			} else {
				assert.Empty(t, out)
			}
		})
	}
}

func TestUnconfiguredToolCall(t *testing.T) {
	sc := server.NewServerContext(context.Background(), &registry.Registry{
		Todoist: registry.NotConfigured[*todoist.Client]("Todoist", "TODOIST_API_TOKEN is not set"),
	})
	t.Cleanup(func() { _ = sc.Shutdown() })

	mcpSrv, err := newMCPServer(sc)
	require.NoError(t, err)

	isError, body := toolstest.Call(t, mcpSrv, "todoist_get_projects", nil)
	assert.True(t, isError)
	assert.Equal(t, "not_configured", body["error_type"])
	assert.Equal(t, "Todoist is not configured: TODOIST_API_TOKEN is not set", body["error"])
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "todoist_get_tasks", want: "Todoist Tools"},
		{name: "anki_find_notes", want: "Anki Tools"},
		{name: "obsidian_read_note", want: "Obsidian Tools"},
		{name: "calendar_find_free_slots", want: "Google Calendar Tools"},
		{name: "health_check", want: "Health Tools"},
		{name: "gmail_list_threads", want: "Other"},
		{name: "noprefix", want: "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getCategoryFromToolName(tt.name))
		})
	}
}

func TestGenerateToolsMarkdown(t *testing.T) {
	readOnly := mcp.NewTool("todoist_get_tasks",
		mcp.WithDescription("List active tasks"),
		mcp.WithString("project_id", mcp.Description("Filter by project")),
	)
	readOnly.Annotations.ReadOnlyHint = mcp.ToBoolPtr(true)
	readOnly.Annotations.DestructiveHint = mcp.ToBoolPtr(false)

	destructive := mcp.NewTool("anki_delete_notes",
		mcp.WithDescription("Delete notes"),
		mcp.WithArray("note_ids", mcp.Required()),
	)
	destructive.Annotations.ReadOnlyHint = mcp.ToBoolPtr(false)
	destructive.Annotations.DestructiveHint = mcp.ToBoolPtr(true)

	md := generateToolsMarkdown([]mcp.Tool{readOnly, destructive})

	assert.Contains(t, md, "- [Anki Tools](#anki-tools)")
	assert.Contains(t, md, "- [Todoist Tools](#todoist-tools)")
	assert.Contains(t, md, "### todoist_get_tasks\n\n_read-only_")
	assert.Contains(t, md, "### anki_delete_notes\n\n_write, destructive_")
	assert.Contains(t, md, "- `project_id` (string, optional): Filter by project")
	assert.Contains(t, md, "- `note_ids` (array, required): no description")
	assert.Less(t, strings.Index(md, "## Anki Tools"), strings.Index(md, "## Todoist Tools"))
}

func TestRunServe_UnsupportedTransport(t *testing.T) {
	err := runServe(serveOptions{transport: "sse"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type: sse")
}

func TestRunAuthCalendar_NoCredentials(t *testing.T) {
	var out strings.Builder
	err := runAuthCalendar(context.Background(), config.CalendarConfig{}, logging.Discard(), &out, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CALENDAR_CREDENTIALS_FILE")
	assert.Empty(t, out.String())
}
