package health_tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/bird/internal/health"
	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/toolstest"
)

type probe struct {
	msg string
	err error
}

func (p probe) Probe(context.Context) (string, error) { return p.msg, p.err }

type source []registry.Entry

func (s source) Entries() []registry.Entry { return s }

func TestHealthCheck(t *testing.T) {
	reporter := health.NewReporter(source{
		{Key: "todoist", Name: "Todoist", Configured: true, Client: probe{msg: "3 projects"}},
		{Key: "anki", Name: "Anki", Configured: true, Client: probe{err: errors.New("connection refused")}},
		{Key: "obsidian", Name: "Obsidian", Reason: "OBSIDIAN_VAULT_PATH is not set"},
	})
	s, sc := toolstest.NewServer(t, nil, server.WithReporter(reporter), server.WithReadOnly(true))
	require.NoError(t, RegisterHealthTools(s, sc))

	tools := toolstest.ListTools(t, s)
	require.Len(t, tools, 1)
	assert.True(t, tools[0].ReadOnly)

	isError, body := toolstest.Call(t, s, "health_check", nil)
	require.False(t, isError, body)

	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
	assert.NotContains(t, body, "overall_status")

	services := body["services"].(map[string]any)
	assert.Equal(t, map[string]any{"status": "connected", "message": "3 projects"}, services["todoist"])
	assert.Equal(t, "error", services["anki"].(map[string]any)["status"])
	assert.Equal(t, map[string]any{"status": "disabled", "message": "OBSIDIAN_VAULT_PATH is not set"}, services["obsidian"])
}
