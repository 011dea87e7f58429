// Package toolstest drives registered MCP tools through the JSON-RPC entry
// point in tests.
package toolstest

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/server"
)

// NewServer returns an empty MCP server and a context over reg.
func NewServer(t *testing.T, reg *registry.Registry, opts ...server.Option) (*mcpserver.MCPServer, *server.ServerContext) {
	t.Helper()
	if reg == nil {
		reg = &registry.Registry{}
	}
	sc := server.NewServerContext(context.Background(), reg, opts...)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return mcpserver.NewMCPServer("bird-test", "test", mcpserver.WithToolCapabilities(true)), sc
}

// Tool is a registered tool as listed by the server.
type Tool struct {
	Name        string
	ReadOnly    bool
	Destructive bool
}

// ListTools returns the registered tools sorted by name.
func ListTools(t *testing.T, s *mcpserver.MCPServer) []Tool {
	t.Helper()
	res := roundTrip(t, s, "tools/list", map[string]any{})
	var tools []Tool
	res.Get("result.tools").ForEach(func(_, v gjson.Result) bool {
		tools = append(tools, Tool{
			Name:        v.Get("name").String(),
			ReadOnly:    v.Get("annotations.readOnlyHint").Bool(),
			Destructive: v.Get("annotations.destructiveHint").Bool(),
		})
		return true
	})
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Names returns the sorted tool names.
func Names(t *testing.T, s *mcpserver.MCPServer) []string {
	t.Helper()
	var names []string
	for _, tool := range ListTools(t, s) {
		names = append(names, tool.Name)
	}
	return names
}

// Call invokes a tool and decodes the envelope it returns.
func Call(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]any) (isError bool, body map[string]any) {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res := roundTrip(t, s, "tools/call", map[string]any{"name": name, "arguments": args})
	require.False(t, res.Get("error").Exists(), "rpc error: %s", res.Get("error").Raw)
	text := res.Get("result.content.0.text").String()
	require.NoError(t, json.Unmarshal([]byte(text), &body), "tool output: %s", text)
	return res.Get("result.isError").Bool(), body
}

// ReadResource reads uri and returns the text of its first content.
func ReadResource(t *testing.T, s *mcpserver.MCPServer, uri string) string {
	t.Helper()
	res := roundTrip(t, s, "resources/read", map[string]any{"uri": uri})
	require.False(t, res.Get("error").Exists(), "rpc error: %s", res.Get("error").Raw)
	return res.Get("result.contents.0.text").String()
}

func roundTrip(t *testing.T, s *mcpserver.MCPServer, method string, params any) gjson.Result {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)
	out, err := json.Marshal(s.HandleMessage(context.Background(), msg))
	require.NoError(t, err)
	return gjson.ParseBytes(out)
}
