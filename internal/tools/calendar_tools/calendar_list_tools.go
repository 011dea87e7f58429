package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/calendar"
	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/common"
)

// RegisterCalendarListTools registers calendar list tools with the MCP server
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	common.AddTool(s, sc,
		mcp.NewTool("calendar_list_calendars",
			mcp.WithDescription("List all calendars the user can access"),
		),
		spec("list_calendars", true), dispatch(sc, handleListCalendars))
	return nil
}

func handleListCalendars(ctx context.Context, c *calendar.Client, _ common.Args) (envelope.Payload, error) {
	cals, err := c.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	if cals == nil {
		cals = []calendar.CalendarInfo{}
	}
	return envelope.Payload{"calendars": cals, "count": len(cals)}, nil
}
