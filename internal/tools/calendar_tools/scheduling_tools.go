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

// RegisterSchedulingTools registers scheduling and availability tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	common.AddTool(s, sc,
		mcp.NewTool("calendar_find_free_slots",
			mcp.WithDescription("Find free time slots of at least the given length between time_min and time_max"),
			mcp.WithString("time_min",
				mcp.Required(),
				mcp.Description("Start of the search window"),
			),
			mcp.WithString("time_max",
				mcp.Required(),
				mcp.Description("End of the search window"),
			),
			mcp.WithNumber("duration_minutes",
				mcp.Description("Minimum slot length in minutes (default: 60)"),
			),
			mcp.WithString("calendar_id",
				mcp.Description("Calendar whose busy time counts (default: 'primary')"),
			),
			mcp.WithArray("calendar_ids",
				mcp.Description("Several calendars whose busy time counts; overrides calendar_id"),
			),
			mcp.WithString("timezone",
				mcp.Description("Timezone for times without an offset (default: UTC)"),
			),
		),
		spec("find_free_slots", true), dispatch(sc, handleFindFreeSlots))

	common.AddTool(s, sc,
		mcp.NewTool("calendar_create_study_block",
			mcp.WithDescription("Book a focused study session titled 'Study: <subject>'"),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("What to study, e.g. 'French Grammar'"),
			),
			mcp.WithString("start_time",
				mcp.Required(),
				mcp.Description("Start time"),
			),
			mcp.WithNumber("duration_minutes",
				mcp.Description("Length in minutes (default: 60)"),
			),
			mcp.WithString("calendar_id",
				mcp.Description(calendarIDDescription),
			),
			mcp.WithString("timezone",
				mcp.Description("IANA timezone (default: UTC)"),
			),
		),
		spec("create_study_block", false), dispatch(sc, handleCreateStudyBlock))

	return nil
}

func handleFindFreeSlots(ctx context.Context, c *calendar.Client, args common.Args) (envelope.Payload, error) {
	tz := args.String("timezone")
	start, err := timeArg(args, "time_min", tz, true)
	if err != nil {
		return nil, err
	}
	end, err := timeArg(args, "time_max", tz, true)
	if err != nil {
		return nil, err
	}
	minutes, minDuration, err := durationArg(args, "duration_minutes", 60)
	if err != nil {
		return nil, err
	}
	ids, err := args.Strings("calendar_ids")
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 && args.String("calendar_id") != "" {
		ids = []string{args.String("calendar_id")}
	}

	slots, err := c.FreeSlots(ctx, calendar.FreeSlotQuery{
		Window:      calendar.TimeRange{Start: start, End: end},
		MinDuration: minDuration,
		CalendarIDs: ids,
	})
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []calendar.TimeRange{}
	}
	return envelope.Payload{
		"free_slots":       slots,
		"count":            len(slots),
		"duration_minutes": minutes,
	}, nil
}

func handleCreateStudyBlock(ctx context.Context, c *calendar.Client, args common.Args) (envelope.Payload, error) {
	subject, err := args.RequiredString("subject")
	if err != nil {
		return nil, err
	}
	tz := args.String("timezone")
	start, err := timeArg(args, "start_time", tz, true)
	if err != nil {
		return nil, err
	}
	minutes, duration, err := durationArg(args, "duration_minutes", 60)
	if err != nil {
		return nil, err
	}
	event, err := c.CreateStudyBlock(ctx, args.String("calendar_id"), subject, start, duration, tz)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"event": event, "duration_minutes": minutes}, nil
}
