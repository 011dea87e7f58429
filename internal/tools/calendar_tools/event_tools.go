package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/calendar"
	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/common"
)

const calendarIDDescription = "Calendar ID (default: 'primary')"

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	common.AddTool(s, sc,
		mcp.NewTool("calendar_list_events",
			mcp.WithDescription("List single events in a time window, ordered by start time"),
			mcp.WithString("calendar_id",
				mcp.Description(calendarIDDescription),
			),
			mcp.WithString("time_min",
				mcp.Description("Start of the window (default: now)"),
			),
			mcp.WithString("time_max",
				mcp.Description("End of the window"),
			),
			mcp.WithNumber("max_results",
				mcp.Description("Maximum number of events (default: 10)"),
			),
			mcp.WithString("query",
				mcp.Description("Free-text search within events"),
			),
			mcp.WithString("timezone",
				mcp.Description("Timezone for times without an offset (default: UTC)"),
			),
		),
		spec("list_events", true), dispatch(sc, handleListEvents))

	common.AddTool(s, sc,
		mcp.NewTool("calendar_get_today_events",
			mcp.WithDescription("List today's events"),
			mcp.WithString("calendar_id",
				mcp.Description(calendarIDDescription),
			),
		),
		spec("get_today_events", true), dispatch(sc, handleTodayEvents))

	common.AddTool(s, sc,
		mcp.NewTool("calendar_get_upcoming_events",
			mcp.WithDescription("List events in the next days"),
			mcp.WithString("calendar_id",
				mcp.Description(calendarIDDescription),
			),
			mcp.WithNumber("days",
				mcp.Description("Number of days to look ahead (default: 7)"),
			),
			mcp.WithNumber("max_results",
				mcp.Description("Maximum number of events (default: 20)"),
			),
		),
		spec("get_upcoming_events", true), dispatch(sc, handleUpcomingEvents))

	common.AddTool(s, sc,
		mcp.NewTool("calendar_create_event",
			mcp.WithDescription("Create a calendar event"),
			mcp.WithString("summary",
				mcp.Required(),
				mcp.Description("Event title"),
			),
			mcp.WithString("start_time",
				mcp.Required(),
				mcp.Description("Start time, e.g. '2025-01-15T14:00:00Z' or '2025-01-15T14:00'"),
			),
			mcp.WithString("end_time",
				mcp.Required(),
				mcp.Description("End time"),
			),
			mcp.WithString("calendar_id",
				mcp.Description(calendarIDDescription),
			),
			mcp.WithString("description",
				mcp.Description("Event description"),
			),
			mcp.WithString("location",
				mcp.Description("Event location"),
			),
			mcp.WithArray("attendees",
				mcp.Description("Attendee email addresses"),
			),
			mcp.WithString("timezone",
				mcp.Description("IANA timezone, e.g. 'Europe/Berlin' (default: UTC)"),
			),
		),
		spec("create_event", false), dispatch(sc, handleCreateEvent))

	common.AddTool(s, sc,
		mcp.NewTool("calendar_update_event",
			mcp.WithDescription("Update an event. Omitted fields are left unchanged."),
			mcp.WithString("event_id",
				mcp.Required(),
				mcp.Description("The ID of the event"),
			),
			mcp.WithString("calendar_id",
				mcp.Description(calendarIDDescription),
			),
			mcp.WithString("summary",
				mcp.Description("New title"),
			),
			mcp.WithString("start_time",
				mcp.Description("New start time"),
			),
			mcp.WithString("end_time",
				mcp.Description("New end time"),
			),
			mcp.WithString("description",
				mcp.Description("New description"),
			),
			mcp.WithString("location",
				mcp.Description("New location"),
			),
			mcp.WithArray("attendees",
				mcp.Description("Replacement list of attendee email addresses; an empty list removes all guests"),
			),
			mcp.WithString("timezone",
				mcp.Description("IANA timezone (default: UTC)"),
			),
		),
		spec("update_event", false), dispatch(sc, handleUpdateEvent))

	common.AddTool(s, sc,
		mcp.NewTool("calendar_quick_add",
			mcp.WithDescription("Create an event from text, e.g. 'Lunch with Sam tomorrow at 12pm'"),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Event description in natural language"),
			),
			mcp.WithString("calendar_id",
				mcp.Description(calendarIDDescription),
			),
		),
		spec("quick_add", false), dispatch(sc, handleQuickAdd))

	deleteSpec := spec("delete_event", false)
	deleteSpec.Destructive = true
	common.AddTool(s, sc,
		mcp.NewTool("calendar_delete_event",
			mcp.WithDescription("Delete a calendar event"),
			mcp.WithString("event_id",
				mcp.Required(),
				mcp.Description("The ID of the event"),
			),
			mcp.WithString("calendar_id",
				mcp.Description(calendarIDDescription),
			),
		),
		deleteSpec, dispatch(sc, handleDeleteEvent))

	return nil
}

func handleListEvents(ctx context.Context, c *calendar.Client, args common.Args) (envelope.Payload, error) {
	tz := args.String("timezone")
	timeMin, err := timeArg(args, "time_min", tz, false)
	if err != nil {
		return nil, err
	}
	timeMax, err := timeArg(args, "time_max", tz, false)
	if err != nil {
		return nil, err
	}
	maxResults, err := args.Int("max_results", 10)
	if err != nil {
		return nil, err
	}
	events, err := c.ListEvents(ctx, args.String("calendar_id"), calendar.EventQuery{
		TimeMin:    timeMin,
		TimeMax:    timeMax,
		MaxResults: int64(maxResults),
		Query:      args.String("query"),
	})
	if err != nil {
		return nil, err
	}
	return eventsPayload(events), nil
}

func handleTodayEvents(ctx context.Context, c *calendar.Client, args common.Args) (envelope.Payload, error) {
	events, err := c.TodayEvents(ctx, args.String("calendar_id"))
	if err != nil {
		return nil, err
	}
	return eventsPayload(events), nil
}

func handleUpcomingEvents(ctx context.Context, c *calendar.Client, args common.Args) (envelope.Payload, error) {
	days, err := args.Int("days", 7)
	if err != nil {
		return nil, err
	}
	maxResults, err := args.Int("max_results", 20)
	if err != nil {
		return nil, err
	}
	events, err := c.UpcomingEvents(ctx, args.String("calendar_id"), days, int64(maxResults))
	if err != nil {
		return nil, err
	}
	p := eventsPayload(events)
	p["days"] = days
	return p, nil
}

func handleCreateEvent(ctx context.Context, c *calendar.Client, args common.Args) (envelope.Payload, error) {
	summary, err := args.RequiredString("summary")
	if err != nil {
		return nil, err
	}
	tz := args.String("timezone")
	start, err := timeArg(args, "start_time", tz, true)
	if err != nil {
		return nil, err
	}
	end, err := timeArg(args, "end_time", tz, true)
	if err != nil {
		return nil, err
	}
	attendees, err := args.Strings("attendees")
	if err != nil {
		return nil, err
	}
	event, err := c.CreateEvent(ctx, args.String("calendar_id"), calendar.EventInput{
		Summary:     summary,
		Description: args.String("description"),
		Location:    args.String("location"),
		Start:       start,
		End:         end,
		TimeZone:    tz,
		Attendees:   attendees,
	})
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"event": event}, nil
}

func handleUpdateEvent(ctx context.Context, c *calendar.Client, args common.Args) (envelope.Payload, error) {
	eventID, err := args.RequiredString("event_id")
	if err != nil {
		return nil, err
	}
	u := calendar.EventUpdate{TimeZone: args.String("timezone")}
	if u.Summary, err = args.OptionalString("summary"); err != nil {
		return nil, err
	}
	if u.Description, err = args.OptionalString("description"); err != nil {
		return nil, err
	}
	if u.Location, err = args.OptionalString("location"); err != nil {
		return nil, err
	}
	if u.Start, err = optionalTime(args, "start_time", u.TimeZone); err != nil {
		return nil, err
	}
	if u.End, err = optionalTime(args, "end_time", u.TimeZone); err != nil {
		return nil, err
	}
	if args.Has("attendees") {
		list, err := args.Strings("attendees")
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []string{}
		}
		u.Attendees = &list
	}
	event, err := c.UpdateEvent(ctx, args.String("calendar_id"), eventID, u)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"event": event}, nil
}

func handleQuickAdd(ctx context.Context, c *calendar.Client, args common.Args) (envelope.Payload, error) {
	text, err := args.RequiredString("text")
	if err != nil {
		return nil, err
	}
	event, err := c.QuickAdd(ctx, args.String("calendar_id"), text)
	if err != nil {
		return nil, err
	}
	return envelope.Payload{"event": event}, nil
}

func handleDeleteEvent(ctx context.Context, c *calendar.Client, args common.Args) (envelope.Payload, error) {
	eventID, err := args.RequiredString("event_id")
	if err != nil {
		return nil, err
	}
	if err := c.DeleteEvent(ctx, args.String("calendar_id"), eventID); err != nil {
		return nil, err
	}
	return envelope.Payload{"message": fmt.Sprintf("Event %s deleted", eventID)}, nil
}
