package calendar_tools

import (
	"context"
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/calendar"
	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/registry"
	"github.com/teemow/bird/internal/server"
	"github.com/teemow/bird/internal/tools/common"
)

type opFunc func(ctx context.Context, client *calendar.Client, args common.Args) (envelope.Payload, error)

func dispatch(sc *server.ServerContext, op opFunc) common.Func {
	return func(ctx context.Context, args common.Args) envelope.Result {
		return registry.Dispatch(ctx, sc.Registry().Calendar, func(ctx context.Context, c *calendar.Client) (envelope.Payload, error) {
			return op(ctx, c, args)
		})
	}
}

func spec(operation string, readOnly bool) common.Spec {
	return common.Spec{
		Name:      "calendar_" + operation,
		Service:   registry.ServiceCalendar,
		Operation: operation,
		ReadOnly:  readOnly,
	}
}

// RegisterCalendarTools registers all Calendar tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}
	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}
	return nil
}

// timeArg parses key with calendar.ParseTime. A missing optional value is
// the zero time.
func timeArg(args common.Args, key, timeZone string, required bool) (time.Time, error) {
	value := args.String(key)
	if value == "" {
		if required {
			return time.Time{}, envelope.Validationf("%s is required", key)
		}
		return time.Time{}, nil
	}
	t, err := calendar.ParseTime(value, timeZone)
	if err != nil {
		return time.Time{}, envelope.Validationf("%s: %v", key, err)
	}
	return t, nil
}

// maxDurationMinutes bounds duration arguments to one year, far below the
// point where minutes*time.Minute overflows.
const maxDurationMinutes = 366 * 24 * 60

// durationArg reads a positive number of minutes, defaulting to def.
func durationArg(args common.Args, key string, def int) (int, time.Duration, error) {
	minutes, err := args.Int(key, def)
	if err != nil {
		return 0, 0, err
	}
	if minutes <= 0 {
		return 0, 0, envelope.Validationf("%s must be positive", key)
	}
	if minutes > maxDurationMinutes {
		return 0, 0, envelope.Validationf("%s must be at most %d", key, maxDurationMinutes)
	}
	return minutes, time.Duration(minutes) * time.Minute, nil
}

func optionalTime(args common.Args, key, timeZone string) (*time.Time, error) {
	t, err := timeArg(args, key, timeZone, false)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func eventsPayload(events []calendar.Event) envelope.Payload {
	if events == nil {
		events = []calendar.Event{}
	}
	return envelope.Payload{"events": events, "count": len(events)}
}
