package common

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/envelope"
	"github.com/teemow/bird/internal/instrumentation"
	"github.com/teemow/bird/internal/logging"
	"github.com/teemow/bird/internal/server"
)

// Spec identifies a tool for logs, spans and metrics.
type Spec struct {
	Name      string
	Service   string
	Operation string
	ReadOnly  bool

	// Destructive marks tools that delete or irreversibly change data.
	Destructive bool
}

// Func is a tool body. It receives the parsed arguments and returns exactly
// one envelope.
type Func func(ctx context.Context, args Args) envelope.Result

// Handler adapts fn to an MCP tool handler. Each call gets a request ID, a
// span, metrics and a log line; the envelope is returned as JSON text.
//
// Usage:
//
//	s.AddTool(tool, common.Handler(sc, common.Spec{Name: "todoist_get_tasks", ...}, fn))
func Handler(sc *server.ServerContext, spec Spec, fn Func) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		ctx, span := instrumentation.StartToolSpan(ctx, spec.Name,
			instrumentation.ToolAttributes(spec.Service, spec.Operation, requestID, spec.ReadOnly)...)
		defer span.End()

		logger := sc.Logger().With(
			logging.Tool(spec.Name),
			logging.RequestID(requestID),
		)
		if spec.Service != "" {
			logger = logger.With(logging.Service(spec.Service))
		}

		start := time.Now()
		res := fn(ctx, Args(request.GetArguments()))
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if res.Success {
			instrumentation.SetSpanSuccess(span)
			logger.Debug("Tool call succeeded", logging.Duration(duration))
		} else {
			status = instrumentation.StatusError
			instrumentation.SetSpanFailure(span, string(res.ErrorType), res.Error)
			level := slog.LevelWarn
			if res.ErrorType == envelope.KindValidation || res.ErrorType == envelope.KindNotConfigured {
				level = slog.LevelInfo
			}
			logger.Log(ctx, level, "Tool call failed",
				logging.Duration(duration),
				slog.String("error_type", string(res.ErrorType)),
				slog.String(logging.KeyError, res.Error),
			)
		}

		metrics := sc.Metrics()
		metrics.RecordToolInvocation(ctx, spec.Name, status, string(res.ErrorType), duration)
		if spec.Service != "" && res.ErrorType != envelope.KindNotConfigured {
			metrics.RecordIntegrationOperation(ctx, spec.Service, spec.Operation, status, duration)
		}

		return ToResult(res), nil
	}
}

// ToResult renders the envelope as the tool result. Failures set IsError so
// clients can tell them apart without parsing the text.
func ToResult(res envelope.Result) *mcp.CallToolResult {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error())
	}
	if !res.Success {
		return mcp.NewToolResultError(string(data))
	}
	return mcp.NewToolResultText(string(data))
}
