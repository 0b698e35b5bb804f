package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/propdoc/pkg/mcplog"
)

// loggingMiddleware records every tool call: a debug line on the server
// logger and, when enabled, one JSONL entry in the call log. Log failures
// never affect the result.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := mcplog.Now()
			result, err := next(ctx, req)
			elapsed := time.Since(start)

			entry := mcplog.Entry{
				Ts:            start.UTC().Format(time.RFC3339),
				Tool:          req.Params.Name,
				Params:        mcplog.SanitizeParams(req.GetArguments()),
				DurationMs:    elapsed.Milliseconds(),
				ResponseBytes: mcplog.ResponseBytes(result),
				IsError:       result != nil && result.IsError,
			}
			if err != nil {
				msg := err.Error()
				entry.Error = &msg
			}

			s.logger.Debug("tool call",
				"tool", entry.Tool,
				"duration", elapsed,
				"response_bytes", entry.ResponseBytes,
				"is_error", entry.IsError,
				"error", err)
			if werr := s.calls.Write(entry); werr != nil {
				s.logger.Warn("failed to write call log", "path", s.calls.Path(), "error", werr)
			}

			return result, err
		}
	}
}
