// Package mcp exposes a widget catalog to agents over the Model Context
// Protocol.
package mcp

import (
	"log/slog"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/propdoc/pkg/catalog"
	"github.com/gnana997/propdoc/pkg/mcplog"
)

const (
	serverName    = "propdoc"
	serverVersion = "0.1.0-dev"
)

// Server implements the MCP server for propdoc.
type Server struct {
	mcpServer *server.MCPServer
	query     atomic.Pointer[catalog.QueryService]
	calls     *mcplog.Logger
	logger    *slog.Logger
}

// NewServer creates a server answering from qs. calls may be nil to
// disable the tool-call log.
func NewServer(qs *catalog.QueryService, calls *mcplog.Logger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{calls: calls, logger: logger}
	s.query.Store(qs)

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.loggingMiddleware()),
	}
	s.mcpServer = server.NewMCPServer(serverName, serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: listWidgetsTool(), Handler: s.handleListWidgets},
		server.ServerTool{Tool: getWidgetPropertiesTool(), Handler: s.handleGetWidgetProperties},
		server.ServerTool{Tool: searchPropertiesTool(), Handler: s.handleSearchProperties},
	)

	return s
}

// Reload swaps the catalog served by subsequent calls. In-flight calls
// finish against the previous one.
func (s *Server) Reload(qs *catalog.QueryService) {
	s.query.Store(qs)
	s.logger.Info("catalog reloaded", "widgets", len(qs.Catalog.Widgets))
}

func (s *Server) service() *catalog.QueryService {
	return s.query.Load()
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
