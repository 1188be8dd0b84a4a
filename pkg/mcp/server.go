package mcp

import (
	"log/slog"

	"github.com/kraklabs/julie/pkg/filecache"
	"github.com/kraklabs/julie/pkg/mcplog"
	"github.com/kraklabs/julie/pkg/query"
	"github.com/kraklabs/julie/pkg/workspace"
	"github.com/mark3labs/mcp-go/server"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for julie, exposing the six canonical
// code-intelligence tools  over the primary workspace and any
// registered reference workspaces.
type Server struct {
	mcpServer *server.MCPServer
	manager   *workspace.Manager
	resolver  *query.Resolver
	engine    *query.Engine
	fileCache *filecache.Cache // get_symbols mode=full code extraction
	logger    *mcplog.Logger   // may be nil if logging is disabled
	slog      *slog.Logger
}

// NewServer creates a new MCP server. manager owns the workspace registry;
// resolver maps a "workspace" tool parameter to a database/vector handle,
// already holding the primary workspace open; engine runs fast_search's five
// strategies. Pass nil for logger to disable tool-call logging.
func NewServer(manager *workspace.Manager, resolver *query.Resolver, engine *query.Engine, logger *mcplog.Logger, slogger *slog.Logger) *Server {
	if slogger == nil {
		slogger = slog.Default()
	}
	s := &Server{manager: manager, resolver: resolver, engine: engine, fileCache: filecache.New(filecache.DefaultConfig()), logger: logger, slog: slogger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("julie", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: manageWorkspaceTool(), Handler: s.handleManageWorkspace},
		server.ServerTool{Tool: fastSearchTool(), Handler: s.handleFastSearch},
		server.ServerTool{Tool: fastGotoTool(), Handler: s.handleFastGoto},
		server.ServerTool{Tool: fastRefsTool(), Handler: s.handleFastRefs},
		server.ServerTool{Tool: fastExploreTool(), Handler: s.handleFastExplore},
		server.ServerTool{Tool: getSymbolsTool(), Handler: s.handleGetSymbols},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close releases the resolver's cached reference-workspace handles and shuts
// down the logger, if one is active. Should be deferred after NewServer.
func (s *Server) Close() error {
	var firstErr error
	if s.resolver != nil {
		firstErr = s.resolver.Close()
	}
	if err := s.fileCache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.logger != nil {
		if err := s.logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
