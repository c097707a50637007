package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/meshmap/internal/graph"
	"github.com/ziadkadry99/meshmap/internal/impact"
	"github.com/ziadkadry99/meshmap/internal/query"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the dependency graph as tools.
type Server struct {
	graphs   *graph.Store
	analyzer *impact.Analyzer
	engine   *query.Engine
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(graphs *graph.Store, analyzer *impact.Analyzer, engine *query.Engine) *Server {
	s := &Server{
		graphs:   graphs,
		analyzer: analyzer,
		engine:   engine,
	}

	s.mcp = server.NewMCPServer(
		"meshmap",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listServicesTool, s.handleListServices)
	s.mcp.AddTool(whoCallsTool, s.handleWhoCalls)
	s.mcp.AddTool(impactAnalysisTool, s.handleImpactAnalysis)
	s.mcp.AddTool(askGraphTool, s.handleAskGraph)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
