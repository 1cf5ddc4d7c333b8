// Package mcpserver exposes slicing and call graph queries as MCP tools.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/focal/internal/service/analysis"
)

// Server wraps the MCP server and registers all focal tools.
type Server struct {
	server  *mcp.Server
	service *analysis.Service
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithService sets the analysis service backing the tools.
func WithService(svc *analysis.Service) Option {
	return func(s *Server) {
		s.service = svc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP server with all focal tools registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "focal",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.service == nil {
		s.service = analysis.New(analysis.WithLogger(s.logger))
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "slice_focal_method",
		Description: describeSlice(),
	}, s.handleSlice)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_callers",
		Description: describeCallers(),
	}, s.handleCallers)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_callees",
		Description: describeCallees(),
	}, s.handleCallees)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_class_call_graph",
		Description: describeClassCallGraph(),
	}, s.handleClassCallGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_call_graph",
		Description: describeCallGraph(),
	}, s.handleCallGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_recursion",
		Description: describeCycles(),
	}, s.handleCycles)
}
