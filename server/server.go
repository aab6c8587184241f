package server

import (
	"log/slog"

	"canvas-mcp-server/mcp"
	"canvas-mcp-server/tools"

	mcp_golang "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"
)

// Server handles MCP protocol communication
type Server struct {
	toolHandler *tools.Handler
	logger      *slog.Logger
}

// New creates a new MCP server
func New(toolHandler *tools.Handler, logger *slog.Logger) *Server {
	return &Server{
		toolHandler: toolHandler,
		logger:      logger,
	}
}

// Run starts the MCP server on stdio
func (s *Server) Run() error {
	s.logger.Info("Starting Canvas MCP Server...")

	transport := stdio.NewStdioServerTransport()
	server := mcp_golang.NewServer(transport)

	registry := mcp.NewRegistry(s.toolHandler, s.logger)
	if err := registry.RegisterAll(server); err != nil {
		s.logger.Error("Failed to register tools", "error", err)
		return err
	}

	s.logger.Info("Tools registered successfully")

	if err := server.Serve(); err != nil {
		s.logger.Error("MCP server error", "error", err)
		return err
	}

	return nil
}
