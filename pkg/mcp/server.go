// Package mcp exposes project listing and matching to MCP clients over the
// streamable HTTP transport.
package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Server wraps the mcp-go MCPServer.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewServer creates a new MCP server instance. Tool calls and their failures
// are logged through logger.
func NewServer(name, version string, logger *zap.Logger) *Server {
	s := &Server{logger: logger.Named("mcp")}
	s.mcp = server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithHooks(s.hooks()),
	)
	return s
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}

func (s *Server) hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(func(_ context.Context, id any, _ *mcp.CallToolRequest) {
		s.startTimes.Store(id, time.Now())
	})
	hooks.AddAfterCallTool(func(_ context.Context, id any, req *mcp.CallToolRequest, result *mcp.CallToolResult) {
		var duration time.Duration
		if start, ok := s.startTimes.LoadAndDelete(id); ok {
			duration = time.Since(start.(time.Time))
		}
		s.logger.Debug("Tool call completed",
			zap.String("tool", req.Params.Name),
			zap.Bool("is_error", result != nil && result.IsError),
			zap.Duration("duration", duration))
	})
	hooks.AddOnError(func(_ context.Context, id any, method mcp.MCPMethod, _ any, err error) {
		if method == mcp.MethodToolsCall {
			s.startTimes.Delete(id)
		}
		s.logger.Warn("MCP request failed",
			zap.String("method", string(method)),
			zap.Error(err))
	})
	return hooks
}
