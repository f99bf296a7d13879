// Package mcp exposes the advisor as Model Context Protocol tools over the
// stdio transport, so coding assistants can analyze queries against a
// configured database.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/sqlsage/sqlsage/internal/advisor"
	"github.com/sqlsage/sqlsage/internal/db"
)

// NewServer creates an MCPServer with tools and logging hooks. Every tool
// call runs against the same target; the server holds no connection between
// calls.
func NewServer(version string, adv *advisor.Advisor, target db.Target, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithHooks(ToolCallHooks(logger)),
	)

	RegisterTools(s, adv, target)

	return s
}
