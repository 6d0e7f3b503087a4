// Package mcpserver exposes page editing as MCP tools so an assistant can
// build and revise pages. Every tool runs through the same command dispatch
// as the CLI and the HTTP API.
package mcpserver

import (
	"sync"

	"github.com/kilupskalvis/folio/internal/core"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server bound to one workspace.
type Server struct {
	ws  *core.Workspace
	mcp *server.MCPServer
	mu  sync.Mutex // serializes edits to the workspace
}

// NewServer creates an MCP server for ws.
func NewServer(ws *core.Workspace) *Server {
	s := &Server{ws: ws}
	s.mcp = server.NewMCPServer(
		"folio",
		Version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(listBlockTypesTool, s.handleListBlockTypes)
	s.mcp.AddTool(getDocumentTool, s.handleGetDocument)
	s.mcp.AddTool(insertBlockTool, s.handleInsertBlock)
	s.mcp.AddTool(deleteBlockTool, s.handleDeleteBlock)
	s.mcp.AddTool(duplicateBlockTool, s.handleDuplicateBlock)
	s.mcp.AddTool(moveBlockTool, s.handleMoveBlock)
	s.mcp.AddTool(setPropertyTool, s.handleSetProperty)
	s.mcp.AddTool(editContentTool, s.handleEditContent)
	s.mcp.AddTool(undoTool, s.handleUndo)
	s.mcp.AddTool(redoTool, s.handleRedo)
	s.mcp.AddTool(savePageTool, s.handleSavePage)
	s.mcp.AddTool(exportPageTool, s.handleExportPage)
	s.mcp.AddTool(listPagesTool, s.handleListPages)
}

// Serve runs the server on stdio. Stdout carries the protocol, so logging
// must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
