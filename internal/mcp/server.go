// Package mcp exposes the document index to AI agents over the Model
// Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/docdex/internal/jobs"
	"github.com/ziadkadry99/docdex/internal/search"
	"github.com/ziadkadry99/docdex/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes document search tools.
type Server struct {
	searcher *search.Service
	jobs     *jobs.Store
	store    vectordb.VectorStore
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(searcher *search.Service, jobStore *jobs.Store, store vectordb.VectorStore) *Server {
	s := &Server{
		searcher: searcher,
		jobs:     jobStore,
		store:    store,
	}

	s.mcp = server.NewMCPServer(
		"docdex",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(indexStatusTool, s.handleIndexStatus)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
