// Package server exposes webcheck as an MCP server over stdio.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"webcheck/internal/config"
	"webcheck/internal/store"
)

const systemPrompt = `# webcheck

webcheck reviews student web projects against HTML, document outline and
JavaScript conventions.

- check_project runs every enabled check over a directory and returns the
  findings. Use level "full" to include the informational checks.
- check_outline validates the heading structure of one HTML file.
- find_undeclared lists variables of one script that are assigned or read
  without a declaration in scope.
- list_runs shows earlier check_project runs from the history database.

Findings carry a file, a line and a check name. Errors break a convention,
warnings are likely problems and info findings are notes for the reviewer.
webcheck://schemas lists the tools; the JSON schema of each is available at
webcheck://schemas/{tool_name}.
`

type Server struct {
	mcpServer    *mcp.Server
	cfg          config.Config
	store        *store.Store
	log          *slog.Logger
	systemPrompt string
	tools        []registeredTool

	mu      sync.Mutex
	running map[string]bool
}

// New builds the MCP server. st may be nil, in which case runs are not
// recorded and list_runs reports an error.
func New(cfg config.Config, st *store.Store, log *slog.Logger, version string) *Server {
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "webcheck",
			Version: version,
		}, &mcp.ServerOptions{Instructions: systemPrompt}),
		cfg:          cfg,
		store:        st,
		log:          log,
		systemPrompt: systemPrompt,
		running:      map[string]bool{},
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves requests on stdin/stdout until the client disconnects or ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server starting", "transport", "stdio")
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

// begin marks project as running. It returns false if a run is already in
// progress for it.
func (s *Server) begin(project string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[project] {
		return false
	}
	s.running[project] = true
	return true
}

func (s *Server) end(project string) {
	s.mu.Lock()
	delete(s.running, project)
	s.mu.Unlock()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
