// Package mcpsrv exposes resolve_file, handle and metrics_snapshot as MCP
// tools, so an agent can introspect a BBPATH layer stack without shelling
// out to cmd/bbparse, grounded on internal/mcp/server.go's
// mcp.NewServer/AddTool registration pattern and response.go's
// createJSONResponse helper.
package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/bbcore/internal/datastore"
	"github.com/standardbeagle/bbcore/internal/parse"
)

var diagnosticLogger = log.New(os.Stderr, "[mcpsrv] ", log.LstdFlags)

// Server wraps one parse.Session behind an MCP tool surface. One Datastore
// is shared across tool calls, the same way a single recipe's evaluation
// shares one datastore across include/inherit.
type Server struct {
	session *parse.Session
	ds      datastore.Datastore
	mcp     *mcp.Server
}

// NewServer builds a Server backed by session, with ds as the shared
// datastore every tool call reads and writes against.
func NewServer(session *parse.Session, ds datastore.Datastore) *Server {
	s := &Server{
		session: session,
		ds:      ds,
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "bbcore-mcp-server",
		Version: "0.1.0",
	}, nil)
	s.registerTools()
	return s
}

// Run serves the MCP protocol over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "resolve_file",
		Description: "Resolve a filename against BBPATH, returning the absolute path or a not-found error with near-miss suggestions.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name": {Type: "string", Description: "File or class name to resolve"},
			},
			Required: []string{"name"},
		},
	}, s.handleResolveFile)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "handle",
		Description: "Parse and evaluate a .conf/.bb/.bbclass/.inc file, returning its path and the dependency paths marked so far.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {Type: "string", Description: "Absolute path to the file to handle"},
			},
			Required: []string{"path"},
		},
	}, s.handleHandle)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "metrics_snapshot",
		Description: "Return the current cache hit/miss/eviction and timing counters collected this session.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleMetricsSnapshot)
}

type resolveFileParams struct {
	Name string `json:"name"`
}

func (s *Server) handleResolveFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params resolveFileParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult(fmt.Errorf("invalid parameters: %w", err))
	}

	resolved, err := s.session.ResolveFile(params.Name, s.ds)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]any{"resolved": resolved})
}

type handleParams struct {
	Path string `json:"path"`
}

func (s *Server) handleHandle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params handleParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult(fmt.Errorf("invalid parameters: %w", err))
	}

	if _, err := s.session.Handle(params.Path, s.ds, false); err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]any{
		"path":         params.Path,
		"dependencies": s.session.FileDepends(),
	})
}

func (s *Server) handleMetricsSnapshot(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.session.Metrics.Snapshot())
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	diagnosticLogger.Printf("tool error: %v", err)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}, nil
}
