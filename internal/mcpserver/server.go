// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the docsync pipeline as tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docsync/internal/address"
	"github.com/starford/docsync/internal/apperr"
	"github.com/starford/docsync/internal/pipeline"
	"github.com/starford/docsync/internal/slug"
)

const conventionsURI = "docsync://content-conventions"

// Server wraps the MCP server with docsync tools.
type Server struct {
	mcp    *server.MCPServer
	runner *pipeline.Runner
}

// New creates a new MCP server with all docsync tools registered.
func New(runner *pipeline.Runner, version string) *Server {
	s := &Server{runner: runner}

	s.mcp = server.NewMCPServer(
		"docsync",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_content",
		mcp.WithDescription("Reconcile the document store with the content tree: delete orphaned documents, then create or update every addressable file."),
	), s.syncContent)

	s.mcp.AddTool(mcp.NewTool("assign_anchors",
		mcp.WithDescription("Regenerate {#id} heading anchors. Rewrites a single file when path is given, otherwise the whole tree."),
		mcp.WithString("path", mcp.Description("Optional relative path of one Markdown file (e.g. docs/intro.md)")),
	), s.assignAnchors)

	s.mcp.AddTool(mcp.NewTool("preview_anchors",
		mcp.WithDescription("Show the anchors docsync would assign to the given Markdown text without writing anything."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markdown document text")),
	), s.previewAnchors)

	s.mcp.AddTool(mcp.NewTool("summarize_content",
		mcp.WithDescription("Add or normalize the 'Summarized by AI' block of every document."),
		mcp.WithBoolean("force", mcp.Description("Regenerate existing summaries")),
	), s.summarizeContent)

	s.mcp.AddTool(mcp.NewTool("resolve_path",
		mcp.WithDescription("Return the canonical address (title, category, subcategory, output key) of a content path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the content root (e.g. docs/guides/setup.md)")),
	), s.resolvePath)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read a stored document by output key."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Output key (e.g. docs/guides/setup.html)")),
	), s.getDocument)

	s.mcp.AddResource(
		mcp.NewResource(conventionsURI, "Content Conventions",
			mcp.WithResourceDescription("How paths map to documents, and the anchor and summary formats docsync writes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) syncContent(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.runner.Sync(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) assignAnchors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if path := req.GetString("path", ""); path != "" {
		modified, err := pipeline.AssignFile(s.runner.Source, path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"path": path, "modified": modified})
	}
	rep, err := s.runner.Anchors(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) previewAnchors(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := slug.Process(text)
	type anchor struct {
		Level int    `json:"level"`
		Title string `json:"title"`
		ID    string `json:"id,omitempty"`
	}
	anchors := make([]anchor, 0, len(res.Headings))
	for _, h := range res.Headings {
		anchors = append(anchors, anchor{Level: h.Level, Title: h.Title, ID: h.ID})
	}
	return jsonResult(map[string]any{"anchors": anchors, "text": res.Text})
}

func (s *Server) summarizeContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.runner.Summary == nil {
		return mcp.NewToolResultError("summarizer is not configured"), nil
	}
	rep, err := s.runner.Summarize(ctx, req.GetBool("force", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) resolvePath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	addr, err := address.ResolveRel(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(addr)
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.runner.Store.Get(ctx, key)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", key)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) readConventionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      conventionsURI,
			MIMEType: "text/markdown",
			Text:     ContentConventions,
		},
	}, nil
}
