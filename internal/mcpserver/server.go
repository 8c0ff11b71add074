// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Skald tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/vault"
)

// Server wraps the MCP server with Skald tools.
type Server struct {
	mcp *server.MCPServer
	svc *vault.Service
}

// New creates a new MCP server with all Skald tools registered.
func New(svc *vault.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Skald",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_snippets",
		mcp.WithDescription("Search notebooks, snippets, tags and snippet content. "+
			"A query starting with '#' searches tags by name."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchSnippets)

	s.mcp.AddTool(mcp.NewTool("read_snippet",
		mcp.WithDescription("Read the full content of a snippet by its ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Snippet UUID")),
	), s.readSnippet)

	s.mcp.AddTool(mcp.NewTool("create_snippet",
		mcp.WithDescription("Create a snippet in a notebook with the given title, language and content."),
		mcp.WithString("notebook_id", mcp.Required(), mcp.Description("UUID of the target notebook")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Snippet title")),
		mcp.WithString("language", mcp.Description("Language identifier (e.g. rust, go, python)")),
		mcp.WithString("content", mcp.Description("Snippet content")),
	), s.createSnippet)

	s.mcp.AddTool(mcp.NewTool("tag_snippet",
		mcp.WithDescription("Add a tag to a snippet. Tag names are case-insensitive; a leading '#' is stripped."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Snippet UUID")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	), s.tagSnippet)

	s.mcp.AddTool(mcp.NewTool("list_tree",
		mcp.WithDescription("List the notebook tree with nested snippets in display order."),
	), s.listTree)

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

func (s *Server) searchSnippets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.svc.Search(query)
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readSnippet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid snippet id: %s", raw)), nil
	}
	sn, err := s.svc.Snippet(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", raw)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n", sn.Title, sn.Language.DisplayName())
	if len(sn.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(sn.Tags, ", "))
	}
	b.WriteString("\n")
	b.WriteString(sn.Content)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) createSnippet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawNB, err := req.RequireString("notebook_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notebookID, err := uuid.Parse(rawNB)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid notebook id: %s", rawNB)), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	language := models.LangText
	if l, strErr := req.RequireString("language"); strErr == nil && l != "" {
		language = models.ParseLanguage(l)
	}

	sn, err := s.svc.CreateSnippet(title, language, notebookID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if content, strErr := req.RequireString("content"); strErr == nil && content != "" {
		if _, err := s.svc.UpdateSnippetContent(sn.ID, content, ""); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", sn.ID)), nil
}

func (s *Server) tagSnippet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid snippet id: %s", raw)), nil
	}
	name, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := s.svc.TagSnippet(id, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("tagged with %s", tag.DisplayName())), nil
}

func (s *Server) listTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := s.svc.Tree()
	if len(items) == 0 {
		return mcp.NewToolResultText("empty"), nil
	}
	var b strings.Builder
	for _, it := range items {
		indent := strings.Repeat("  ", it.Depth)
		switch {
		case it.Notebook != nil:
			fmt.Fprintf(&b, "%s%s/ (%d snippets) [%s]\n", indent, it.Notebook.Name, it.Notebook.SnippetCount, it.Notebook.ID)
		case it.Snippet != nil:
			fmt.Fprintf(&b, "%s- %s (%s) [%s]\n", indent, it.Snippet.Title, it.Snippet.Language, it.Snippet.ID)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
