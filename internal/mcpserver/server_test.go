package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/testutil"
	"github.com/halvard/skald/internal/vault"
)

func testServer(t *testing.T) (*Server, *vault.Service) {
	t.Helper()
	svc := testutil.TestService(t)
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we invoke
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_snippets":
		result, err = srv.searchSnippets(ctx, req)
	case "read_snippet":
		result, err = srv.readSnippet(ctx, req)
	case "create_snippet":
		result, err = srv.createSnippet(ctx, req)
	case "tag_snippet":
		result, err = srv.tagSnippet(ctx, req)
	case "list_tree":
		result, err = srv.listTree(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadSnippet(t *testing.T) {
	srv, svc := testServer(t)
	nb, err := svc.CreateNotebook("tools")
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "create_snippet", map[string]interface{}{
		"notebook_id": nb.ID.String(),
		"title":       "hello",
		"language":    "go",
		"content":     "package main",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	id := strings.TrimPrefix(text, "created: ")

	r = callTool(t, srv, "read_snippet", map[string]interface{}{"id": id})
	text = resultText(r)
	if !strings.Contains(text, "# hello (Go)") {
		t.Errorf("read result missing header: %q", text)
	}
	if !strings.Contains(text, "package main") {
		t.Errorf("read result missing content: %q", text)
	}
}

func TestReadSnippetMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_snippet", map[string]interface{}{
		"id": "00000000-0000-0000-0000-000000000001",
	})
	if !r.IsError {
		t.Error("expected error for missing snippet")
	}
}

func TestSearchSnippetsTool(t *testing.T) {
	srv, svc := testServer(t)
	nb, _ := svc.CreateNotebook("nb")
	sn, _ := svc.CreateSnippet("binary search", models.LangGo, nb.ID)
	if _, err := svc.UpdateSnippetContent(sn.ID, "func search() {}", ""); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "search_snippets", map[string]interface{}{"query": "binary"})
	if !strings.Contains(resultText(r), "binary search") {
		t.Errorf("search result = %q", resultText(r))
	}

	r = callTool(t, srv, "search_snippets", map[string]interface{}{"query": "zzz"})
	if resultText(r) != "no matches" {
		t.Errorf("empty search = %q", resultText(r))
	}
}

func TestTagSnippetTool(t *testing.T) {
	srv, svc := testServer(t)
	nb, _ := svc.CreateNotebook("nb")
	sn, _ := svc.CreateSnippet("s", models.LangGo, nb.ID)

	r := callTool(t, srv, "tag_snippet", map[string]interface{}{
		"id":  sn.ID.String(),
		"tag": "#Sorting",
	})
	if resultText(r) != "tagged with #Sorting" {
		t.Errorf("tag result = %q", resultText(r))
	}
}

func TestListTreeTool(t *testing.T) {
	srv, svc := testServer(t)

	r := callTool(t, srv, "list_tree", map[string]interface{}{})
	if resultText(r) != "empty" {
		t.Errorf("empty tree = %q", resultText(r))
	}

	nb, _ := svc.CreateNotebook("root")
	_, _ = svc.CreateSnippet("s", models.LangPython, nb.ID)

	r = callTool(t, srv, "list_tree", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "root/ (1 snippets)") {
		t.Errorf("tree missing notebook line: %q", text)
	}
	if !strings.Contains(text, "- s (python)") {
		t.Errorf("tree missing snippet line: %q", text)
	}
}
