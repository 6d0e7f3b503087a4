package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/config"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/kilupskalvis/folio/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open("bbolt", filepath.Join(t.TempDir(), "folio.db"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ws := core.NewWorkspace(config.Default(), st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n := 0
	ws.Registry = &blocks.Registry{NewID: func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}}
	return NewServer(ws)
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, h handler, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text, result.IsError
}

type editReply struct {
	Result struct {
		Command string `json:"command"`
		Changed bool   `json:"changed"`
		BlockID string `json:"block_id"`
	} `json:"result"`
	Document documentView `json:"document"`
}

func callEdit(t *testing.T, h handler, args map[string]any) editReply {
	t.Helper()
	text, isErr := call(t, h, args)
	require.False(t, isErr, text)
	var reply editReply
	require.NoError(t, json.Unmarshal([]byte(text), &reply))
	return reply
}

func ids(v documentView) []string {
	out := make([]string, len(v.Blocks))
	for i, b := range v.Blocks {
		out[i] = b.ID
	}
	return out
}

func TestToolDefinitions(t *testing.T) {
	tools := []mcp.Tool{
		listBlockTypesTool, getDocumentTool, insertBlockTool, deleteBlockTool,
		duplicateBlockTool, moveBlockTool, setPropertyTool, editContentTool,
		undoTool, redoTool, savePageTool, exportPageTool, listPagesTool,
	}
	seen := map[string]bool{}
	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true
	}
	assert.Contains(t, insertBlockTool.InputSchema.Required, "type")
}

func TestEditingFlow(t *testing.T) {
	s := newTestServer(t)

	reply := callEdit(t, s.handleInsertBlock, map[string]any{"type": "heading"})
	assert.Equal(t, "b1", reply.Result.BlockID)
	assert.Equal(t, "b1", reply.Document.Selected)

	reply = callEdit(t, s.handleInsertBlock, map[string]any{"type": "text", "position": float64(0)})
	assert.Equal(t, []string{"b2", "b1"}, ids(reply.Document))

	reply = callEdit(t, s.handleMoveBlock, map[string]any{"block_id": "b2", "direction": "down"})
	assert.Equal(t, []string{"b1", "b2"}, ids(reply.Document))

	reply = callEdit(t, s.handleDuplicateBlock, map[string]any{"block_id": "b1"})
	assert.Equal(t, []string{"b1", "b3", "b2"}, ids(reply.Document))

	reply = callEdit(t, s.handleEditContent, map[string]any{"block_id": "b2", "content": "Hello **there**"})
	assert.Equal(t, "Hello there", reply.Document.Blocks[2].Text)

	reply = callEdit(t, s.handleSetProperty, map[string]any{"block_id": "b3", "property": "paddingTop", "value": "24"})
	assert.Equal(t, "24px", reply.Document.Blocks[1].Style["padding-top"])
	assert.Equal(t, "b3", reply.Document.Selected)

	reply = callEdit(t, s.handleDeleteBlock, map[string]any{"block_id": "b3"})
	assert.Equal(t, []string{"b1", "b2"}, ids(reply.Document))

	reply = callEdit(t, s.handleUndo, map[string]any{})
	assert.True(t, reply.Result.Changed)
	assert.Equal(t, []string{"b1", "b3", "b2"}, ids(reply.Document))
	assert.True(t, reply.Document.CanRedo)

	reply = callEdit(t, s.handleRedo, map[string]any{})
	assert.Equal(t, []string{"b1", "b2"}, ids(reply.Document))
}

func TestGetDocument_PerPage(t *testing.T) {
	s := newTestServer(t)
	callEdit(t, s.handleInsertBlock, map[string]any{"type": "button", "page": "about.html"})

	text, isErr := call(t, s.handleGetDocument, map[string]any{"page": "about.html"})
	require.False(t, isErr)
	var view documentView
	require.NoError(t, json.Unmarshal([]byte(text), &view))
	assert.Equal(t, "about.html", view.Page)
	require.Len(t, view.Blocks, 1)
	assert.Equal(t, "button", view.Blocks[0].Type)

	text, _ = call(t, s.handleGetDocument, map[string]any{})
	require.NoError(t, json.Unmarshal([]byte(text), &view))
	assert.Empty(t, view.Blocks)
}

func TestToolErrors(t *testing.T) {
	s := newTestServer(t)
	callEdit(t, s.handleInsertBlock, map[string]any{"type": "text"})

	tests := []struct {
		name string
		h    handler
		args map[string]any
		want string
	}{
		{"unsupported type", s.handleInsertBlock, map[string]any{"type": "marquee"}, "unsupported block type"},
		{"missing type", s.handleInsertBlock, map[string]any{}, "missing required parameter: type"},
		{"unknown block", s.handleDeleteBlock, map[string]any{"block_id": "zzz"}, "not found"},
		{"bad direction", s.handleMoveBlock, map[string]any{"block_id": "b1", "direction": "left"}, "direction"},
		{"invalid value", s.handleSetProperty, map[string]any{"block_id": "b1", "property": "width", "value": "wide"}, "invalid property value"},
		{"unknown format", s.handleEditContent, map[string]any{"block_id": "b1", "content": "x", "format": "rtf"}, "unknown content format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := call(t, tt.h, tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.want)
		})
	}

	text, isErr := call(t, s.handleGetDocument, map[string]any{})
	require.False(t, isErr)
	assert.Contains(t, text, `"id": "b1"`)
	assert.NotContains(t, text, "marquee")
}

func TestSaveExportAndListPages(t *testing.T) {
	s := newTestServer(t)

	text, isErr := call(t, s.handleListPages, map[string]any{})
	require.False(t, isErr)
	assert.Contains(t, text, "No saved pages")

	callEdit(t, s.handleInsertBlock, map[string]any{"type": "heading"})
	text, isErr = call(t, s.handleSavePage, map[string]any{})
	require.False(t, isErr)
	assert.Contains(t, text, "Saved index.html")

	text, isErr = call(t, s.handleExportPage, map[string]any{})
	require.False(t, isErr)
	assert.Contains(t, text, "## Heading")

	text, isErr = call(t, s.handleExportPage, map[string]any{"format": "html"})
	require.False(t, isErr)
	assert.Contains(t, text, `data-block-type="heading"`)

	text, isErr = call(t, s.handleListPages, map[string]any{})
	require.False(t, isErr)
	assert.Contains(t, text, `"page_id": "index.html"`)
}

func TestListBlockTypes(t *testing.T) {
	s := newTestServer(t)
	text, isErr := call(t, s.handleListBlockTypes, map[string]any{"query": "video"})
	require.False(t, isErr)
	assert.Contains(t, text, `"type": "video"`)
	assert.NotContains(t, text, `"type": "text"`)
}
