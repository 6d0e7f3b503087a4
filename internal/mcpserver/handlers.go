package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/config"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/kilupskalvis/folio/internal/editor"
	"github.com/kilupskalvis/folio/internal/htmldoc"
	"github.com/mark3labs/mcp-go/mcp"
)

// documentView is the page summary returned to the assistant.
type documentView struct {
	Page     string      `json:"page"`
	Blocks   []blockView `json:"blocks"`
	Selected string      `json:"selected,omitempty"`
	CanUndo  bool        `json:"can_undo"`
	CanRedo  bool        `json:"can_redo"`
}

type blockView struct {
	ID    string            `json:"id"`
	Type  string            `json:"type"`
	Text  string            `json:"text,omitempty"`
	Attrs map[string]string `json:"attributes,omitempty"`
	Style map[string]string `json:"style,omitempty"`
}

func viewOf(s *editor.Session) documentView {
	doc := s.Document()
	sel, _ := s.Selected()
	v := documentView{
		Page:     doc.PageID,
		Blocks:   make([]blockView, 0, doc.Len()),
		Selected: sel,
		CanUndo:  s.CanUndo(),
		CanRedo:  s.CanRedo(),
	}
	for _, b := range doc.Blocks {
		bv := blockView{ID: b.ID, Type: string(b.Type), Text: htmldoc.PlainText(b.Content)}
		if len(b.Attributes) > 0 {
			bv.Attrs = b.Attributes
		}
		if css := htmldoc.StyleString(b.Style); css != "" {
			bv.Style = map[string]string{}
			for _, decl := range strings.Split(css, ";") {
				if k, val, ok := strings.Cut(decl, ":"); ok {
					bv.Style[strings.TrimSpace(k)] = strings.TrimSpace(val)
				}
			}
		}
		v.Blocks = append(v.Blocks, bv)
	}
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func pageOf(request mcp.CallToolRequest) string {
	return request.GetString("page", config.DefaultPage)
}

func (s *Server) handleListBlockTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(blocks.Search(request.GetString("query", "")))
}

func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.ws.Session(pageOf(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open page: %v", err)), nil
	}
	return jsonResult(viewOf(sess))
}

// dispatch runs one command and returns the resulting document.
func (s *Server) dispatch(request mcp.CallToolRequest, req core.CommandRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var view documentView
	var res editor.Result
	_, err := s.ws.Edit(pageOf(request), func(sess *editor.Session) error {
		var err error
		if res, err = core.Dispatch(sess, req); err != nil {
			return err
		}
		view = viewOf(sess)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", req.Op, err)), nil
	}
	return jsonResult(struct {
		Result   editor.Result `json:"result"`
		Document documentView  `json:"document"`
	}{res, view})
}

func (s *Server) handleInsertBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: type"), nil
	}
	req := core.CommandRequest{Op: core.OpInsert, Type: typ}
	if _, ok := request.GetArguments()["position"]; ok {
		pos := request.GetInt("position", editor.AtEnd)
		req.Position = &pos
	}
	return s.dispatch(request, req)
}

func (s *Server) blockCommand(request mcp.CallToolRequest, op string) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("block_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: block_id"), nil
	}
	return s.dispatch(request, core.CommandRequest{Op: op, BlockID: id})
}

func (s *Server) handleDeleteBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.blockCommand(request, core.OpDelete)
}

func (s *Server) handleDuplicateBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.blockCommand(request, core.OpDuplicate)
}

func (s *Server) handleMoveBlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch dir := request.GetString("direction", ""); dir {
	case "up":
		return s.blockCommand(request, core.OpMoveUp)
	case "down":
		return s.blockCommand(request, core.OpMoveDown)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("direction must be up or down, got %q", dir)), nil
	}
}

func (s *Server) handleSetProperty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("block_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: block_id"), nil
	}
	prop, err := request.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: property"), nil
	}
	return s.dispatch(request, core.CommandRequest{
		Op:       core.OpSetProperty,
		BlockID:  id,
		Property: prop,
		Value:    request.GetString("value", ""),
	})
}

func (s *Server) handleEditContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("block_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: block_id"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}
	return s.dispatch(request, core.CommandRequest{
		Op:      core.OpEditContent,
		BlockID: id,
		Content: content,
		Format:  request.GetString("format", "markdown"),
	})
}

func (s *Server) step(request mcp.CallToolRequest, name string, fn func(*editor.Session) (bool, error)) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var view documentView
	var changed bool
	_, err := s.ws.Edit(pageOf(request), func(sess *editor.Session) error {
		var err error
		if changed, err = fn(sess); err != nil {
			return err
		}
		view = viewOf(sess)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", name, err)), nil
	}
	return jsonResult(struct {
		Result   editor.Result `json:"result"`
		Document documentView  `json:"document"`
	}{editor.Result{Command: name, Changed: changed}, view})
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.step(request, "undo", (*editor.Session).Undo)
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.step(request, "redo", (*editor.Session).Redo)
}

func (s *Server) handleSavePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := pageOf(request)
	rec, err := s.ws.SavePage(page)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %s (%d bytes)", page, len(rec.HTMLContent))), nil
}

func (s *Server) handleExportPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.ws.Export(pageOf(request), request.GetString("format", core.FormatMarkdown))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleListPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.ws.Pages()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list pages: %v", err)), nil
	}
	if len(pages) == 0 {
		return mcp.NewToolResultText("No saved pages. Edit a page and call save_page first."), nil
	}
	return jsonResult(pages)
}
