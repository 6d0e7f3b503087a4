package core

import (
	"errors"
	"fmt"

	"github.com/kilupskalvis/folio/internal/editor"
	"github.com/kilupskalvis/folio/internal/htmldoc"
	"github.com/kilupskalvis/folio/internal/models"
)

// Operations accepted by Dispatch.
const (
	OpInsert      = "insert"
	OpDrop        = "drop"
	OpDelete      = "delete"
	OpDuplicate   = "duplicate"
	OpMoveUp      = "move_up"
	OpMoveDown    = "move_down"
	OpSetProperty = "set_property"
	OpEditContent = "edit_content"
	OpSelect      = "select"
	OpDeselect    = "deselect"
)

var ErrInvalidCommand = errors.New("invalid command")

// CommandRequest is the wire form of one editing operation, shared by the
// HTTP API, the MCP tools and the CLI.
type CommandRequest struct {
	Op       string `json:"op"`
	Type     string `json:"type,omitempty"`
	Position *int   `json:"position,omitempty"` // nil appends
	BlockID  string `json:"block_id,omitempty"`
	Property string `json:"property,omitempty"`
	Value    string `json:"value,omitempty"`
	Content  string `json:"content,omitempty"`
	Format   string `json:"format,omitempty"` // content format: html (default) or markdown
}

// Command converts the request to an editor command. Selection operations
// have no command form.
func (req CommandRequest) Command() (editor.Command, error) {
	pos := editor.AtEnd
	if req.Position != nil {
		pos = *req.Position
	}

	needBlock := func() error {
		if req.BlockID == "" {
			return fmt.Errorf("%w: %s needs block_id", ErrInvalidCommand, req.Op)
		}
		return nil
	}

	switch req.Op {
	case OpInsert:
		return editor.Insert{Type: models.BlockType(req.Type), Position: pos}, nil
	case OpDrop:
		return editor.DropAt{Type: models.BlockType(req.Type), Position: pos}, nil
	case OpDelete:
		return editor.Delete{BlockID: req.BlockID}, needBlock()
	case OpDuplicate:
		return editor.Duplicate{BlockID: req.BlockID}, needBlock()
	case OpMoveUp:
		return editor.MoveUp{BlockID: req.BlockID}, needBlock()
	case OpMoveDown:
		return editor.MoveDown{BlockID: req.BlockID}, needBlock()
	case OpSetProperty:
		return editor.SetProperty{Property: editor.Property(req.Property), Value: req.Value}, nil
	case OpEditContent:
		if err := needBlock(); err != nil {
			return nil, err
		}
		content := req.Content
		switch req.Format {
		case "", "html":
		case "markdown":
			var err error
			if content, err = htmldoc.FromMarkdown(content); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown content format %q", ErrInvalidCommand, req.Format)
		}
		return editor.EditContent{BlockID: req.BlockID, Content: content}, nil
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidCommand, req.Op)
	}
}

// Dispatch runs one operation against a session. A set_property request
// naming a block selects it first; if the assignment fails the previous
// selection is restored.
func Dispatch(s *editor.Session, req CommandRequest) (editor.Result, error) {
	switch req.Op {
	case OpSelect:
		if err := s.Select(req.BlockID); err != nil {
			return editor.Result{Command: req.Op}, err
		}
		return editor.Result{Command: req.Op, BlockID: req.BlockID}, nil
	case OpDeselect:
		s.Deselect()
		return editor.Result{Command: req.Op}, nil
	}

	cmd, err := req.Command()
	if err != nil {
		return editor.Result{Command: req.Op}, err
	}

	if req.Op == OpSetProperty && req.BlockID != "" {
		prev, _ := s.Selected()
		if err := s.Select(req.BlockID); err != nil {
			return editor.Result{Command: req.Op}, err
		}
		res, err := s.Apply(cmd)
		if err != nil {
			if prev == "" {
				s.Deselect()
			} else {
				s.Select(prev)
			}
		}
		return res, err
	}
	return s.Apply(cmd)
}

// Dispatch runs one operation against a page and persists the session.
func (w *Workspace) Dispatch(pageID string, req CommandRequest) (editor.Result, error) {
	var res editor.Result
	_, err := w.Edit(pageID, func(s *editor.Session) error {
		var err error
		res, err = Dispatch(s, req)
		return err
	})
	return res, err
}
