// Package editor holds the live editing session of one page: the document,
// the block selection and the undo history. Every change goes through
// Session.Apply so that history and selection are updated the same way for
// every command.
package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/history"
	"github.com/kilupskalvis/folio/internal/models"
)

var (
	ErrBlockNotFound        = errors.New("block not found")
	ErrNoSelection          = errors.New("no block selected")
	ErrInvalidPropertyValue = errors.New("invalid property value")
	ErrUnknownProperty      = errors.New("unknown property")
	ErrNotEditable          = errors.New("block content is not editable")
)

// Options configures a Session.
type Options struct {
	History  history.Options
	Registry *blocks.Registry
}

// Session is the editing state of one page. It is not safe for concurrent
// use; callers serialize access.
type Session struct {
	doc      *models.Document
	selected string
	history  *history.Stack
	registry *blocks.Registry
}

// Result describes the effect of an applied command.
type Result struct {
	Command string `json:"command"`
	Changed bool   `json:"changed"`
	BlockID string `json:"block_id,omitempty"`
}

// NewSession starts a session on doc. A nil doc starts an empty page. The
// starting state is recorded as the first history entry.
func NewSession(pageID string, doc *models.Document, opts Options) (*Session, error) {
	if doc == nil {
		doc = models.NewDocument(pageID)
	} else {
		doc = doc.Clone()
		doc.PageID = pageID
	}
	s := newSession(doc, opts)
	if err := s.snapshot(); err != nil {
		return nil, err
	}
	return s, nil
}

// Resume rebuilds a session from its persisted state.
func Resume(state *models.EditorState, opts Options) (*Session, error) {
	if state == nil || state.Document == nil {
		return nil, fmt.Errorf("resume session: missing document")
	}
	s := newSession(state.Document.Clone(), opts)
	normalize(s.doc)

	entries := make([]history.Snapshot, len(state.History))
	for i, e := range state.History {
		entries[i] = history.Snapshot(e)
	}
	s.history.Restore(entries, state.Cursor)
	if s.history.Len() == 0 {
		if err := s.snapshot(); err != nil {
			return nil, err
		}
	}
	if state.Selected != "" && s.doc.Find(state.Selected) != nil {
		s.selected = state.Selected
	}
	return s, nil
}

func newSession(doc *models.Document, opts Options) *Session {
	reg := opts.Registry
	if reg == nil {
		reg = &blocks.Registry{}
	}
	return &Session{
		doc:      doc,
		history:  history.New(opts.History),
		registry: reg,
	}
}

// State captures the session for persistence.
func (s *Session) State() *models.EditorState {
	entries := s.history.Entries()
	raw := make([][]byte, len(entries))
	for i, e := range entries {
		raw[i] = e
	}
	return &models.EditorState{
		Document:  s.doc.Clone(),
		Selected:  s.selected,
		History:   raw,
		Cursor:    s.history.Cursor(),
		UpdatedAt: time.Now().UTC(),
	}
}

// PageID returns the page the session edits.
func (s *Session) PageID() string { return s.doc.PageID }

// Document returns a copy of the live document.
func (s *Session) Document() *models.Document { return s.doc.Clone() }

// Block returns a copy of one block.
func (s *Session) Block(id string) (*models.Block, error) {
	b := s.doc.Find(id)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return b.Clone(), nil
}

// CanUndo reports whether Undo would change the document.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo would change the document.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// HistoryLen returns the number of history entries.
func (s *Session) HistoryLen() int { return s.history.Len() }

// Apply runs cmd against the live document. On success a changed document
// is recorded in history and the selection is updated. On failure neither the
// document nor the selection changes.
func (s *Session) Apply(cmd Command) (Result, error) {
	work := s.doc.Clone()
	out, err := cmd.apply(&mutation{session: s, doc: work})
	if err != nil {
		return Result{Command: cmd.Name()}, fmt.Errorf("%s: %w", cmd.Name(), err)
	}

	res := Result{Command: cmd.Name(), Changed: out.changed, BlockID: out.blockID}
	if !out.changed {
		return res, nil
	}

	s.doc = work
	switch {
	case out.selectID != "":
		s.selected = out.selectID
	case out.deselect:
		s.selected = ""
	}
	if s.selected != "" && s.doc.Find(s.selected) == nil {
		s.selected = ""
	}
	if err := s.snapshot(); err != nil {
		return res, err
	}
	return res, nil
}

// Undo restores the previous history entry. It reports false when there is
// nothing to undo.
func (s *Session) Undo() (bool, error) {
	snap, ok := s.history.Undo()
	if !ok {
		return false, nil
	}
	if err := s.restore(snap); err != nil {
		s.history.Redo()
		return false, err
	}
	return true, nil
}

// Redo restores the next history entry. It reports false when there is
// nothing to redo.
func (s *Session) Redo() (bool, error) {
	snap, ok := s.history.Redo()
	if !ok {
		return false, nil
	}
	if err := s.restore(snap); err != nil {
		s.history.Undo()
		return false, err
	}
	return true, nil
}

func (s *Session) snapshot() error {
	data, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("snapshot document: %w", err)
	}
	s.history.Push(data)
	return nil
}

func (s *Session) restore(snap history.Snapshot) error {
	var doc models.Document
	if err := json.Unmarshal(snap, &doc); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	normalize(&doc)
	s.doc = &doc
	if s.selected != "" && s.doc.Find(s.selected) == nil {
		s.selected = ""
	}
	return nil
}

// normalize gives a decoded document the same shape as a live one.
func normalize(doc *models.Document) {
	if doc.Blocks == nil {
		doc.Blocks = []*models.Block{}
	}
	for _, b := range doc.Blocks {
		if b.Attributes == nil {
			b.Attributes = make(map[string]string)
		}
	}
}
