package editor

import (
	"fmt"

	"github.com/kilupskalvis/folio/internal/models"
)

// Select makes id the selected block, replacing any previous selection.
// Selection is not recorded in history.
func (s *Session) Select(id string) error {
	if s.doc.Find(id) == nil {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	s.selected = id
	return nil
}

// Deselect clears the selection.
func (s *Session) Deselect() {
	s.selected = ""
}

// Selected returns the selected block ID.
func (s *Session) Selected() (string, bool) {
	return s.selected, s.selected != ""
}

// Field is one row of the property panel.
type Field struct {
	Property Property `json:"property"`
	Label    string   `json:"label"`
	Value    string   `json:"value"`
}

// Panel is the property panel for the current selection. An empty BlockID
// means nothing is selected and the panel shows no fields.
type Panel struct {
	BlockID string           `json:"block_id,omitempty"`
	Type    models.BlockType `json:"type,omitempty"`
	Fields  []Field          `json:"fields"`
}

// Panel projects the selected block into panel fields.
func (s *Session) Panel() Panel {
	p := Panel{Fields: []Field{}}
	b := s.doc.Find(s.selected)
	if b == nil {
		return p
	}
	p.BlockID = b.ID
	p.Type = b.Type
	for _, def := range properties {
		p.Fields = append(p.Fields, Field{Property: def.name, Label: def.label, Value: def.get(b)})
	}
	return p
}
