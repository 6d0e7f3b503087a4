package editor

import (
	"fmt"
	"reflect"

	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/htmldoc"
	"github.com/kilupskalvis/folio/internal/models"
)

// Command is a single editing action dispatched through Session.Apply.
type Command interface {
	Name() string
	apply(m *mutation) (outcome, error)
}

// mutation is the working copy a command edits.
type mutation struct {
	session *Session
	doc     *models.Document
}

type outcome struct {
	changed  bool
	blockID  string
	selectID string
	deselect bool
}

func (m *mutation) find(id string) (int, *models.Block, error) {
	i := m.doc.Index(id)
	if i < 0 {
		return -1, nil, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return i, m.doc.Blocks[i], nil
}

func (m *mutation) insertAt(pos int, b *models.Block) {
	if pos < 0 || pos > len(m.doc.Blocks) {
		pos = len(m.doc.Blocks)
	}
	m.doc.Blocks = append(m.doc.Blocks, nil)
	copy(m.doc.Blocks[pos+1:], m.doc.Blocks[pos:])
	m.doc.Blocks[pos] = b
}

// AtEnd places a new block after the last one.
const AtEnd = -1

// Insert adds a new block of Type at Position and selects it. Positions
// outside the document, including AtEnd, append.
type Insert struct {
	Type     models.BlockType
	Position int
}

func (Insert) Name() string { return "insert" }

func (c Insert) apply(m *mutation) (outcome, error) {
	b, err := m.session.registry.New(c.Type)
	if err != nil {
		return outcome{}, err
	}
	m.insertAt(c.Position, b)
	return outcome{changed: true, blockID: b.ID, selectID: b.ID}, nil
}

// DropAt inserts a block dragged from the palette. It behaves as Insert.
type DropAt struct {
	Type     models.BlockType
	Position int
}

func (DropAt) Name() string { return "drop" }

func (c DropAt) apply(m *mutation) (outcome, error) {
	return Insert(c).apply(m)
}

// Delete removes a block. Deleting the selected block clears the selection.
type Delete struct {
	BlockID string
}

func (Delete) Name() string { return "delete" }

func (c Delete) apply(m *mutation) (outcome, error) {
	i, _, err := m.find(c.BlockID)
	if err != nil {
		return outcome{}, err
	}
	m.doc.Blocks = append(m.doc.Blocks[:i], m.doc.Blocks[i+1:]...)
	return outcome{changed: true, blockID: c.BlockID, deselect: m.session.selected == c.BlockID}, nil
}

// Duplicate inserts a deep copy of a block, under a new ID, right after it
// and selects the copy.
type Duplicate struct {
	BlockID string
}

func (Duplicate) Name() string { return "duplicate" }

func (c Duplicate) apply(m *mutation) (outcome, error) {
	i, b, err := m.find(c.BlockID)
	if err != nil {
		return outcome{}, err
	}
	clone := b.Clone()
	clone.ID = m.session.registry.ID()
	m.insertAt(i+1, clone)
	return outcome{changed: true, blockID: clone.ID, selectID: clone.ID}, nil
}

// MoveUp swaps a block with its predecessor. It is a no-op on the first block.
type MoveUp struct {
	BlockID string
}

func (MoveUp) Name() string { return "move_up" }

func (c MoveUp) apply(m *mutation) (outcome, error) {
	i, _, err := m.find(c.BlockID)
	if err != nil {
		return outcome{}, err
	}
	if i == 0 {
		return outcome{blockID: c.BlockID}, nil
	}
	m.doc.Blocks[i-1], m.doc.Blocks[i] = m.doc.Blocks[i], m.doc.Blocks[i-1]
	return outcome{changed: true, blockID: c.BlockID}, nil
}

// MoveDown swaps a block with its successor. It is a no-op on the last block.
type MoveDown struct {
	BlockID string
}

func (MoveDown) Name() string { return "move_down" }

func (c MoveDown) apply(m *mutation) (outcome, error) {
	i, _, err := m.find(c.BlockID)
	if err != nil {
		return outcome{}, err
	}
	if i == len(m.doc.Blocks)-1 {
		return outcome{blockID: c.BlockID}, nil
	}
	m.doc.Blocks[i+1], m.doc.Blocks[i] = m.doc.Blocks[i], m.doc.Blocks[i+1]
	return outcome{changed: true, blockID: c.BlockID}, nil
}

// SetProperty validates and assigns one property of the selected block.
type SetProperty struct {
	Property Property
	Value    string
}

func (SetProperty) Name() string { return "set_property" }

func (c SetProperty) apply(m *mutation) (outcome, error) {
	if m.session.selected == "" {
		return outcome{}, ErrNoSelection
	}
	def, err := lookupProperty(c.Property)
	if err != nil {
		return outcome{}, err
	}
	value, err := def.validate(c.Value)
	if err != nil {
		return outcome{}, err
	}
	_, b, err := m.find(m.session.selected)
	if err != nil {
		return outcome{}, err
	}
	if def.get(b) == value {
		return outcome{blockID: b.ID}, nil
	}
	def.set(b, value)
	return outcome{changed: true, blockID: b.ID}, nil
}

// EditContent commits an in-place edit of a text or heading block. Content
// is stored in canonical HTML form.
type EditContent struct {
	BlockID string
	Content string
}

func (EditContent) Name() string { return "edit_content" }

func (c EditContent) apply(m *mutation) (outcome, error) {
	_, b, err := m.find(c.BlockID)
	if err != nil {
		return outcome{}, err
	}
	if !blocks.Editable(b.Type) {
		return outcome{}, fmt.Errorf("%w: %s", ErrNotEditable, b.Type)
	}
	content, err := htmldoc.Normalize(c.Content)
	if err != nil {
		return outcome{}, fmt.Errorf("%w: %w", ErrInvalidPropertyValue, err)
	}
	if content == b.Content {
		return outcome{blockID: b.ID}, nil
	}
	b.Content = content
	return outcome{changed: true, blockID: b.ID}, nil
}

// ImportMedia places an uploaded image or video given as a data URL. With a
// BlockID naming an image block, the image source is replaced. Otherwise a
// new block is appended and selected.
type ImportMedia struct {
	BlockID string
	Type    models.BlockType
	Source  string
}

func (ImportMedia) Name() string { return "import_media" }

func (c ImportMedia) apply(m *mutation) (outcome, error) {
	if c.Type != models.BlockImage && c.Type != models.BlockVideo {
		return outcome{}, fmt.Errorf("%w: %q is not a media block", blocks.ErrUnsupportedBlockType, c.Type)
	}

	if c.BlockID != "" {
		_, b, err := m.find(c.BlockID)
		if err != nil {
			return outcome{}, err
		}
		if b.Type != models.BlockImage || c.Type != models.BlockImage {
			return outcome{}, fmt.Errorf("%w: only image blocks take a replacement source", ErrNotEditable)
		}
		content, err := htmldoc.SetImageSource(b.Content, c.Source)
		if err != nil {
			return outcome{}, err
		}
		b.Content = content
		return outcome{changed: true, blockID: b.ID}, nil
	}

	b, err := m.session.registry.New(c.Type)
	if err != nil {
		return outcome{}, err
	}
	if c.Type == models.BlockImage {
		b.Content, err = htmldoc.SetImageSource(b.Content, c.Source)
		if err != nil {
			return outcome{}, err
		}
	} else {
		b.Content = htmldoc.VideoContent(c.Source)
	}
	m.insertAt(AtEnd, b)
	return outcome{changed: true, blockID: b.ID, selectID: b.ID}, nil
}

// Replace swaps in a whole document, such as saved content being restored.
// The block list is taken as is; the page ID stays the session's.
type Replace struct {
	Document *models.Document
}

func (Replace) Name() string { return "replace" }

func (c Replace) apply(m *mutation) (outcome, error) {
	if c.Document == nil {
		return outcome{}, fmt.Errorf("no document to load")
	}
	next := c.Document.Clone()
	normalize(next)
	if reflect.DeepEqual(next.Blocks, m.doc.Blocks) {
		return outcome{}, nil
	}
	m.doc.Blocks = next.Blocks
	return outcome{changed: true}, nil
}
