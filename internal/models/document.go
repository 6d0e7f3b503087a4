package models

// Document is the ordered list of blocks making up one editable page.
type Document struct {
	PageID string   `json:"page_id"`
	Blocks []*Block `json:"blocks"`
}

// NewDocument returns an empty document for a page.
func NewDocument(pageID string) *Document {
	return &Document{PageID: pageID, Blocks: []*Block{}}
}

// Index returns the position of the block with the given ID, or -1.
func (d *Document) Index(id string) int {
	for i, b := range d.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the block with the given ID, or nil.
func (d *Document) Find(id string) *Block {
	if i := d.Index(id); i >= 0 {
		return d.Blocks[i]
	}
	return nil
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	return len(d.Blocks)
}

// IDs returns the block IDs in document order.
func (d *Document) IDs() []string {
	ids := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		ids[i] = b.ID
	}
	return ids
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{PageID: d.PageID, Blocks: make([]*Block, len(d.Blocks))}
	for i, b := range d.Blocks {
		c.Blocks[i] = b.Clone()
	}
	return c
}
