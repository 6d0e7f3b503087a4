// Package blocks is the catalog of block types the editor can place on a page.
// It builds new blocks with their default markup and answers palette queries.
package blocks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilupskalvis/folio/internal/models"
	"github.com/oklog/ulid/v2"
)

// ErrUnsupportedBlockType is returned for a tag outside the known set.
var ErrUnsupportedBlockType = errors.New("unsupported block type")

// Spec describes one entry of the block palette.
type Spec struct {
	Type     models.BlockType `json:"type"`
	Label    string           `json:"label"`
	Group    string           `json:"group"`
	Editable bool             `json:"editable"` // content is free text edited in place
	content  string
}

// Default markup is kept in the canonical form produced by the HTML codec so
// that a saved and reloaded block compares equal to a fresh one.
var specs = []Spec{
	{Type: models.BlockText, Label: "Text", Group: "basic", Editable: true,
		content: `<p>Block text. Click to edit.</p>`},
	{Type: models.BlockHeading, Label: "Heading", Group: "basic", Editable: true,
		content: `<h2>Heading</h2>`},
	{Type: models.BlockButton, Label: "Button", Group: "basic",
		content: `<button class="block-button">Button</button>`},
	{Type: models.BlockImage, Label: "Image", Group: "media",
		content: `<div class="block-image"><img src="https://via.placeholder.com/400x300" alt="Image"/></div>`},
	{Type: models.BlockVideo, Label: "Video", Group: "media",
		content: `<div class="block-video"><iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ" frameborder="0" allowfullscreen=""></iframe></div>`},
	{Type: models.BlockDivider, Label: "Divider", Group: "basic",
		content: `<div class="block-divider"></div>`},
	{Type: models.BlockSection, Label: "Section", Group: "layout",
		content: `<div class="block-section"><p>Section</p></div>`},
	{Type: models.BlockContainer, Label: "Container", Group: "layout",
		content: `<div class="block-container"><p>Container</p></div>`},
	{Type: models.BlockRow, Label: "Row", Group: "layout",
		content: `<div class="block-row"><div class="block-column">Column 1</div><div class="block-column">Column 2</div></div>`},
	{Type: models.BlockColumn, Label: "Column", Group: "layout",
		content: `<div class="block-column"><p>Column</p></div>`},
	{Type: models.BlockGrid, Label: "Grid", Group: "layout",
		content: `<div class="block-grid"><div>Item 1</div><div>Item 2</div><div>Item 3</div></div>`},
	{Type: models.BlockCard, Label: "Card", Group: "components",
		content: `<div class="block-card"><h3>Card title</h3><p>Card description</p></div>`},
	{Type: models.BlockGallery, Label: "Gallery", Group: "media",
		content: `<div class="block-gallery"><img src="https://via.placeholder.com/200" alt="1"/><img src="https://via.placeholder.com/200" alt="2"/><img src="https://via.placeholder.com/200" alt="3"/></div>`},
	{Type: models.BlockForm, Label: "Form", Group: "components",
		content: `<form class="block-form"><input type="text" placeholder="Name"/><input type="email" placeholder="Email"/><textarea placeholder="Message"></textarea><button type="submit">Send</button></form>`},
	{Type: models.BlockSlider, Label: "Slider", Group: "components",
		content: `<div class="block-slider"><div class="slide">Slide 1</div><div class="slide">Slide 2</div></div>`},
	{Type: models.BlockSocialLinks, Label: "Social links", Group: "components",
		content: `<div class="block-social"><a href="#">GitHub</a><a href="#">LinkedIn</a><a href="#">Twitter</a></div>`},
}

var byType = func() map[models.BlockType]*Spec {
	m := make(map[models.BlockType]*Spec, len(specs))
	for i := range specs {
		m[specs[i].Type] = &specs[i]
	}
	return m
}()

// Registry constructs blocks. The zero value is ready to use and assigns
// ULID identifiers.
type Registry struct {
	// NewID overrides identifier generation, mainly for tests.
	NewID func() string
}

// New returns a fresh block of the given type with its default content,
// the default class attribute and an empty style.
func (r *Registry) New(t models.BlockType) (*models.Block, error) {
	spec, ok := byType[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBlockType, t)
	}
	return &models.Block{
		ID:         r.ID(),
		Type:       t,
		Attributes: map[string]string{models.AttrClass: DefaultClass(t)},
		Content:    spec.content,
	}, nil
}

// ID returns a new block identifier.
func (r *Registry) ID() string {
	if r != nil && r.NewID != nil {
		return r.NewID()
	}
	return ulid.Make().String()
}

// DefaultClass returns the class attribute a new block of type t carries.
func DefaultClass(t models.BlockType) string {
	return "block-" + string(t)
}

// Lookup returns the palette entry for a type.
func Lookup(t models.BlockType) (Spec, bool) {
	spec, ok := byType[t]
	if !ok {
		return Spec{}, false
	}
	return *spec, true
}

// Supported reports whether t is a known block type.
func Supported(t models.BlockType) bool {
	_, ok := byType[t]
	return ok
}

// Editable reports whether blocks of type t take free text content.
func Editable(t models.BlockType) bool {
	spec, ok := byType[t]
	return ok && spec.Editable
}

// DefaultContent returns the markup a new block of type t starts with.
func DefaultContent(t models.BlockType) string {
	if spec, ok := byType[t]; ok {
		return spec.content
	}
	return ""
}

// Types returns the palette in display order.
func Types() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Search returns the palette entries whose tag or label contains query,
// ignoring case. An empty query returns the whole palette.
func Search(query string) []Spec {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Types()
	}
	var out []Spec
	for _, s := range specs {
		if strings.Contains(string(s.Type), q) || strings.Contains(strings.ToLower(s.Label), q) {
			out = append(out, s)
		}
	}
	return out
}
