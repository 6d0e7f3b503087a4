package models

// BlockType is the tag naming a kind of content block.
type BlockType string

const (
	BlockText        BlockType = "text"
	BlockHeading     BlockType = "heading"
	BlockButton      BlockType = "button"
	BlockImage       BlockType = "image"
	BlockVideo       BlockType = "video"
	BlockDivider     BlockType = "divider"
	BlockSection     BlockType = "section"
	BlockContainer   BlockType = "container"
	BlockRow         BlockType = "row"
	BlockColumn      BlockType = "column"
	BlockGrid        BlockType = "grid"
	BlockCard        BlockType = "card"
	BlockGallery     BlockType = "gallery"
	BlockForm        BlockType = "form"
	BlockSlider      BlockType = "slider"
	BlockSocialLinks BlockType = "social-links"
)

// Attribute names the block carries outside of its style.
const (
	AttrID    = "id"
	AttrClass = "class"
)

// Style is the fixed set of presentation properties a block can carry.
// An empty field means the property is unset. Padding values are pixel
// counts without a unit.
type Style struct {
	PaddingTop      string `json:"padding_top,omitempty"`
	PaddingBottom   string `json:"padding_bottom,omitempty"`
	PaddingLeft     string `json:"padding_left,omitempty"`
	PaddingRight    string `json:"padding_right,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	Width           string `json:"width,omitempty"`
	Height          string `json:"height,omitempty"`
}

// IsZero reports whether no style property is set.
func (s Style) IsZero() bool {
	return s == Style{}
}

// Block is one unit of page content.
type Block struct {
	ID         string            `json:"id"`
	Type       BlockType         `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Style      Style             `json:"style"`
	Content    string            `json:"content"`
}

// Attr returns the value of an attribute, or "" when unset.
func (b *Block) Attr(name string) string {
	if b.Attributes == nil {
		return ""
	}
	return b.Attributes[name]
}

// SetAttr sets an attribute. An empty value removes it.
func (b *Block) SetAttr(name, value string) {
	if value == "" {
		delete(b.Attributes, name)
		return
	}
	if b.Attributes == nil {
		b.Attributes = make(map[string]string)
	}
	b.Attributes[name] = value
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	c := *b
	if b.Attributes != nil {
		c.Attributes = make(map[string]string, len(b.Attributes))
		for k, v := range b.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}
