// Package htmldoc converts documents to and from the HTML stored as a page's
// content, and to Markdown for export.
package htmldoc

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrMalformed is returned when stored HTML does not describe a document.
	ErrMalformed = errors.New("malformed page html")
	// ErrUnstableContent is returned for content that would not read back
	// unchanged once saved inside a page.
	ErrUnstableContent = errors.New("content does not survive saving")
)

const (
	attrBlockID   = "data-block-id"
	attrBlockType = "data-block-type"
	attrStyle     = "style"
)

// styleProps lists the CSS properties a block style renders to, in output order.
var styleProps = []struct {
	css   string
	px    bool
	field func(*models.Style) *string
}{
	{"padding-top", true, func(s *models.Style) *string { return &s.PaddingTop }},
	{"padding-bottom", true, func(s *models.Style) *string { return &s.PaddingBottom }},
	{"padding-left", true, func(s *models.Style) *string { return &s.PaddingLeft }},
	{"padding-right", true, func(s *models.Style) *string { return &s.PaddingRight }},
	{"background-color", false, func(s *models.Style) *string { return &s.BackgroundColor }},
	{"color", false, func(s *models.Style) *string { return &s.TextColor }},
	{"width", false, func(s *models.Style) *string { return &s.Width }},
	{"height", false, func(s *models.Style) *string { return &s.Height }},
}

func fragmentContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
}

// Render serializes the document as a sequence of block elements.
func Render(doc *models.Document) (string, error) {
	var sb strings.Builder
	for _, b := range doc.Blocks {
		n, err := blockNode(b)
		if err != nil {
			return "", err
		}
		if err := html.Render(&sb, n); err != nil {
			return "", fmt.Errorf("render block %s: %w", b.ID, err)
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func blockNode(b *models.Block) (*html.Node, error) {
	n := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	n.Attr = append(n.Attr,
		html.Attribute{Key: attrBlockID, Val: b.ID},
		html.Attribute{Key: attrBlockType, Val: string(b.Type)},
	)

	keys := make([]string, 0, len(b.Attributes))
	for k := range b.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: b.Attributes[k]})
	}
	if css := StyleString(b.Style); css != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: attrStyle, Val: css})
	}

	children, err := html.ParseFragment(strings.NewReader(b.Content), fragmentContext())
	if err != nil {
		return nil, fmt.Errorf("parse content of block %s: %w", b.ID, err)
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n, nil
}

// StyleString renders a style as an inline CSS declaration list.
func StyleString(s models.Style) string {
	var parts []string
	for _, p := range styleProps {
		v := *p.field(&s)
		if v == "" {
			continue
		}
		if p.px {
			v += "px"
		}
		parts = append(parts, p.css+": "+v)
	}
	return strings.Join(parts, "; ")
}

// ParseStyle reads an inline CSS declaration list back into a style.
// Unknown properties are ignored.
func ParseStyle(css string) models.Style {
	var s models.Style
	for _, decl := range strings.Split(css, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		for _, p := range styleProps {
			if p.css != name {
				continue
			}
			if p.px {
				value = strings.TrimSuffix(value, "px")
			}
			*p.field(&s) = value
		}
	}
	return s
}

// Parse rebuilds a document from HTML produced by Render. Top-level nodes
// that are not block elements are ignored.
func Parse(pageID, src string) (*models.Document, error) {
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type: html.ElementNode, Data: "body", DataAtom: atom.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	doc := models.NewDocument(pageID)
	seen := make(map[string]bool)
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		b, err := parseBlock(n)
		if err != nil {
			return nil, err
		}
		if b == nil {
			continue
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("%w: duplicate block id %s", ErrMalformed, b.ID)
		}
		seen[b.ID] = true
		doc.Blocks = append(doc.Blocks, b)
	}
	return doc, nil
}

func parseBlock(n *html.Node) (*models.Block, error) {
	b := &models.Block{Attributes: make(map[string]string)}
	isBlock := false
	for _, a := range n.Attr {
		switch a.Key {
		case attrBlockID:
			b.ID = a.Val
			isBlock = true
		case attrBlockType:
			b.Type = models.BlockType(a.Val)
		case attrStyle:
			b.Style = ParseStyle(a.Val)
		default:
			b.Attributes[a.Key] = a.Val
		}
	}
	if !isBlock {
		return nil, nil
	}
	if b.ID == "" {
		return nil, fmt.Errorf("%w: block without id", ErrMalformed)
	}
	if !blocks.Supported(b.Type) {
		return nil, fmt.Errorf("%w: block %s has unsupported type %q", ErrMalformed, b.ID, b.Type)
	}

	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	b.Content = sb.String()
	return b, nil
}

// Normalize parses a content fragment and renders it back, yielding the
// canonical form the codec stores. Script and plaintext elements are dropped.
// Content that would swallow the blocks after it on reload fails with
// ErrUnstableContent.
func Normalize(content string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(content), fragmentContext())
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}
	var sb strings.Builder
	for _, n := range nodes {
		if dropped(n) {
			continue
		}
		stripDropped(n)
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	out := sb.String()
	if err := checkStable(out); err != nil {
		return "", err
	}
	return out, nil
}

// dropped reports elements never kept in block content. Script runs code;
// plaintext has no end tag, so it would consume the rest of the page.
func dropped(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Plaintext)
}

func stripDropped(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if dropped(c) {
			n.RemoveChild(c)
		} else {
			stripDropped(c)
		}
		c = next
	}
}

// checkStable renders content as a block followed by a sibling and parses
// the result, requiring both blocks back with the content intact.
func checkStable(content string) error {
	doc := &models.Document{Blocks: []*models.Block{
		{ID: "content", Type: models.BlockText, Content: content},
		{ID: "next", Type: models.BlockDivider},
	}}
	src, err := Render(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnstableContent, err)
	}
	back, err := Parse("", src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnstableContent, err)
	}
	if back.Len() != 2 || back.Blocks[0].Content != content {
		return ErrUnstableContent
	}
	return nil
}

// PlainText returns the concatenated text of a content fragment.
func PlainText(content string) string {
	nodes, err := html.ParseFragment(strings.NewReader(content), fragmentContext())
	if err != nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
