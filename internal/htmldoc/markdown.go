package htmldoc

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/kilupskalvis/folio/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// FromMarkdown converts Markdown input into canonical block content.
// Raw HTML in the input is not passed through.
func FromMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return Normalize(strings.TrimSpace(buf.String()))
}

// ToMarkdown converts the whole document to Markdown.
func ToMarkdown(doc *models.Document) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, b := range doc.Blocks {
		n, err := blockNode(b)
		if err != nil {
			return "", err
		}
		body.AppendChild(n)
	}

	out, err := htmltomarkdown.ConvertNode(body)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return string(out), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}</body>
</html>
`))

// Standalone wraps the rendered document in a complete HTML page for preview.
func Standalone(doc *models.Document, title, lang string) (string, error) {
	body, err := Render(doc)
	if err != nil {
		return "", err
	}
	if lang == "" {
		lang = "en"
	}
	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Title, Lang string
		Body        template.HTML
	}{title, lang, template.HTML(body)})
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}
