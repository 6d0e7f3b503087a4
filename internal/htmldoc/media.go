package htmldoc

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoImage is returned when content has no img element to update.
var ErrNoImage = errors.New("content has no image")

// SetImageSource points the first img element of content at src.
func SetImageSource(content, src string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(content), fragmentContext())
	if err != nil {
		return "", err
	}

	var img *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if img != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			img = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	for _, n := range nodes {
		find(n)
	}
	if img == nil {
		return "", ErrNoImage
	}

	set := false
	for i := range img.Attr {
		if img.Attr[i].Key == "src" {
			img.Attr[i].Val = src
			set = true
		}
	}
	if !set {
		img.Attr = append(img.Attr, html.Attribute{Key: "src", Val: src})
	}

	var sb strings.Builder
	for _, n := range nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// VideoContent returns the content of a video block playing src.
func VideoContent(src string) string {
	n := &html.Node{Type: html.ElementNode, Data: "video", DataAtom: atom.Video, Attr: []html.Attribute{
		{Key: "src", Val: src},
		{Key: "controls", Val: ""},
		{Key: "style", Val: "width: 100%; height: auto"},
	}}
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}
