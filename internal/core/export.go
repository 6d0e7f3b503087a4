package core

import (
	"fmt"

	"github.com/kilupskalvis/folio/internal/htmldoc"
	"github.com/kilupskalvis/folio/internal/models"
)

// Export formats.
const (
	FormatHTML     = "html"     // block markup as saved and published
	FormatMarkdown = "markdown" // readable text of the page
	FormatPage     = "page"     // standalone HTML document for preview
)

// Export renders the live document of a page in the given format.
func (w *Workspace) Export(pageID, format string) (string, error) {
	s, err := w.Session(pageID)
	if err != nil {
		return "", err
	}
	return w.ExportDocument(s.Document(), format)
}

// ExportDocument renders doc in the given format.
func (w *Workspace) ExportDocument(doc *models.Document, format string) (string, error) {
	switch format {
	case "", FormatHTML:
		return htmldoc.Render(doc)
	case FormatMarkdown:
		return htmldoc.ToMarkdown(doc)
	case FormatPage:
		prefs, err := w.Catalog.Preferences()
		if err != nil {
			return "", err
		}
		return htmldoc.Standalone(doc, pageTitle(doc), prefs.Language)
	default:
		return "", fmt.Errorf("unknown export format %q (want %s, %s or %s)", format, FormatHTML, FormatMarkdown, FormatPage)
	}
}

// pageTitle uses the first heading, falling back to the page ID.
func pageTitle(doc *models.Document) string {
	for _, b := range doc.Blocks {
		if b.Type != models.BlockHeading {
			continue
		}
		if t := htmldoc.PlainText(b.Content); t != "" {
			return t
		}
	}
	return doc.PageID
}
