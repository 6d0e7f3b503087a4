package htmldoc

import (
	"strings"
	"testing"

	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(t *testing.T, types ...models.BlockType) *models.Document {
	t.Helper()
	var r blocks.Registry
	doc := models.NewDocument("index.html")
	for _, typ := range types {
		b, err := r.New(typ)
		require.NoError(t, err)
		doc.Blocks = append(doc.Blocks, b)
	}
	return doc
}

func TestRender_BlockMarkup(t *testing.T) {
	doc := models.NewDocument("index.html")
	doc.Blocks = append(doc.Blocks, &models.Block{
		ID:         "b1",
		Type:       models.BlockHeading,
		Attributes: map[string]string{"class": "block-heading hero", "id": "top"},
		Style:      models.Style{PaddingTop: "10", TextColor: "#333"},
		Content:    "<h2>Hi</h2>",
	})

	out, err := Render(doc)
	require.NoError(t, err)
	assert.Equal(t,
		`<div data-block-id="b1" data-block-type="heading" class="block-heading hero" id="top" style="padding-top: 10px; color: #333"><h2>Hi</h2></div>`+"\n",
		out)
}

func TestParse_RoundTripAllTypes(t *testing.T) {
	var types []models.BlockType
	for _, s := range blocks.Types() {
		types = append(types, s.Type)
	}
	doc := newDoc(t, types...)
	doc.Blocks[0].Style = models.Style{
		PaddingTop: "1", PaddingBottom: "2", PaddingLeft: "3", PaddingRight: "4",
		BackgroundColor: "rgb(10, 20, 30)", TextColor: "#fff", Width: "100%", Height: "auto",
	}
	doc.Blocks[1].SetAttr(models.AttrID, "intro")

	src, err := Render(doc)
	require.NoError(t, err)

	got, err := Parse("index.html", src)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse("about.html", "")
	require.NoError(t, err)
	assert.Equal(t, "about.html", doc.PageID)
	assert.Empty(t, doc.Blocks)
}

func TestParse_IgnoresForeignNodes(t *testing.T) {
	src := `<p>stray</p><div data-block-id="a" data-block-type="divider" class="block-divider"><div class="block-divider"></div></div>`
	doc, err := Parse("index.html", src)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "a", doc.Blocks[0].ID)
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"unknown type": `<div data-block-id="a" data-block-type="marquee"></div>`,
		"empty id":     `<div data-block-id="" data-block-type="text"></div>`,
		"duplicate id": `<div data-block-id="a" data-block-type="text"></div><div data-block-id="a" data-block-type="text"></div>`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("index.html", src)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestStyle(t *testing.T) {
	s := models.Style{PaddingLeft: "8", Width: "50%"}
	css := StyleString(s)
	assert.Equal(t, "padding-left: 8px; width: 50%", css)
	assert.Equal(t, s, ParseStyle(css))

	assert.Equal(t, models.Style{Height: "20px"}, ParseStyle("HEIGHT : 20px; border: none; junk"))
}

func TestNormalize(t *testing.T) {
	out, err := Normalize(`<p>a<br>b</p><script>alert(1)</script><div><script>x()</script>ok</div>`)
	require.NoError(t, err)
	assert.Equal(t, `<p>a<br/>b</p><div>ok</div>`, out)
}

func TestNormalize_DropsPlaintext(t *testing.T) {
	out, err := Normalize(`<p>see <plaintext>raw</p>`)
	require.NoError(t, err)
	assert.Equal(t, `<p>see </p>`, out)

	doc := newDoc(t, models.BlockText, models.BlockHeading)
	doc.Blocks[0].Content = out
	src, err := Render(doc)
	require.NoError(t, err)
	got, err := Parse("index.html", src)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestCheckStable(t *testing.T) {
	assert.NoError(t, checkStable(`<p>a<br/>b</p><pre>code</pre>`))
	assert.ErrorIs(t, checkStable(`<p>see </p><plaintext>raw`), ErrUnstableContent)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Card title Card description",
		PlainText(blocks.DefaultContent(models.BlockCard)))
}

func TestFromMarkdown(t *testing.T) {
	out, err := FromMarkdown("## Title\n\nSome **bold** text")
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Title</h2>")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestToMarkdown(t *testing.T) {
	doc := newDoc(t, models.BlockHeading, models.BlockText)

	md, err := ToMarkdown(doc)
	require.NoError(t, err)
	assert.Contains(t, md, "## Heading")
	assert.Contains(t, md, "Block text. Click to edit.")
}

func TestStandalone(t *testing.T) {
	doc := newDoc(t, models.BlockHeading)

	page, err := Standalone(doc, "Home <1>", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Home &lt;1&gt;</title>")
	assert.Contains(t, page, `data-block-type="heading"`)
	assert.Contains(t, page, `lang="en"`)
}
