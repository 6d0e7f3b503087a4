package core

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/config"
	"github.com/kilupskalvis/folio/internal/editor"
	"github.com/kilupskalvis/folio/internal/github"
	"github.com/kilupskalvis/folio/internal/github/githubtest"
	"github.com/kilupskalvis/folio/internal/models"
	"github.com/kilupskalvis/folio/internal/persist"
	"github.com/kilupskalvis/folio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = config.DefaultPage

func newTestWorkspace(t *testing.T, cfg *config.Config) *Workspace {
	t.Helper()
	t.Setenv(persist.TokenEnvVar, "")
	if cfg == nil {
		cfg = config.Default()
	}
	st, err := store.Open(cfg.StorageBackend, filepath.Join(t.TempDir(), "folio.db"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	w := NewWorkspace(cfg, st, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	n := 0
	w.Registry = &blocks.Registry{NewID: func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}}
	return w
}

func mustApply(t *testing.T, w *Workspace, cmd editor.Command) editor.Result {
	t.Helper()
	res, err := w.Apply(page, cmd)
	require.NoError(t, err)
	return res
}

func liveIDs(t *testing.T, w *Workspace) []string {
	t.Helper()
	s, err := w.Session(page)
	require.NoError(t, err)
	return s.Document().IDs()
}

func TestSession_StartsEmpty(t *testing.T) {
	w := newTestWorkspace(t, nil)

	s, err := w.Session(page)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Document().Len())
	assert.False(t, s.CanUndo())
}

func TestApply_PersistsAcrossSessions(t *testing.T) {
	w := newTestWorkspace(t, nil)

	heading := mustApply(t, w, editor.Insert{Type: models.BlockHeading, Position: editor.AtEnd}).BlockID
	text := mustApply(t, w, editor.Insert{Type: models.BlockText, Position: editor.AtEnd}).BlockID
	mustApply(t, w, editor.MoveUp{BlockID: text})
	assert.Equal(t, []string{text, heading}, liveIDs(t, w))

	s, err := w.Session(page)
	require.NoError(t, err)
	sel, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, text, sel)

	_, err = w.Edit(page, func(s *editor.Session) error {
		_, err := s.Undo()
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{heading, text}, liveIDs(t, w))
}

func TestApply_FailureLeavesSessionUntouched(t *testing.T) {
	w := newTestWorkspace(t, nil)
	mustApply(t, w, editor.Insert{Type: models.BlockText, Position: editor.AtEnd})

	_, err := w.Apply(page, editor.Insert{Type: "carousel"})
	assert.ErrorIs(t, err, blocks.ErrUnsupportedBlockType)
	assert.Equal(t, []string{"b1"}, liveIDs(t, w))
}

func TestSession_LoadsSavedPage(t *testing.T) {
	w := newTestWorkspace(t, nil)
	mustApply(t, w, editor.Insert{Type: models.BlockButton, Position: editor.AtEnd})
	_, err := w.SavePage(page)
	require.NoError(t, err)

	require.NoError(t, w.DiscardSession(page))
	assert.Equal(t, []string{"b1"}, liveIDs(t, w))
}

func TestSession_MalformedSessionStartsFromSavedPage(t *testing.T) {
	w := newTestWorkspace(t, nil)
	mustApply(t, w, editor.Insert{Type: models.BlockDivider, Position: editor.AtEnd})
	_, err := w.SavePage(page)
	require.NoError(t, err)

	require.NoError(t, w.Store.Put(models.SessionKey(page), []byte("{not json")))
	assert.Equal(t, []string{"b1"}, liveIDs(t, w))
}

func TestRestore(t *testing.T) {
	w := newTestWorkspace(t, nil)

	_, _, err := w.Restore(page)
	assert.ErrorIs(t, err, persist.ErrNoSavedContent)

	mustApply(t, w, editor.Insert{Type: models.BlockHeading, Position: editor.AtEnd})
	_, err = w.SavePage(page)
	require.NoError(t, err)
	mustApply(t, w, editor.Insert{Type: models.BlockText, Position: editor.AtEnd})

	res, rec, err := w.Restore(page)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.NotZero(t, rec.LastModified)
	assert.Equal(t, []string{"b1"}, liveIDs(t, w))

	_, err = w.Edit(page, func(s *editor.Session) error {
		_, err := s.Undo()
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, liveIDs(t, w))
}

func TestImportMedia(t *testing.T) {
	w := newTestWorkspace(t, nil)
	w.Config.Media.MaxImageWidth = 10

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	res, asset, err := w.ImportMedia(page, bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	assert.True(t, asset.Resized)
	assert.Equal(t, 10, asset.Width)

	s, err := w.Session(page)
	require.NoError(t, err)
	b, err := s.Block(res.BlockID)
	require.NoError(t, err)
	assert.Equal(t, models.BlockImage, b.Type)
	assert.Contains(t, b.Content, "data:image/png;base64,")
}

func TestExport(t *testing.T) {
	w := newTestWorkspace(t, nil)
	mustApply(t, w, editor.Insert{Type: models.BlockHeading, Position: editor.AtEnd})

	out, err := w.Export(page, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, out, `data-block-type="heading"`)

	md, err := w.Export(page, FormatMarkdown)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "#"), md)

	doc, err := w.Export(page, FormatPage)
	require.NoError(t, err)
	assert.Contains(t, doc, "<!DOCTYPE html>")
	assert.Contains(t, doc, `lang="ru"`)

	_, err = w.Export(page, "pdf")
	assert.Error(t, err)
}

func publishConfig(apiURL string) *config.Config {
	cfg := config.Default()
	cfg.Remote.APIURL = apiURL
	cfg.Remote.Owner = "me"
	cfg.Remote.Repo = "portfolio"
	cfg.Remote.PathPrefix = "site"
	return cfg
}

func TestPublish(t *testing.T) {
	gh := githubtest.NewServer("secret")
	defer gh.Close()
	w := newTestWorkspace(t, publishConfig(gh.URL))
	mustApply(t, w, editor.Insert{Type: models.BlockText, Position: editor.AtEnd})

	var phases []string
	res, err := w.Publish(context.Background(), page, PublishOptions{Credential: "secret", IncludeData: true},
		func(phase string, current, total int) { phases = append(phases, phase) })
	require.NoError(t, err)
	assert.True(t, res.Page.Created)
	assert.Equal(t, "site/index.html", res.Page.Path)
	assert.Len(t, res.Data, 3)
	assert.Contains(t, phases, "data")

	published, ok := gh.File("site/index.html")
	require.True(t, ok)
	assert.Contains(t, string(published), `data-block-id="b1"`)
	_, ok = gh.File("site/data/projects.json")
	assert.True(t, ok)

	// A second publish updates the file with its current sha.
	mustApply(t, w, editor.Insert{Type: models.BlockDivider, Position: editor.AtEnd})
	res, err = w.Publish(context.Background(), page, PublishOptions{Credential: "secret"}, nil)
	require.NoError(t, err)
	assert.False(t, res.Page.Created)
}

func TestPublish_MissingCredentialMakesNoCall(t *testing.T) {
	gh := githubtest.NewServer("secret")
	defer gh.Close()
	w := newTestWorkspace(t, publishConfig(gh.URL))
	mustApply(t, w, editor.Insert{Type: models.BlockText, Position: editor.AtEnd})

	_, err := w.Publish(context.Background(), page, PublishOptions{}, nil)
	assert.ErrorIs(t, err, persist.ErrMissingCredential)
	assert.Zero(t, gh.Puts())

	// The document is still saved locally.
	doc, _, err := w.Gateway.LoadLocal(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, doc.IDs())
}

func TestPublish_StoredCredential(t *testing.T) {
	gh := githubtest.NewServer("secret")
	defer gh.Close()
	w := newTestWorkspace(t, publishConfig(gh.URL))
	require.NoError(t, w.Gateway.SetCredential("secret"))

	_, err := w.Publish(context.Background(), page, PublishOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, gh.Puts())
}

func TestPublish_Rejected(t *testing.T) {
	gh := githubtest.NewServer("secret")
	defer gh.Close()
	w := newTestWorkspace(t, publishConfig(gh.URL))

	_, err := w.Publish(context.Background(), page, PublishOptions{Credential: "wrong"}, nil)
	assert.ErrorIs(t, err, github.ErrRemoteRejected)
}

func TestPublishDocument_NoRepository(t *testing.T) {
	w := newTestWorkspace(t, nil)

	_, err := w.PublishDocument(context.Background(), page, models.NewDocument(page), PublishOptions{Credential: "secret"}, nil)
	assert.ErrorContains(t, err, "no remote repository")
}
