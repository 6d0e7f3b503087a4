// Package core wires the editor, the local store, the publishing gateway and
// the catalog into the operations the CLI, the HTTP server and the MCP
// server share. Editing sessions are persisted after every change so a page
// can be edited across processes.
package core

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/catalog"
	"github.com/kilupskalvis/folio/internal/config"
	"github.com/kilupskalvis/folio/internal/editor"
	"github.com/kilupskalvis/folio/internal/github"
	"github.com/kilupskalvis/folio/internal/history"
	"github.com/kilupskalvis/folio/internal/media"
	"github.com/kilupskalvis/folio/internal/models"
	"github.com/kilupskalvis/folio/internal/persist"
	"github.com/kilupskalvis/folio/internal/store"
)

// Workspace is an opened .folio directory.
type Workspace struct {
	Config   *config.Config
	Store    store.Storage
	Gateway  *persist.Gateway
	Catalog  *catalog.Service
	Registry *blocks.Registry
	logger   *slog.Logger
}

// NewWorkspace builds a workspace on an opened store. Publishing targets the
// repository named in cfg.Remote.
func NewWorkspace(cfg *config.Config, st store.Storage, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	repo := github.Repository{Owner: cfg.Remote.Owner, Name: cfg.Remote.Repo, Branch: cfg.Remote.Branch}
	newClient := func(token string) github.ContentsClient {
		return github.NewHTTPClient(cfg.Remote.APIURL, repo, token)
	}
	return &Workspace{
		Config:   cfg,
		Store:    st,
		Gateway:  persist.NewGateway(st, newClient, logger),
		Catalog:  catalog.New(st, logger),
		Registry: &blocks.Registry{},
		logger:   logger,
	}
}

// Open opens the workspace in the nearest .folio directory.
func Open(logger *slog.Logger) (*Workspace, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.StorageBackend, cfg.DatabasePath(), store.Options{QuotaBytes: cfg.Storage.QuotaBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return NewWorkspace(cfg, st, logger), nil
}

// Close releases the store.
func (w *Workspace) Close() error {
	return w.Store.Close()
}

// Logger returns the workspace logger.
func (w *Workspace) Logger() *slog.Logger { return w.logger }

// EditorOptions returns the session options derived from the configuration.
func (w *Workspace) EditorOptions() editor.Options {
	return editor.Options{
		History: history.Options{
			MaxEntries: w.Config.History.MaxEntries,
			MaxBytes:   w.Config.History.MaxBytes,
		},
		Registry: w.Registry,
	}
}

// Session returns the editing session of a page. A persisted session is
// resumed; otherwise the saved page is loaded, and failing that the page
// starts empty.
func (w *Workspace) Session(pageID string) (*editor.Session, error) {
	var state models.EditorState
	err := store.GetJSON(w.Store, models.SessionKey(pageID), &state)
	switch {
	case err == nil:
		s, rerr := editor.Resume(&state, w.EditorOptions())
		if rerr == nil {
			return s, nil
		}
		w.logger.Warn("discarding unusable editing session", "page", pageID, "error", rerr)
	case errors.Is(err, store.ErrNotFound):
	default:
		w.logger.Warn("editing session is malformed, starting over", "page", pageID, "error", err)
	}

	doc, _, err := w.Gateway.LoadLocal(pageID)
	if err != nil && !errors.Is(err, persist.ErrNoSavedContent) {
		return nil, err
	}
	return editor.NewSession(pageID, doc, w.EditorOptions())
}

// SaveSession persists a session so the next Session call resumes it.
func (w *Workspace) SaveSession(s *editor.Session) error {
	if err := store.PutJSON(w.Store, models.SessionKey(s.PageID()), s.State()); err != nil {
		return fmt.Errorf("%w: %w", persist.ErrStorageWriteFailed, err)
	}
	return nil
}

// DiscardSession drops a page's persisted session, history included.
func (w *Workspace) DiscardSession(pageID string) error {
	return w.Store.Delete(models.SessionKey(pageID))
}

// Edit opens a page's session, runs fn and persists the session when fn
// succeeds.
func (w *Workspace) Edit(pageID string, fn func(s *editor.Session) error) (*editor.Session, error) {
	s, err := w.Session(pageID)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return s, err
	}
	return s, w.SaveSession(s)
}

// Apply dispatches one command to a page.
func (w *Workspace) Apply(pageID string, cmd editor.Command) (editor.Result, error) {
	var res editor.Result
	_, err := w.Edit(pageID, func(s *editor.Session) error {
		var err error
		res, err = s.Apply(cmd)
		return err
	})
	return res, err
}

// SavePage writes the live document of a page to its saved content.
func (w *Workspace) SavePage(pageID string) (*models.PageRecord, error) {
	s, err := w.Session(pageID)
	if err != nil {
		return nil, err
	}
	return w.Gateway.SaveLocal(pageID, s.Document())
}

// Restore replaces the live document with the saved content. The
// replacement is recorded in history and can be undone.
func (w *Workspace) Restore(pageID string) (editor.Result, *models.PageRecord, error) {
	doc, rec, err := w.Gateway.LoadLocal(pageID)
	if err != nil {
		return editor.Result{}, nil, err
	}
	res, err := w.Apply(pageID, editor.Replace{Document: doc})
	return res, rec, err
}

// ReadMedia reads an uploaded image or video within the configured limits.
func (w *Workspace) ReadMedia(r io.Reader) (*media.Asset, error) {
	return media.Import(r, media.Options{
		MaxBytes:      w.Config.Media.MaxUploadBytes,
		MaxImageWidth: w.Config.Media.MaxImageWidth,
	})
}

// PlaceMedia puts an imported asset on the session's page, replacing the
// image of blockID when one is given.
func PlaceMedia(s *editor.Session, asset *media.Asset, blockID string) (editor.Result, error) {
	return s.Apply(editor.ImportMedia{BlockID: blockID, Type: asset.BlockType, Source: asset.DataURL})
}

// ImportMedia reads an image or video and places it on a page.
func (w *Workspace) ImportMedia(pageID string, r io.Reader, blockID string) (editor.Result, *media.Asset, error) {
	asset, err := w.ReadMedia(r)
	if err != nil {
		return editor.Result{}, nil, err
	}
	res, err := w.Apply(pageID, editor.ImportMedia{BlockID: blockID, Type: asset.BlockType, Source: asset.DataURL})
	if err != nil {
		return res, nil, err
	}
	w.logger.Debug("media imported", "page", pageID, "mime", asset.MIME, "resized", asset.Resized)
	return res, asset, nil
}

// Pages lists the saved pages.
func (w *Workspace) Pages() ([]persist.PageSummary, error) {
	return w.Gateway.Pages()
}
