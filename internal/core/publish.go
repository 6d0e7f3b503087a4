package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilupskalvis/folio/internal/models"
	"github.com/kilupskalvis/folio/internal/persist"
)

// PublishOptions configures a publish operation.
type PublishOptions struct {
	Credential  string // empty uses the stored or environment token
	Message     string // empty uses persist.DefaultMessage
	IncludeData bool   // also publish the catalog data files
}

// PublishResult contains the outcome of a publish operation.
type PublishResult struct {
	Page  *persist.PublishResult  `json:"page"`
	Data  []persist.PublishResult `json:"data,omitempty"`
	Saved *models.PageRecord      `json:"saved"`
}

// PublishProgress is called during publish to report progress.
type PublishProgress func(phase string, current, total int)

// Publish saves the live document of a page locally and then publishes it.
func (w *Workspace) Publish(ctx context.Context, pageID string, opts PublishOptions, progress PublishProgress) (*PublishResult, error) {
	s, err := w.Session(pageID)
	if err != nil {
		return nil, err
	}
	return w.PublishDocument(ctx, pageID, s.Document(), opts, progress)
}

// PublishDocument saves doc as the page's content and writes it to the
// remote repository. A failed publish leaves the document saved locally. A
// stale remote version fails with github.ErrRemoteConflict and is not retried.
func (w *Workspace) PublishDocument(ctx context.Context, pageID string, doc *models.Document, opts PublishOptions, progress PublishProgress) (*PublishResult, error) {
	if progress == nil {
		progress = func(string, int, int) {}
	}

	cred := opts.Credential
	if cred == "" {
		var err error
		cred, err = w.Gateway.Credential()
		if err != nil && !errors.Is(err, persist.ErrMissingCredential) {
			return nil, err
		}
	}

	progress("saving", 0, 1)
	saved, err := w.Gateway.SaveLocal(pageID, doc)
	if err != nil {
		return nil, err
	}

	if w.Config.Remote.Owner == "" || w.Config.Remote.Repo == "" {
		if cred == "" {
			return nil, persist.ErrMissingCredential
		}
		return nil, fmt.Errorf("no remote repository configured (set remote.owner and remote.repo)")
	}

	progress("publishing", 0, 1)
	page, err := w.Gateway.Publish(ctx, persist.PublishRequest{
		Credential: cred,
		Path:       w.Config.RemotePath(pageID),
		Message:    opts.Message,
		Document:   doc,
	})
	if err != nil {
		return nil, err
	}
	result := &PublishResult{Page: page, Saved: saved}
	progress("publishing", 1, 1)

	if !opts.IncludeData {
		return result, nil
	}

	files, err := w.Catalog.DataFiles()
	if err != nil {
		return result, fmt.Errorf("collect data files: %w", err)
	}
	data := make([]persist.DataFile, len(files))
	for i, f := range files {
		data[i] = persist.DataFile{Path: w.Config.RemotePath(f.Path), Content: f.Content}
	}
	progress("data", 0, len(data))
	result.Data, err = w.Gateway.PublishData(ctx, cred, data)
	if err != nil {
		return result, err
	}
	progress("data", len(data), len(data))
	return result, nil
}
