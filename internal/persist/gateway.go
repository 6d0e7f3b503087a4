// Package persist saves documents to the local record store and publishes
// rendered pages to a GitHub repository.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kilupskalvis/folio/internal/github"
	"github.com/kilupskalvis/folio/internal/htmldoc"
	"github.com/kilupskalvis/folio/internal/models"
	"github.com/kilupskalvis/folio/internal/store"
	"golang.org/x/sync/errgroup"
)

// TokenEnvVar overrides the stored publishing credential.
const TokenEnvVar = "FOLIO_GITHUB_TOKEN"

var (
	ErrStorageWriteFailed = errors.New("storage write failed")
	ErrMalformedData      = errors.New("malformed persisted data")
	ErrNoSavedContent     = errors.New("no saved content")
	ErrMissingCredential  = errors.New("missing publishing credential")
)

// ClientFactory builds a contents client authenticated with token.
type ClientFactory func(token string) github.ContentsClient

// Gateway moves documents between the live session and durable storage.
type Gateway struct {
	store     store.Storage
	newClient ClientFactory
	logger    *slog.Logger
	now       func() time.Time
}

// NewGateway creates a gateway. newClient may be nil when publishing is not used.
func NewGateway(st store.Storage, newClient ClientFactory, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		store:     st,
		newClient: newClient,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SaveLocal renders doc and stores it as the page's saved content, stamped
// with the current time. A malformed existing site record is replaced.
func (g *Gateway) SaveLocal(pageID string, doc *models.Document) (*models.PageRecord, error) {
	htmlContent, err := htmldoc.Render(doc)
	if err != nil {
		return nil, err
	}
	rec := models.PageRecord{HTMLContent: htmlContent, LastModified: g.now()}

	err = g.store.Update(models.KeySiteContent, func(old []byte) ([]byte, error) {
		site := g.decodeSite(old)
		site.Pages[pageID] = rec
		return json.Marshal(site)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}

	g.logger.Debug("page saved", "page", pageID, "blocks", doc.Len(), "bytes", len(htmlContent))
	return &rec, nil
}

// decodeSite parses a site record, starting fresh when it is absent or malformed.
func (g *Gateway) decodeSite(data []byte) *models.SiteContent {
	site := &models.SiteContent{}
	if data != nil {
		if err := json.Unmarshal(data, site); err != nil {
			g.logger.Warn("replacing malformed site record", "key", models.KeySiteContent, "error", err)
			site = &models.SiteContent{}
		}
	}
	if site.Pages == nil {
		site.Pages = make(map[string]models.PageRecord)
	}
	return site
}

// LoadLocal returns the saved document of a page. Absent, malformed or
// unparsable content is reported as ErrNoSavedContent; malformed content
// is also logged and matches ErrMalformedData.
func (g *Gateway) LoadLocal(pageID string) (*models.Document, *models.PageRecord, error) {
	data, err := g.store.Get(models.KeySiteContent)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNoSavedContent
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read saved content: %w", err)
	}

	var site models.SiteContent
	if err := json.Unmarshal(data, &site); err != nil {
		g.logger.Warn("saved content is malformed", "key", models.KeySiteContent, "error", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrNoSavedContent, ErrMalformedData)
	}

	rec, ok := site.Pages[pageID]
	if !ok {
		return nil, nil, ErrNoSavedContent
	}

	doc, err := htmldoc.Parse(pageID, rec.HTMLContent)
	if err != nil {
		g.logger.Warn("saved page is malformed", "page", pageID, "error", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrNoSavedContent, ErrMalformedData)
	}
	return doc, &rec, nil
}

// PageSummary describes one saved page.
type PageSummary struct {
	PageID       string    `json:"page_id"`
	LastModified time.Time `json:"last_modified"`
	Bytes        int       `json:"bytes"`
}

// Pages lists the saved pages sorted by ID.
func (g *Gateway) Pages() ([]PageSummary, error) {
	data, err := g.store.Get(models.KeySiteContent)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var site models.SiteContent
	if err := json.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedData, err)
	}

	out := make([]PageSummary, 0, len(site.Pages))
	for id, rec := range site.Pages {
		out = append(out, PageSummary{PageID: id, LastModified: rec.LastModified, Bytes: len(rec.HTMLContent)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageID < out[j].PageID })
	return out, nil
}

// Credential returns the publishing token: the environment variable when set,
// otherwise the stored one. It returns ErrMissingCredential when neither exists.
func (g *Gateway) Credential() (string, error) {
	if tok := strings.TrimSpace(os.Getenv(TokenEnvVar)); tok != "" {
		return tok, nil
	}
	data, err := g.store.Get(models.KeyGitHubToken)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrMissingCredential
	}
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", ErrMissingCredential
	}
	return tok, nil
}

// SetCredential stores the publishing token.
func (g *Gateway) SetCredential(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingCredential
	}
	if err := g.store.Put(models.KeyGitHubToken, []byte(token)); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}
	return nil
}

// ClearCredential removes the stored publishing token.
func (g *Gateway) ClearCredential() error {
	return g.store.Delete(models.KeyGitHubToken)
}

// PublishRequest describes one page publish.
type PublishRequest struct {
	Credential string
	Path       string
	Message    string // defaults to "Update <path> via editor"
	Document   *models.Document
}

// PublishResult describes a completed publish.
type PublishResult struct {
	Path      string `json:"path"`
	Created   bool   `json:"created"`
	SHA       string `json:"sha"`
	CommitSHA string `json:"commit_sha"`
	URL       string `json:"url,omitempty"`
}

// DefaultMessage returns the commit message used when none is given.
func DefaultMessage(path string) string {
	return fmt.Sprintf("Update %s via editor", path)
}

// Publish renders the document and writes it to the repository with a
// read-modify-write: the file's sha is fetched and sent back with the new
// content. A stale sha fails with github.ErrRemoteConflict. Nothing is retried.
func (g *Gateway) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if strings.TrimSpace(req.Credential) == "" {
		return nil, ErrMissingCredential
	}
	if req.Document == nil {
		return nil, fmt.Errorf("publish %s: no document", req.Path)
	}
	htmlContent, err := htmldoc.Render(req.Document)
	if err != nil {
		return nil, err
	}
	return g.publishFile(ctx, g.client(req.Credential), req.Path, req.Message, []byte(htmlContent))
}

// DataFile is a JSON data file published alongside the pages.
type DataFile struct {
	Path    string
	Content []byte
}

// PublishData publishes data files concurrently, each with its own
// read-modify-write. The first failure cancels the rest and is returned.
func (g *Gateway) PublishData(ctx context.Context, credential string, files []DataFile) ([]PublishResult, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}
	client := g.client(credential)
	results := make([]PublishResult, len(files))

	eg, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		eg.Go(func() error {
			res, err := g.publishFile(ctx, client, f.Path, "", f.Content)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (g *Gateway) client(token string) github.ContentsClient {
	if g.newClient == nil {
		return github.NewHTTPClient(github.DefaultAPIURL, github.Repository{}, token)
	}
	return g.newClient(token)
}

func (g *Gateway) publishFile(ctx context.Context, client github.ContentsClient, path, message string, content []byte) (*PublishResult, error) {
	if message == "" {
		message = DefaultMessage(path)
	}

	var sha string
	info, err := client.GetFile(ctx, path)
	switch {
	case errors.Is(err, github.ErrFileNotFound):
	case err != nil:
		return nil, fmt.Errorf("publish %s: %w", path, err)
	default:
		sha = info.SHA
	}

	res, err := client.PutFile(ctx, github.PutFileRequest{
		Path:    path,
		Message: message,
		Content: content,
		SHA:     sha,
	})
	if err != nil {
		g.logger.Warn("publish failed", "path", path, "error", err)
		return nil, fmt.Errorf("publish %s: %w", path, err)
	}

	g.logger.Info("published", "path", path, "commit", res.CommitSHA, "created", sha == "")
	return &PublishResult{
		Path:      path,
		Created:   sha == "",
		SHA:       res.SHA,
		CommitSHA: res.CommitSHA,
		URL:       res.HTMLURL,
	}, nil
}
