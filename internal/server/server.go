// Package server implements the folio-server HTTP API: the page editor
// endpoints, the public catalog feed and live page events.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sync"

	"github.com/go-chi/cors"
	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/catalog"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/kilupskalvis/folio/internal/editor"
	"github.com/kilupskalvis/folio/internal/github"
	"github.com/kilupskalvis/folio/internal/htmldoc"
	"github.com/kilupskalvis/folio/internal/media"
	"github.com/kilupskalvis/folio/internal/persist"
)

// Config holds configurable limits for the server.
type Config struct {
	AdminPasswordHash string // bcrypt hash of the owner password
	AllowedOrigins    []string
	WebhookURLs       []string
	MaxRequestBody    int64 // bytes, for JSON endpoints
	RequestsPerMinute int   // per-client limit on public writes
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() *Config {
	return &Config{
		AllowedOrigins:    []string{"*"},
		MaxRequestBody:    1 << 20,
		RequestsPerMinute: 30,
	}
}

// Server serves one workspace. Each page has a single live session; requests
// on the same page are serialized.
type Server struct {
	ws       *core.Workspace
	cfg      *Config
	logger   *slog.Logger
	hub      *Hub
	webhooks *WebhookNotifier
	rl       *rateLimiter

	mu    sync.Mutex
	pages map[string]*page
}

type page struct {
	mu      sync.Mutex
	session *editor.Session
}

// New creates a server for ws.
func New(ws *core.Workspace, cfg *Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ws:       ws,
		cfg:      cfg,
		logger:   logger,
		hub:      NewHub(logger),
		webhooks: NewWebhookNotifier(cfg.WebhookURLs, logger),
		rl:       newRateLimiter(cfg.RequestsPerMinute),
		pages:    make(map[string]*page),
	}
}

// Close stops background work and disconnects watchers.
func (s *Server) Close() {
	s.rl.Stop()
	s.hub.Close()
}

// Hub returns the event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	owner := newOwnerAuth(s.cfg.AdminPasswordHash)
	withOwner := func(h http.HandlerFunc) http.Handler {
		return applyMiddleware(h, owner.middleware)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		return applyMiddleware(h, s.rl.middleware)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /api/v1/blocks", s.handleBlocks)

	// Pages
	mux.HandleFunc("GET /api/v1/pages", s.handleListPages)
	mux.HandleFunc("GET /api/v1/pages/{page}/document", s.withPageID(s.handleGetDocument))
	mux.HandleFunc("GET /api/v1/pages/{page}/html", s.withPageID(s.handleExport))
	mux.HandleFunc("GET /api/v1/pages/{page}/panel", s.withPageID(s.handleGetPanel))
	mux.Handle("POST /api/v1/pages/{page}/commands", withOwner(s.withPageID(s.handleCommand)))
	mux.Handle("POST /api/v1/pages/{page}/undo", withOwner(s.withPageID(s.handleUndo)))
	mux.Handle("POST /api/v1/pages/{page}/redo", withOwner(s.withPageID(s.handleRedo)))
	mux.Handle("POST /api/v1/pages/{page}/media", withOwner(s.withPageID(s.handleMedia)))
	mux.Handle("POST /api/v1/pages/{page}/save", withOwner(s.withPageID(s.handleSave)))
	mux.Handle("POST /api/v1/pages/{page}/restore", withOwner(s.withPageID(s.handleRestore)))
	mux.Handle("POST /api/v1/pages/{page}/publish", withOwner(s.withPageID(s.handlePublish)))
	mux.HandleFunc("GET /ws/pages/{page}", s.withPageID(s.handleWatch))

	// Catalog
	mux.HandleFunc("GET /api/v1/catalog/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/v1/catalog/projects/{id}", s.handleGetProject)
	mux.Handle("POST /api/v1/catalog/projects/{id}/view", limited(s.handleViewProject))
	mux.HandleFunc("GET /api/v1/catalog/categories", s.handleCategories)
	mux.HandleFunc("GET /api/v1/catalog/achievements", s.handleListAchievements)
	mux.HandleFunc("GET /api/v1/catalog/faqs", s.handleListFAQs)
	mux.Handle("POST /api/v1/catalog/projects", withOwner(s.handleAddProject))
	mux.Handle("DELETE /api/v1/catalog/projects/{id}", withOwner(s.handleDeleteProject))
	mux.Handle("POST /api/v1/catalog/achievements", withOwner(s.handleAddAchievement))
	mux.Handle("DELETE /api/v1/catalog/achievements/{id}", withOwner(s.handleDeleteAchievement))
	mux.Handle("POST /api/v1/catalog/faqs", withOwner(s.handleAddFAQ))
	mux.Handle("DELETE /api/v1/catalog/faqs/{id}", withOwner(s.handleDeleteFAQ))

	// Contact messages, analytics and preferences
	mux.Handle("POST /api/v1/messages", limited(s.handleSubmitMessage))
	mux.Handle("GET /api/v1/messages", withOwner(s.handleListMessages))
	mux.Handle("POST /api/v1/messages/{id}/read", withOwner(s.handleMarkRead))
	mux.Handle("GET /api/v1/analytics", withOwner(s.handleAnalytics))
	mux.HandleFunc("GET /api/v1/preferences", s.handleGetPreferences)
	mux.Handle("PUT /api/v1/preferences", withOwner(s.handleSetPreferences))

	return applyMiddleware(mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		requestIDMiddleware,
		cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}),
	)
}

// applyMiddleware applies middleware in reverse order so the first in the list runs first.
func applyMiddleware(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

var pageIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

type pageHandlerFunc func(w http.ResponseWriter, r *http.Request, pageID string)

// withPageID validates the {page} path value.
func (s *Server) withPageID(fn pageHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageID := r.PathValue("page")
		if !pageIDPattern.MatchString(pageID) {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid page id %q", pageID))
			return
		}
		fn(w, r, pageID)
	}
}

func (s *Server) page(pageID string) *page {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[pageID]
	if !ok {
		p = &page{}
		s.pages[pageID] = p
	}
	return p
}

// view runs fn with the page's session locked.
func (s *Server) view(pageID string, fn func(sess *editor.Session) error) error {
	p := s.page(pageID)
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, err := s.loadSession(p, pageID)
	if err != nil {
		return err
	}
	return fn(sess)
}

// edit runs fn like view and persists the session when fn succeeds. When the
// session cannot be stored the cached copy is dropped, so the next request
// resumes from the stored state instead of the unsaved change.
func (s *Server) edit(pageID string, fn func(sess *editor.Session) error) error {
	p := s.page(pageID)
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, err := s.loadSession(p, pageID)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	if err := s.ws.SaveSession(sess); err != nil {
		p.session = nil
		return err
	}
	return nil
}

// loadSession returns the cached session of p, resuming it from the store
// on first use. p.mu must be held.
func (s *Server) loadSession(p *page, pageID string) (*editor.Session, error) {
	if p.session == nil {
		sess, err := s.ws.Session(pageID)
		if err != nil {
			return nil, err
		}
		p.session = sess
	}
	return p.session, nil
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// --- Errors ---

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{core.ErrInvalidCommand, http.StatusBadRequest, "invalid_command"},
	{editor.ErrBlockNotFound, http.StatusNotFound, "block_not_found"},
	{catalog.ErrNotFound, http.StatusNotFound, "not_found"},
	{persist.ErrNoSavedContent, http.StatusNotFound, "no_saved_content"},
	{blocks.ErrUnsupportedBlockType, http.StatusBadRequest, "unsupported_block_type"},
	{editor.ErrInvalidPropertyValue, http.StatusBadRequest, "invalid_property_value"},
	{editor.ErrUnknownProperty, http.StatusBadRequest, "unknown_property"},
	{editor.ErrNoSelection, http.StatusConflict, "no_selection"},
	{editor.ErrNotEditable, http.StatusBadRequest, "not_editable"},
	{htmldoc.ErrNoImage, http.StatusBadRequest, "not_editable"},
	{catalog.ErrInvalid, http.StatusBadRequest, "invalid"},
	{media.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, "unsupported_media"},
	{media.ErrTooLarge, http.StatusRequestEntityTooLarge, "too_large"},
	{persist.ErrMissingCredential, http.StatusPreconditionFailed, "missing_credential"},
	{github.ErrRemoteConflict, http.StatusConflict, "remote_conflict"},
	{github.ErrRemoteRejected, http.StatusBadGateway, "remote_rejected"},
	{persist.ErrStorageWriteFailed, http.StatusInsufficientStorage, "storage_write_failed"},
}

// writeErr maps a domain error to its status and code.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.code, err.Error())
			return
		}
	}
	reqID, _ := r.Context().Value(contextKeyRequestID).(string)
	s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", reqID)
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func readJSON(r *http.Request, maxSize int64, v interface{}) error {
	limited := io.LimitReader(r.Body, maxSize)
	if err := json.NewDecoder(limited).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
