package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kilupskalvis/folio/internal/blocks"
	"github.com/kilupskalvis/folio/internal/config"
	"github.com/kilupskalvis/folio/internal/core"
	"github.com/kilupskalvis/folio/internal/github/githubtest"
	"github.com/kilupskalvis/folio/internal/persist"
	"github.com/kilupskalvis/folio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const ownerPassword = "hunter22"

type testEnv struct {
	srv *Server
	ts  *httptest.Server
	ws  *core.Workspace
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	t.Setenv(persist.TokenEnvVar, "")
	if cfg == nil {
		cfg = config.Default()
	}
	st, err := store.Open("bbolt", filepath.Join(t.TempDir(), "folio.db"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ws := core.NewWorkspace(cfg, st, logger)
	n := 0
	ws.Registry = &blocks.Registry{NewID: func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}}

	hash, err := bcrypt.GenerateFromPassword([]byte(ownerPassword), bcrypt.MinCost)
	require.NoError(t, err)
	scfg := DefaultConfig()
	scfg.AdminPasswordHash = string(hash)

	srv := New(ws, scfg, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &testEnv{srv: srv, ts: ts, ws: ws}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, auth bool) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+ownerPassword)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) command(t *testing.T, req core.CommandRequest) pageState {
	t.Helper()
	resp := e.do(t, "POST", "/api/v1/pages/index.html/commands", req, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[pageState](t, resp)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t, nil)
	resp := e.do(t, "GET", "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestBlocks_Search(t *testing.T) {
	e := newTestEnv(t, nil)
	resp := e.do(t, "GET", "/api/v1/blocks?q=head", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	specs := decode[[]blocks.Spec](t, resp)
	require.Len(t, specs, 1)
	assert.Equal(t, "heading", string(specs[0].Type))
}

func TestWriteEndpoints_RequireOwner(t *testing.T) {
	e := newTestEnv(t, nil)

	resp := e.do(t, "POST", "/api/v1/pages/index.html/commands", core.CommandRequest{Op: "insert", Type: "text"}, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest("POST", e.ts.URL+"/api/v1/pages/index.html/undo", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
	body := decode[map[string]string](t, resp2)
	assert.Equal(t, "auth_failed", body["error"])

	// Reads stay public.
	resp = e.do(t, "GET", "/api/v1/pages/index.html/document", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// failingStore rejects writes while fail is set.
type failingStore struct {
	store.Storage
	fail atomic.Bool
}

func (f *failingStore) Put(key string, value []byte) error {
	if f.fail.Load() {
		return store.ErrQuotaExceeded
	}
	return f.Storage.Put(key, value)
}

func TestCommands_UnsavedEditIsDropped(t *testing.T) {
	e := newTestEnv(t, nil)
	fs := &failingStore{Storage: e.ws.Store}
	e.ws.Store = fs

	e.command(t, core.CommandRequest{Op: "insert", Type: "text"})

	fs.fail.Store(true)
	resp := e.do(t, "POST", "/api/v1/pages/index.html/commands", core.CommandRequest{Op: "insert", Type: "heading"}, true)
	assert.Equal(t, http.StatusInsufficientStorage, resp.StatusCode)
	assert.Equal(t, "storage_write_failed", decode[map[string]string](t, resp)["error"])
	fs.fail.Store(false)

	resp = e.do(t, "GET", "/api/v1/pages/index.html/document", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[pageState](t, resp)
	assert.Equal(t, []string{"b1"}, state.Document.IDs())
}

func TestCommands_HeadingTextScenario(t *testing.T) {
	e := newTestEnv(t, nil)

	e.command(t, core.CommandRequest{Op: "insert", Type: "heading"})
	state := e.command(t, core.CommandRequest{Op: "insert", Type: "text"})
	assert.Equal(t, "b2", state.Selected)
	state = e.command(t, core.CommandRequest{Op: "move_up", BlockID: "b2"})
	assert.Equal(t, []string{"b2", "b1"}, state.Document.IDs())

	for _, want := range [][]string{{"b1", "b2"}, {"b1"}, {}} {
		resp := e.do(t, "POST", "/api/v1/pages/index.html/undo", nil, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		state = decode[pageState](t, resp)
		assert.Equal(t, want, state.Document.IDs())
	}
	assert.False(t, state.CanUndo)
	assert.True(t, state.CanRedo)

	resp := e.do(t, "POST", "/api/v1/pages/index.html/undo", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[pageState](t, resp).Result.Changed)
}

func TestCommands_Errors(t *testing.T) {
	e := newTestEnv(t, nil)
	e.command(t, core.CommandRequest{Op: "insert", Type: "text"})

	tests := []struct {
		name   string
		req    core.CommandRequest
		status int
		code   string
	}{
		{"unsupported type", core.CommandRequest{Op: "insert", Type: "marquee"}, http.StatusBadRequest, "unsupported_block_type"},
		{"invalid value", core.CommandRequest{Op: "set_property", BlockID: "b1", Property: "textColor", Value: "blurple"}, http.StatusBadRequest, "invalid_property_value"},
		{"missing block", core.CommandRequest{Op: "delete", BlockID: "nope"}, http.StatusNotFound, "block_not_found"},
		{"unknown op", core.CommandRequest{Op: "shuffle"}, http.StatusBadRequest, "invalid_command"},
		{"position out of range", core.CommandRequest{Op: "insert", Type: "divider", Position: intPtr(99)}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.do(t, "POST", "/api/v1/pages/index.html/commands", tt.req, true)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.code != "" {
				assert.Equal(t, tt.code, decode[map[string]string](t, resp)["error"])
			}
		})
	}
}

func TestPanel(t *testing.T) {
	e := newTestEnv(t, nil)
	e.command(t, core.CommandRequest{Op: "insert", Type: "text"})
	e.command(t, core.CommandRequest{Op: "set_property", Property: "width", Value: "50%"})

	resp := e.do(t, "GET", "/api/v1/pages/index.html/panel", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var panel struct {
		BlockID string `json:"block_id"`
		Fields  []struct {
			Property string `json:"property"`
			Value    string `json:"value"`
		} `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&panel))
	assert.Equal(t, "b1", panel.BlockID)
	values := map[string]string{}
	for _, f := range panel.Fields {
		values[f.Property] = f.Value
	}
	assert.Equal(t, "50%", values["width"])
	assert.Equal(t, "block-text", values["class"])
}

func TestSaveRestoreAndExport(t *testing.T) {
	e := newTestEnv(t, nil)

	resp := e.do(t, "POST", "/api/v1/pages/index.html/restore", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	e.command(t, core.CommandRequest{Op: "insert", Type: "heading"})
	resp = e.do(t, "POST", "/api/v1/pages/index.html/save", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	e.command(t, core.CommandRequest{Op: "insert", Type: "text"})

	resp = e.do(t, "POST", "/api/v1/pages/index.html/restore", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"b1"}, decode[pageState](t, resp).Document.IDs())

	resp = e.do(t, "GET", "/api/v1/pages/index.html/html?format=markdown", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	md, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(md), "## Heading")

	resp = e.do(t, "GET", "/api/v1/pages/index.html/html?format=pdf", nil, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, "GET", "/api/v1/pages", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pages := decode[[]persist.PageSummary](t, resp)
	require.Len(t, pages, 1)
	assert.Equal(t, "index.html", pages[0].PageID)
}

func TestInvalidPageID(t *testing.T) {
	e := newTestEnv(t, nil)
	resp := e.do(t, "GET", "/api/v1/pages/..hidden/document", nil, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMediaUpload(t *testing.T) {
	e := newTestEnv(t, nil)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "dot.png")
	require.NoError(t, err)
	fw.Write(img.Bytes())
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest("POST", e.ts.URL+"/api/v1/pages/index.html/media", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ownerPassword)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[mediaResponse](t, resp)
	assert.Equal(t, "image/png", got.MIME)
	require.Equal(t, 1, got.Document.Len())
	assert.Equal(t, "image", string(got.Document.Blocks[0].Type))
	assert.Equal(t, "b1", got.Selected)
}

func TestPublish(t *testing.T) {
	gh := githubtest.NewServer("secret")
	defer gh.Close()

	var hooks = make(chan WebhookEvent, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev WebhookEvent
		json.NewDecoder(r.Body).Decode(&ev)
		hooks <- ev
	}))
	defer hook.Close()

	cfg := config.Default()
	cfg.Remote.APIURL = gh.URL
	cfg.Remote.Owner = "me"
	cfg.Remote.Repo = "site"
	e := newTestEnv(t, cfg)
	e.srv.webhooks = NewWebhookNotifier([]string{hook.URL}, e.srv.logger)

	e.command(t, core.CommandRequest{Op: "insert", Type: "text"})

	resp := e.do(t, "POST", "/api/v1/pages/index.html/publish", nil, true)
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	assert.Equal(t, "missing_credential", decode[map[string]string](t, resp)["error"])
	assert.Zero(t, gh.Puts())

	require.NoError(t, e.ws.Gateway.SetCredential("secret"))
	resp = e.do(t, "POST", "/api/v1/pages/index.html/publish", map[string]any{"message": "Ship it"}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[core.PublishResult](t, resp)
	assert.Equal(t, "index.html", res.Page.Path)
	assert.True(t, res.Page.Created)

	select {
	case ev := <-hooks:
		assert.Equal(t, "publish", ev.Event)
		assert.Equal(t, "index.html", ev.Page)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not delivered")
	}

	// The sha is read right before each write, so a remote edit made
	// between publishes is overwritten rather than conflicting.
	gh.SetFile("index.html", []byte("<p>edited elsewhere</p>"))
	e.srv.webhooks = nil
	resp = e.do(t, "POST", "/api/v1/pages/index.html/publish", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[core.PublishResult](t, resp).Page.Created)
	assert.Equal(t, 2, gh.Puts())
}

func intPtr(v int) *int { return &v }

func TestCatalogEndpoints(t *testing.T) {
	e := newTestEnv(t, nil)

	resp := e.do(t, "GET", "/api/v1/catalog/projects?category=frontend", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 2, page.Total)

	resp = e.do(t, "GET", "/api/v1/catalog/projects?limit=x", nil, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, "GET", "/api/v1/catalog/projects/42", nil, false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, "POST", "/api/v1/catalog/faqs", map[string]string{"question": "Rates?", "answer": "Ask"}, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = e.do(t, "POST", "/api/v1/catalog/faqs", map[string]string{"question": "Rates?", "answer": "Ask"}, true)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, "GET", "/api/v1/catalog/faqs", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]string](t, resp), 4)
}

func TestMessagesAndPreferences(t *testing.T) {
	e := newTestEnv(t, nil)

	resp := e.do(t, "POST", "/api/v1/messages", map[string]string{"name": "Ann", "email": "bad", "message": "Hello there, friend"}, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, "POST", "/api/v1/messages", map[string]string{"name": "Ann", "email": "ann@example.com", "message": "Hello there, friend"}, false)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, "GET", "/api/v1/messages", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, resp), 1)

	resp = e.do(t, "PUT", "/api/v1/preferences", map[string]string{"theme": "dark", "language": "en"}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, "GET", "/api/v1/preferences", nil, false)
	assert.Equal(t, "dark", decode[map[string]string](t, resp)["theme"])
}

func TestRateLimit_PublicWrites(t *testing.T) {
	e := newTestEnv(t, nil)
	e.srv.rl.limit = 2

	msg := map[string]string{"name": "Ann", "email": "ann@example.com", "message": "Hello there, friend"}
	for i := 0; i < 2; i++ {
		resp := e.do(t, "POST", "/api/v1/messages", msg, false)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp := e.do(t, "POST", "/api/v1/messages", msg, false)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestWatch_StreamsDocumentEvents(t *testing.T) {
	e := newTestEnv(t, nil)

	wsURL := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws/pages/index.html"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return e.srv.Hub().Watchers("index.html") == 1 }, 2*time.Second, 10*time.Millisecond)

	e.command(t, core.CommandRequest{Op: "insert", Type: "button"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventDocumentChanged, ev.Type)
	assert.Equal(t, "insert", ev.Command)
	assert.Equal(t, "b1", ev.BlockID)
	assert.Equal(t, 1, ev.Blocks)
}
