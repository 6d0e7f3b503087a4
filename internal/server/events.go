package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types streamed to page watchers.
const (
	EventDocumentChanged = "document.changed"
	EventPageSaved       = "page.saved"
	EventPagePublished   = "page.published"
)

// Event is one notification sent to the watchers of a page.
type Event struct {
	Type      string    `json:"type"`
	Page      string    `json:"page"`
	Command   string    `json:"command,omitempty"`
	BlockID   string    `json:"block_id,omitempty"`
	Blocks    int       `json:"blocks"`
	Timestamp time.Time `json:"timestamp"`
}

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type watcher struct {
	conn *websocket.Conn
	page string
	send chan []byte
}

// Hub fans page events out to websocket watchers.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*watcher]bool
	logger   *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{watchers: make(map[string]map[*watcher]bool), logger: logger}
}

// Publish sends ev to every watcher of its page. Slow watchers miss events
// rather than block the editor.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for w := range h.watchers[ev.Page] {
		select {
		case w.send <- msg:
		default:
			h.logger.Debug("dropping event for slow watcher", "page", ev.Page, "type", ev.Type)
		}
	}
}

// Watchers returns the number of connected watchers of a page.
func (h *Hub) Watchers(page string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[page])
}

func (h *Hub) register(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.watchers[w.page]; !ok {
		h.watchers[w.page] = make(map[*watcher]bool)
	}
	h.watchers[w.page][w] = true
}

func (h *Hub) unregister(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ws, ok := h.watchers[w.page]
	if !ok || !ws[w] {
		return
	}
	delete(ws, w)
	close(w.send)
	if len(ws) == 0 {
		delete(h.watchers, w.page)
	}
}

// Close disconnects every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for page, ws := range h.watchers {
		for w := range ws {
			close(w.send)
		}
		delete(h.watchers, page)
	}
}

// serve upgrades the request and streams the page's events until the
// client disconnects. Messages from the client are ignored.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, page string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "error", err)
		return
	}

	wt := &watcher{conn: conn, page: page, send: make(chan []byte, 16)}
	h.register(wt)
	h.logger.Debug("watcher connected", "page", page)

	go h.writeLoop(wt)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read", "error", err)
			}
			break
		}
	}
	h.unregister(wt)
	h.logger.Debug("watcher disconnected", "page", page)
}

func (h *Hub) writeLoop(w *watcher) {
	defer w.conn.Close()
	for msg := range w.send {
		w.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := w.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("websocket write", "error", err)
			return
		}
	}
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}
