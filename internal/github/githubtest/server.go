// Package githubtest provides an in-memory GitHub contents API for tests.
package githubtest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Server is a fake contents API for one repository. Every file write is
// checked against the file's current sha like the real API does.
type Server struct {
	*httptest.Server
	Token string

	mu      sync.Mutex
	files   map[string][]byte
	commits int
	puts    int
}

// NewServer starts a fake API that accepts token as its only credential.
func NewServer(token string) *Server {
	s := &Server{Token: token, files: make(map[string][]byte)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// File returns the content of a file and whether it exists.
func (s *Server) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	return data, ok
}

// SetFile writes a file directly, as a concurrent editor would.
func (s *Server) SetFile(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = data
}

// Puts returns the number of write requests received.
func (s *Server) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// SHA returns the blob sha the fake reports for content.
func SHA(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+s.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}
	_, path, ok := strings.Cut(r.URL.Path, "/contents/")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		data, ok := s.files[path]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"path":     path,
			"sha":      SHA(data),
			"content":  base64.StdEncoding.EncodeToString(data),
			"encoding": "base64",
		})

	case http.MethodPut:
		s.puts++
		var req struct {
			Message string `json:"message"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
			return
		}
		old, exists := s.files[path]
		switch {
		case exists && req.SHA == "":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": `Invalid request. "sha" wasn't supplied.`})
			return
		case exists && req.SHA != SHA(old), !exists && req.SHA != "":
			writeJSON(w, http.StatusConflict, map[string]string{"message": path + " does not match " + req.SHA})
			return
		}
		data, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "content is not valid Base64"})
			return
		}
		s.files[path] = data
		s.commits++
		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		writeJSON(w, status, map[string]any{
			"content": map[string]string{"sha": SHA(data), "html_url": "https://github.test/blob/" + path},
			"commit":  map[string]string{"sha": SHA([]byte{byte(s.commits)})},
		})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Not Found"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
