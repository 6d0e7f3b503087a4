package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRepo = Repository{Owner: "alex", Name: "portfolio", Branch: "main"}

func TestGetFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/repos/alex/portfolio/contents/data/projects.json", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		enc := base64.StdEncoding.EncodeToString([]byte(`[{"id":"1"}]`))
		json.NewEncoder(w).Encode(map[string]string{
			"path": "data/projects.json", "sha": "abc123", "encoding": "base64",
			"content": enc[:4] + "\n" + enc[4:],
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, testRepo, "tok")
	info, err := c.GetFile(context.Background(), "data/projects.json")
	require.NoError(t, err)
	assert.Equal(t, "abc123", info.SHA)
	assert.Equal(t, `[{"id":"1"}]`, string(info.Content))
}

func TestGetFile_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, testRepo, "tok")
	_, err := c.GetFile(context.Background(), "about.html")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestPutFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/repos/alex/portfolio/contents/index.html", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body putRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Update index.html via editor", body.Message)
		assert.Equal(t, "main", body.Branch)
		assert.Equal(t, "old-sha", body.SHA)
		content, err := base64.StdEncoding.DecodeString(body.Content)
		require.NoError(t, err)
		assert.Equal(t, "<p>привет</p>", string(content))

		json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]string{"sha": "new-sha", "html_url": "https://github.com/alex/portfolio/blob/main/index.html"},
			"commit":  map[string]string{"sha": "commit-sha"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, testRepo, "tok")
	res, err := c.PutFile(context.Background(), PutFileRequest{
		Path: "index.html", Message: "Update index.html via editor",
		Content: []byte("<p>привет</p>"), SHA: "old-sha",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-sha", res.SHA)
	assert.Equal(t, "commit-sha", res.CommitSHA)
}

func TestPutFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    error
	}{
		{"conflict", http.StatusConflict, "index.html does not match abc", ErrRemoteConflict},
		{"missing sha", http.StatusUnprocessableEntity, `Invalid request. "sha" wasn't supplied.`, ErrRemoteConflict},
		{"unauthorized", http.StatusUnauthorized, "Bad credentials", ErrRemoteRejected},
		{"forbidden", http.StatusForbidden, "Resource not accessible", ErrRemoteRejected},
		{"validation", http.StatusUnprocessableEntity, "Invalid path", ErrRemoteRejected},
		{"server", http.StatusBadGateway, "", ErrRemoteRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				if tt.message != "" {
					json.NewEncoder(w).Encode(map[string]string{"message": tt.message})
				}
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, testRepo, "tok")
			_, err := c.PutFile(context.Background(), PutFileRequest{Path: "index.html", Content: []byte("x")})

			assert.ErrorIs(t, err, tt.want)
			var rerr *RemoteError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.status, rerr.Status)
			if tt.message != "" {
				assert.Equal(t, tt.message, rerr.Message)
			}
			assert.Equal(t, int32(1), calls.Load(), "writes are never retried")
		})
	}
}

func TestContentsURL_EscapesSegments(t *testing.T) {
	c := NewHTTPClient("https://api.example.com/", testRepo, "")
	assert.Equal(t, "https://api.example.com/repos/alex/portfolio/contents/site/my%20page.html",
		c.contentsURL("/site/my page.html"))
}
