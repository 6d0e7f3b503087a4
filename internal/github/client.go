// Package github talks to the GitHub repository contents API used to publish
// pages. Writes carry the file's current blob sha as a concurrency token and
// are never retried.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultAPIURL is the public GitHub API endpoint.
const DefaultAPIURL = "https://api.github.com"

var (
	// ErrFileNotFound is returned by GetFile when the path does not exist yet.
	ErrFileNotFound = errors.New("file not found")
	// ErrRemoteConflict means the sha sent with a write no longer matches the file.
	ErrRemoteConflict = errors.New("remote conflict")
	// ErrRemoteRejected means the host refused the request for any other reason.
	ErrRemoteRejected = errors.New("remote rejected")
)

// Repository identifies the target repository and branch.
type Repository struct {
	Owner  string
	Name   string
	Branch string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name + "@" + r.Branch
}

// FileInfo is the current state of a file in the repository.
type FileInfo struct {
	Path    string
	SHA     string
	Content []byte
}

// PutFileRequest writes a file. An empty SHA creates the file.
type PutFileRequest struct {
	Path    string
	Message string
	Content []byte
	SHA     string
}

// PutFileResult describes the written file and commit.
type PutFileResult struct {
	SHA       string `json:"sha"`
	CommitSHA string `json:"commit_sha"`
	HTMLURL   string `json:"html_url"`
}

// ContentsClient reads and writes repository files.
type ContentsClient interface {
	GetFile(ctx context.Context, path string) (*FileInfo, error)
	PutFile(ctx context.Context, req PutFileRequest) (*PutFileResult, error)
}

// HTTPClient implements ContentsClient over the GitHub REST API.
type HTTPClient struct {
	baseURL    string
	repo       Repository
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a client for repo authenticated with token.
func NewHTTPClient(baseURL string, repo Repository, token string) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		repo:       repo,
		token:      token,
		httpClient: &http.Client{},
	}
}

func (c *HTTPClient) contentsURL(path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(c.repo.Owner), url.PathEscape(c.repo.Name), strings.Join(segments, "/"))
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	return resp, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, url string, reqBody, respBody interface{}) error {
	var body io.Reader
	headers := map[string]string{}

	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		headers["Content-Type"] = "application/json"
	}

	resp, err := c.do(ctx, method, url, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

type contentResponse struct {
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFile fetches a file's sha and content on the configured branch.
func (c *HTTPClient) GetFile(ctx context.Context, path string) (*FileInfo, error) {
	u := c.contentsURL(path)
	if c.repo.Branch != "" {
		u += "?ref=" + url.QueryEscape(c.repo.Branch)
	}

	var resp contentResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		var rerr *RemoteError
		if errors.As(err, &rerr) && rerr.Status == http.StatusNotFound {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}

	info := &FileInfo{Path: resp.Path, SHA: resp.SHA}
	if resp.Encoding == "base64" {
		// The API wraps base64 content at 60 columns.
		data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("decode content of %s: %w", path, err)
		}
		info.Content = data
	} else {
		info.Content = []byte(resp.Content)
	}
	return info, nil
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// PutFile creates or replaces a file in a single commit.
func (c *HTTPClient) PutFile(ctx context.Context, req PutFileRequest) (*PutFileResult, error) {
	body := &putRequest{
		Message: req.Message,
		Content: base64.StdEncoding.EncodeToString(req.Content),
		Branch:  c.repo.Branch,
		SHA:     req.SHA,
	}
	var resp putResponse
	if err := c.doJSON(ctx, http.MethodPut, c.contentsURL(req.Path), body, &resp); err != nil {
		return nil, fmt.Errorf("put %s: %w", req.Path, err)
	}
	return &PutFileResult{
		SHA:       resp.Content.SHA,
		CommitSHA: resp.Commit.SHA,
		HTMLURL:   resp.Content.HTMLURL,
	}, nil
}

// RemoteError is an error response from the host.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("github error (%d): %s", e.Status, e.Message)
}

// Conflict reports whether the host rejected the write because of a stale sha.
func (e *RemoteError) Conflict() bool {
	switch e.Status {
	case http.StatusConflict, http.StatusPreconditionFailed:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(e.Message), "sha")
	}
	return false
}

// Unwrap classifies the error as ErrRemoteConflict or ErrRemoteRejected.
func (e *RemoteError) Unwrap() error {
	if e.Conflict() {
		return ErrRemoteConflict
	}
	return ErrRemoteRejected
}

type errorResponse struct {
	Message string `json:"message"`
}

func decodeError(resp *http.Response) error {
	var errResp errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Message == "" {
		return &RemoteError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	return &RemoteError{
		Status:  resp.StatusCode,
		Message: errResp.Message,
	}
}
