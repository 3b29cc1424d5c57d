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
	"time"

	"willstech-admin/internal/metrics"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.github.com"
	acceptJSON     = "application/vnd.github.v3+json"
	acceptRaw      = "application/vnd.github.raw"
	apiVersion     = "2022-11-28"
	userAgent      = "willstech-admin"
)

// Target identifies the repository branch the admin commits to.
type Target struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
}

func (t Target) FullName() string {
	return t.Owner + "/" + t.Repo
}

// TreeURL is the browsable location of the branch on github.com.
func (t Target) TreeURL() string {
	return fmt.Sprintf("https://github.com/%s/tree/%s", t.FullName(), t.Branch)
}

type Options struct {
	BaseURL    string
	Token      string
	Target     Target
	Timeout    time.Duration
	RPS        float64
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	token   string
	target  Target
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	return &Client{
		baseURL: base,
		token:   opts.Token,
		target:  opts.Target,
		http:    hc,
		limiter: rate.NewLimiter(limit, 5),
	}
}

func (c *Client) Target() Target {
	return c.target
}

// --- Contents API types ---

// File is a decoded repository file.
type File struct {
	Path    string
	SHA     string
	Content []byte
}

type contentResponse struct {
	Type        string `json:"type"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int    `json:"size"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
}

type PutFileRequest struct {
	Path    string
	Content []byte
	SHA     string
	Message string
}

type putBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

// CommitResult describes the blob and commit produced by a write.
type CommitResult struct {
	ContentSHA string `json:"content_sha"`
	CommitSHA  string `json:"commit_sha"`
	CommitURL  string `json:"commit_url"`
}

type putResponse struct {
	Content struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
	} `json:"commit"`
}

type Repository struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Permissions   struct {
		Push bool `json:"push"`
	} `json:"permissions"`
}

type Branch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Access is the outcome of VerifyAccess.
type Access struct {
	Repository   string `json:"repository"`
	Branch       string `json:"branch"`
	BranchExists bool   `json:"branch_exists"`
	CanPush      bool   `json:"can_push"`
	URL          string `json:"url"`
}

// --- Helper Functions ---

func (c *Client) sendRequest(ctx context.Context, operation, method, path string, body interface{}, headers map[string]string) ([]byte, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Sentinel: ErrUnavailable, Operation: operation, Err: err}
	}

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", acceptJSON)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveGitHubRequest(operation, 0, time.Since(start))
		return nil, &APIError{Sentinel: ErrUnavailable, Operation: operation, Err: err}
	}
	defer resp.Body.Close()
	metrics.ObserveGitHubRequest(operation, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Sentinel: ErrUnavailable, Operation: operation, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 400 {
		return respBody, &APIError{
			Sentinel:  classify(resp.StatusCode, respBody),
			Operation: operation,
			Status:    resp.StatusCode,
			Body:      truncate(respBody),
		}
	}
	return respBody, nil
}

func (c *Client) repoPath() string {
	return "/repos/" + url.PathEscape(c.target.Owner) + "/" + url.PathEscape(c.target.Repo)
}

func contentsPath(filePath string) string {
	segments := strings.Split(strings.Trim(filePath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/contents/" + strings.Join(segments, "/")
}

// --- Contents Methods ---

// GetFile reads a file on the target branch.
func (c *Client) GetFile(ctx context.Context, filePath string) (*File, error) {
	path := c.repoPath() + contentsPath(filePath) + "?ref=" + url.QueryEscape(c.target.Branch)
	raw, err := c.sendRequest(ctx, "get_file", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var cr contentResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		// A JSON array means the path is a directory.
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "get_file", Err: err}
	}
	if cr.Type != "" && cr.Type != "file" {
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "get_file", Body: filePath + " is a " + cr.Type}
	}

	file := &File{Path: cr.Path, SHA: cr.SHA}
	switch cr.Encoding {
	case "base64":
		file.Content, err = decodeContent(cr.Content)
		if err != nil {
			return nil, &APIError{Sentinel: ErrBadResponse, Operation: "get_file", Err: err}
		}
	case "none", "":
		// Files above 1MB come back without inline content.
		if cr.Size > 0 || cr.Encoding == "none" {
			file.Content, err = c.sendRequest(ctx, "get_file_raw", http.MethodGet, path, nil, map[string]string{"Accept": acceptRaw})
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "get_file", Body: "unsupported encoding " + cr.Encoding}
	}
	return file, nil
}

func decodeContent(s string) ([]byte, error) {
	clean := strings.NewReplacer("\n", "", "\r", "").Replace(s)
	return base64.StdEncoding.DecodeString(clean)
}

// PutFile creates or replaces a file. An empty SHA creates the file.
func (c *Client) PutFile(ctx context.Context, r PutFileRequest) (*CommitResult, error) {
	body := putBody{
		Message: r.Message,
		Content: base64.StdEncoding.EncodeToString(r.Content),
		Branch:  c.target.Branch,
		SHA:     r.SHA,
	}
	raw, err := c.sendRequest(ctx, "put_file", http.MethodPut, c.repoPath()+contentsPath(r.Path), body, nil)
	if err != nil {
		return nil, err
	}

	var pr putResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "put_file", Err: err}
	}
	return &CommitResult{
		ContentSHA: pr.Content.SHA,
		CommitSHA:  pr.Commit.SHA,
		CommitURL:  pr.Commit.HTMLURL,
	}, nil
}

// --- Repository Methods ---

func (c *Client) GetRepository(ctx context.Context) (*Repository, error) {
	raw, err := c.sendRequest(ctx, "get_repository", http.MethodGet, c.repoPath(), nil, nil)
	if err != nil {
		return nil, err
	}
	var repo Repository
	if err := json.Unmarshal(raw, &repo); err != nil {
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "get_repository", Err: err}
	}
	return &repo, nil
}

func (c *Client) GetBranch(ctx context.Context) (*Branch, error) {
	path := c.repoPath() + "/branches/" + url.PathEscape(c.target.Branch)
	raw, err := c.sendRequest(ctx, "get_branch", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var b Branch
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, &APIError{Sentinel: ErrBadResponse, Operation: "get_branch", Err: err}
	}
	return &b, nil
}

// VerifyAccess checks the repository and branch concurrently. A missing branch
// is not an error; the caller decides whether to warn.
func (c *Client) VerifyAccess(ctx context.Context) (*Access, error) {
	access := &Access{
		Repository: c.target.FullName(),
		Branch:     c.target.Branch,
		URL:        c.target.TreeURL(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		repo, err := c.GetRepository(gctx)
		if err != nil {
			return fmt.Errorf("repository not found or no access: %w", err)
		}
		access.CanPush = repo.Permissions.Push
		return nil
	})
	g.Go(func() error {
		_, err := c.GetBranch(gctx)
		switch {
		case err == nil:
			access.BranchExists = true
		case errors.Is(err, ErrNotFound):
			access.BranchExists = false
		default:
			return fmt.Errorf("branch lookup failed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return access, nil
}
