package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const githubAPIBase = "https://api.github.com"

// GitHub talks to the contents API of a single repository. The file
// revision is the blob SHA; last-modified times come from the most
// recent commit touching the path.
type GitHub struct {
	repo    string
	branch  string
	baseURL string
	client  *http.Client
}

func NewGitHub(repo, branch, token string) *GitHub {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(context.Background(), src)
	client.Timeout = 30 * time.Second

	return &GitHub{
		repo:    repo,
		branch:  branch,
		baseURL: githubAPIBase,
		client:  client,
	}
}

// SetBaseURL points the adapter at a different API host. Used by tests
// and GitHub Enterprise installs.
func (g *GitHub) SetBaseURL(base string) {
	g.baseURL = strings.TrimSuffix(base, "/")
}

func (g *GitHub) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", g.baseURL, g.repo, path)
}

func (g *GitHub) Get(ctx context.Context, path string) (File, error) {
	u := g.contentsURL(path) + "?ref=" + url.QueryEscape(g.branch)

	var data struct {
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}

	status, err := g.doJSON(ctx, http.MethodGet, u, nil, &data)
	if err != nil {
		return File{}, fmt.Errorf("failed to get %s: %w", path, err)
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return File{}, ErrNotFound
	default:
		return File{}, fmt.Errorf("failed to get %s: status %d", path, status)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(data.Content, "\n", ""))
	if err != nil {
		return File{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return File{Content: string(raw), Revision: data.SHA}, nil
}

func (g *GitHub) Put(ctx context.Context, path, content, message, revision string) (string, error) {
	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  g.branch,
	}
	if revision != "" {
		body["sha"] = revision
	}

	var data struct {
		Content struct {
			SHA string `json:"sha"`
		} `json:"content"`
	}

	status, err := g.doJSON(ctx, http.MethodPut, g.contentsURL(path), body, &data)
	if err != nil {
		return "", fmt.Errorf("failed to put %s: %w", path, err)
	}

	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("failed to put %s: status %d", path, status)
	}

	return data.Content.SHA, nil
}

func (g *GitHub) Delete(ctx context.Context, path, message, revision string) error {
	body := map[string]string{
		"message": message,
		"sha":     revision,
		"branch":  g.branch,
	}

	status, err := g.doJSON(ctx, http.MethodDelete, g.contentsURL(path), body, nil)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}

	if status == http.StatusNotFound {
		return ErrNotFound
	}
	if status != http.StatusOK {
		return fmt.Errorf("failed to delete %s: status %d", path, status)
	}

	return nil
}

func (g *GitHub) List(ctx context.Context, dir string) ([]Entry, error) {
	u := g.contentsURL(dir) + "?ref=" + url.QueryEscape(g.branch)

	var data []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}

	status, err := g.doJSON(ctx, http.MethodGet, u, nil, &data)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	// An absent directory is an empty contribution, not an error.
	if status == http.StatusNotFound {
		return []Entry{}, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("failed to list %s: status %d", dir, status)
	}

	entries := make([]Entry, 0, len(data))
	for _, item := range data {
		entries = append(entries, Entry{Name: item.Name, Type: EntryType(item.Type)})
	}

	return entries, nil
}

func (g *GitHub) LastModified(ctx context.Context, path string) (time.Time, error) {
	u := fmt.Sprintf("%s/repos/%s/commits?path=%s&sha=%s&per_page=1",
		g.baseURL, g.repo, url.QueryEscape(path), url.QueryEscape(g.branch))

	var commits []struct {
		Commit struct {
			Committer struct {
				Date time.Time `json:"date"`
			} `json:"committer"`
		} `json:"commit"`
	}

	status, err := g.doJSON(ctx, http.MethodGet, u, nil, &commits)
	if err != nil || status != http.StatusOK || len(commits) == 0 {
		return time.Time{}, nil
	}

	return commits[0].Commit.Committer.Date, nil
}

func (g *GitHub) TestConnection(ctx context.Context) bool {
	u := fmt.Sprintf("%s/repos/%s", g.baseURL, g.repo)
	status, err := g.doJSON(ctx, http.MethodGet, u, nil, nil)
	return err == nil && status == http.StatusOK
}

// CreateRepository creates a private, auto-initialized repository for
// first-time setup. Not part of the Store contract.
func (g *GitHub) CreateRepository(ctx context.Context, name, description string) error {
	body := map[string]any{
		"name":        name,
		"description": description,
		"private":     true,
		"auto_init":   true,
	}

	status, err := g.doJSON(ctx, http.MethodPost, g.baseURL+"/user/repos", body, nil)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	if status != http.StatusCreated {
		return fmt.Errorf("failed to create repository: status %d", status)
	}

	return nil
}

func (g *GitHub) doJSON(ctx context.Context, method, u string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
