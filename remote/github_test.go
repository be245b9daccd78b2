package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGitHub(handler http.HandlerFunc) (*GitHub, *httptest.Server) {
	srv := httptest.NewServer(handler)
	g := NewGitHub("owner/snippets", "main", "test-token")
	g.SetBaseURL(srv.URL)
	return g, srv
}

func TestGitHubGet(t *testing.T) {
	// The contents API wraps base64 at 60 columns; the decoder must
	// tolerate the embedded newlines.
	encoded := "bWF0Y2hlczoKICAtIHRyaWdn\nZXI6ICI6aGkiCg=="

	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/snippets/contents/match/base.yml", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"content": encoded,
			"sha":     "abc123",
		})
	})
	defer srv.Close()

	f, err := g.Get(context.Background(), "match/base.yml")
	require.NoError(t, err)
	assert.Equal(t, "matches:\n  - trigger: \":hi\"\n", f.Content)
	assert.Equal(t, "abc123", f.Revision)
}

func TestGitHubGetNotFound(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, err := g.Get(context.Background(), "match/missing.yml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGitHubPutCreate(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "add snippet", body["message"])
		assert.Equal(t, "main", body["branch"])
		assert.NotContains(t, body, "sha")

		raw, err := base64.StdEncoding.DecodeString(body["content"])
		require.NoError(t, err)
		assert.Equal(t, "hello", string(raw))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]string{"sha": "new-sha"},
		})
	})
	defer srv.Close()

	rev, err := g.Put(context.Background(), "match/base.yml", "hello", "add snippet", "")
	require.NoError(t, err)
	assert.Equal(t, "new-sha", rev)
}

func TestGitHubPutUpdateSendsRevision(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "old-sha", body["sha"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]string{"sha": "next-sha"},
		})
	})
	defer srv.Close()

	rev, err := g.Put(context.Background(), "match/base.yml", "hello", "update", "old-sha")
	require.NoError(t, err)
	assert.Equal(t, "next-sha", rev)
}

func TestGitHubPutConflictStatus(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	defer srv.Close()

	_, err := g.Put(context.Background(), "match/base.yml", "hello", "update", "stale")
	assert.ErrorContains(t, err, "status 409")
}

func TestGitHubDelete(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "doomed-sha", body["sha"])

		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	err := g.Delete(context.Background(), "match/base.yml", "remove", "doomed-sha")
	assert.NoError(t, err)
}

func TestGitHubDeleteMissing(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	err := g.Delete(context.Background(), "match/gone.yml", "remove", "sha")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGitHubList(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"name": "base.yml", "type": "file"},
			{"name": "packages", "type": "dir"},
		})
	})
	defer srv.Close()

	entries, err := g.List(context.Background(), "match")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Name: "base.yml", Type: EntryFile}, entries[0])
	assert.Equal(t, Entry{Name: "packages", Type: EntryDir}, entries[1])
}

func TestGitHubListMissingDirIsEmpty(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	entries, err := g.List(context.Background(), "config")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGitHubLastModified(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/snippets/commits", r.URL.Path)
		assert.Equal(t, "match/base.yml", r.URL.Query().Get("path"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))

		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"commit": map[string]any{
				"committer": map[string]any{"date": "2026-03-14T12:00:00Z"},
			}},
		})
	})
	defer srv.Close()

	got, err := g.LastModified(context.Background(), "match/base.yml")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)))
}

func TestGitHubLastModifiedUnknownOnFailure(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	defer srv.Close()

	got, err := g.LastModified(context.Background(), "match/base.yml")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestGitHubTestConnection(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/owner/snippets" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	assert.True(t, g.TestConnection(context.Background()))

	srv.Close()
	assert.False(t, g.TestConnection(context.Background()))
}

func TestGitHubCreateRepository(t *testing.T) {
	g, srv := newTestGitHub(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "snippets", body["name"])
		assert.Equal(t, true, body["private"])
		assert.Equal(t, true, body["auto_init"])

		w.WriteHeader(http.StatusCreated)
	})
	defer srv.Close()

	err := g.CreateRepository(context.Background(), "snippets", "espanso snippet backup")
	assert.NoError(t, err)
}
