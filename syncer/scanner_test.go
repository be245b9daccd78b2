package syncer

import (
	"context"
	"espansync/remote"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSnippetFile(t *testing.T) {
	assert.True(t, IsSnippetFile("base.yml"))
	assert.True(t, IsSnippetFile("default.yaml"))
	assert.False(t, IsSnippetFile("readme.md"))
	assert.False(t, IsSnippetFile("notes.txt"))
	assert.False(t, IsSnippetFile("yml"))
}

func TestScanLocalFiltersAndKeys(t *testing.T) {
	root := t.TempDir()
	writeLocal(t, root, "config/default.yml", "cfg", now)
	writeLocal(t, root, "match/base.yml", "base", now)
	writeLocal(t, root, "match/extra.yaml", "extra", now)
	writeLocal(t, root, "match/notes.txt", "ignored", now)
	// Only the two snippet directories are scanned, and only one
	// level deep.
	writeLocal(t, root, "stray.yml", "ignored", now)
	writeLocal(t, root, "match/sub/deep.yml", "ignored", now)

	s := NewScanner(root, remote.NewMemory())
	files, err := s.ScanLocal()

	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "cfg", files["config/default.yml"].Content)
	assert.Equal(t, "base", files["match/base.yml"].Content)
	assert.Equal(t, "extra", files["match/extra.yaml"].Content)
	assert.True(t, files["match/base.yml"].Modified.Equal(now))
}

func TestScanLocalMissingDirsAreSkipped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "match"), 0755))
	writeLocal(t, root, "match/base.yml", "base", now)

	s := NewScanner(root, remote.NewMemory())
	files, err := s.ScanLocal()

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files, "match/base.yml")
}

func TestScanLocalEmptyRoot(t *testing.T) {
	s := NewScanner(t.TempDir(), remote.NewMemory())
	files, err := s.ScanLocal()

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScanRemote(t *testing.T) {
	store := remote.NewMemory()
	store.Seed("config/default.yml", "cfg", now)
	store.Seed("match/base.yml", "base", now.Add(-time.Hour))
	store.Seed("match/readme.md", "ignored", now)

	s := NewScanner(t.TempDir(), store)
	files, err := s.ScanRemote(context.Background())

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "cfg", files["config/default.yml"].Content)
	assert.Equal(t, "base", files["match/base.yml"].Content)
	assert.True(t, files["match/base.yml"].Modified.Equal(now.Add(-time.Hour)))
}

func TestScanRemoteListFailure(t *testing.T) {
	store := remote.NewMemory()
	store.FailList = "match"

	s := NewScanner(t.TempDir(), store)
	_, err := s.ScanRemote(context.Background())

	assert.Error(t, err)
}
