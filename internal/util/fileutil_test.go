package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteCreatesParents(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "match", "base.yml")

	require.NoError(t, AtomicWrite(dst, strings.NewReader("content")))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
}

func TestAtomicWriteOverwrites(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "base.yml")
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	require.NoError(t, AtomicWrite(dst, strings.NewReader("new")))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestAtomicWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, AtomicWrite(filepath.Join(dir, "base.yml"), strings.NewReader("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "base.yml", entries[0].Name())
}

func TestRemoveIfExists(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "base.yml")

	// Absent file is not an error.
	require.NoError(t, RemoveIfExists(dst))

	require.NoError(t, os.WriteFile(dst, []byte("x"), 0644))
	require.NoError(t, RemoveIfExists(dst))

	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}
