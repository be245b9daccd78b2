package syncer

import (
	"context"
	"espansync/logger"
	"espansync/model"
	"espansync/remote"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// SyncDirs are the two espanso subdirectories that participate in
// sync: global settings and snippet definitions.
var SyncDirs = []string{"config", "match"}

// RecognizedExts limits sync to espanso's text-config files.
var RecognizedExts = []string{".yml", ".yaml"}

func IsSnippetFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range RecognizedExts {
		if ext == e {
			return true
		}
	}

	return false
}

// Scanner snapshots the two replicas into path→record maps. Keys are
// slash-separated relative paths like "match/base.yml".
type Scanner struct {
	root  string
	store remote.Store
}

func NewScanner(root string, store remote.Store) *Scanner {
	return &Scanner{root: root, store: store}
}

func (s *Scanner) ScanLocal() (map[string]model.FileRecord, error) {
	files := make(map[string]model.FileRecord)

	for _, dir := range SyncDirs {
		dirPath := filepath.Join(s.root, dir)

		entries, err := os.ReadDir(dirPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to scan %s: %w", dirPath, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !IsSnippetFile(entry.Name()) {
				continue
			}

			fullPath := filepath.Join(dirPath, entry.Name())
			content, err := os.ReadFile(fullPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", fullPath, err)
			}

			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", fullPath, err)
			}

			relPath := dir + "/" + entry.Name()
			files[relPath] = model.FileRecord{
				Path:     relPath,
				Content:  string(content),
				Modified: info.ModTime(),
			}
		}
	}

	return files, nil
}

func (s *Scanner) ScanRemote(ctx context.Context) (map[string]model.FileRecord, error) {
	files := make(map[string]model.FileRecord)

	for _, dir := range SyncDirs {
		entries, err := s.store.List(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to list remote %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.Type != remote.EntryFile || !IsSnippetFile(entry.Name) {
				continue
			}

			relPath := dir + "/" + entry.Name
			f, err := s.store.Get(ctx, relPath)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch remote %s: %w", relPath, err)
			}

			// A failed commit lookup leaves the timestamp zero; the
			// file still participates with an unknown mtime.
			modified, err := s.store.LastModified(ctx, relPath)
			if err != nil {
				logger.Log.Debug("no last-modified for remote file",
					zap.String("path", relPath),
					zap.Error(err))
			}

			files[relPath] = model.FileRecord{
				Path:     relPath,
				Content:  f.Content,
				Modified: modified,
			}
		}
	}

	return files, nil
}
