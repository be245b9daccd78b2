package remote

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and dry runs. It keeps
// the same revision discipline as the hosted store: updates and
// deletes are rejected when the presented revision is stale.
type Memory struct {
	mu        sync.Mutex
	files     map[string]memoryFile
	revSeq    int
	Reachable bool

	// FailList, when set, makes List return an error for that dir.
	// Lets tests exercise whole-operation failure paths.
	FailList string
}

type memoryFile struct {
	content  string
	revision string
	modified time.Time
}

func NewMemory() *Memory {
	return &Memory{
		files:     make(map[string]memoryFile),
		Reachable: true,
	}
}

// Seed places a file without revision checks, for test setup.
func (m *Memory) Seed(path, content string, modified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.revSeq++
	m.files[path] = memoryFile{
		content:  content,
		revision: strconv.Itoa(m.revSeq),
		modified: modified,
	}
}

func (m *Memory) Get(_ context.Context, path string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[path]
	if !ok {
		return File{}, ErrNotFound
	}

	return File{Content: f.content, Revision: f.revision}, nil
}

func (m *Memory) Put(_ context.Context, path, content, _, revision string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.files[path]
	if exists && revision != existing.revision {
		return "", fmt.Errorf("stale revision for %s", path)
	}
	if !exists && revision != "" {
		return "", fmt.Errorf("unknown revision for %s", path)
	}

	m.revSeq++
	m.files[path] = memoryFile{
		content:  content,
		revision: strconv.Itoa(m.revSeq),
		modified: time.Now(),
	}

	return m.files[path].revision, nil
}

func (m *Memory) Delete(_ context.Context, path, _, revision string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.files[path]
	if !ok {
		return ErrNotFound
	}
	if revision != existing.revision {
		return fmt.Errorf("stale revision for %s", path)
	}

	delete(m.files, path)
	return nil
}

func (m *Memory) List(_ context.Context, dir string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailList != "" && m.FailList == dir {
		return nil, fmt.Errorf("list %s: store unavailable", dir)
	}

	prefix := strings.TrimSuffix(dir, "/") + "/"

	var entries []Entry
	for path := range m.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}

		rest := strings.TrimPrefix(path, prefix)
		if strings.Contains(rest, "/") {
			continue
		}

		entries = append(entries, Entry{Name: rest, Type: EntryFile})
	}

	return entries, nil
}

func (m *Memory) LastModified(_ context.Context, path string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.files[path]
	if !ok {
		return time.Time{}, nil
	}

	return f.modified, nil
}

func (m *Memory) TestConnection(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Reachable
}

// Len reports the number of stored files.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}
