// Package remote abstracts the hosted file store that holds the
// authoritative copy of the espanso configuration.
package remote

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound marks a lookup that legitimately missed. Callers treat
// it as "absent", not as a failure.
var ErrNotFound = errors.New("remote: file not found")

type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Entry is one name in a remote directory listing.
type Entry struct {
	Name string
	Type EntryType
}

// File is a fetched remote file. Revision is the opaque token the
// store requires to update or delete that file safely.
type File struct {
	Content  string
	Revision string
}

// Store is the capability interface over the remote file host.
//
// Put with an empty revision creates the file; a non-empty revision
// updates it and is rejected by the store if stale. List of an absent
// directory returns an empty slice. LastModified returns the zero
// time when the store cannot date the file.
type Store interface {
	Get(ctx context.Context, path string) (File, error)
	Put(ctx context.Context, path, content, message, revision string) (string, error)
	Delete(ctx context.Context, path, message, revision string) error
	List(ctx context.Context, dir string) ([]Entry, error)
	LastModified(ctx context.Context, path string) (time.Time, error)
	TestConnection(ctx context.Context) bool
}
