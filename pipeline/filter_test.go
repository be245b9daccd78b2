package pipeline

import (
	"espansync/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func collect(ch <-chan model.FileEvent) []string {
	var paths []string
	for event := range ch {
		paths = append(paths, event.Path)
	}
	return paths
}

func send(paths ...string) chan model.FileEvent {
	ch := make(chan model.FileEvent, len(paths))
	for _, p := range paths {
		ch <- model.FileEvent{Type: model.EventWrite, Path: p, Timestamp: time.Now()}
	}
	close(ch)
	return ch
}

func TestFilterKeepsSnippetFiles(t *testing.T) {
	in := send(
		"match/base.yml",
		"config/default.yaml",
		"match/notes.txt",
		"match/base.yml.swp",
	)

	out := Filter(in, []string{".yml", ".yaml"}, nil)
	assert.Equal(t, []string{"match/base.yml", "config/default.yaml"}, collect(out))
}

func TestFilterIgnoreList(t *testing.T) {
	in := send(
		"match/base.yml",
		"match/_private.yml",
		".git/config.yml",
	)

	out := Filter(in, []string{".yml"}, []string{"_*", ".git"})
	assert.Equal(t, []string{"match/base.yml"}, collect(out))
}

func TestFilterIgnoreMatchesAnyPathSegment(t *testing.T) {
	in := send("backup/match/base.yml")

	out := Filter(in, []string{".yml"}, []string{"backup"})
	assert.Empty(t, collect(out))
}
