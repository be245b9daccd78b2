// Package watcher surfaces local edits to the synced directories so
// the daemon can sync shortly after a snippet is saved instead of
// waiting for the next interval.
package watcher

import (
	"espansync/logger"
	"espansync/model"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Watcher struct {
	fw      *fsnotify.Watcher
	eventCh chan model.FileEvent
	doneCh  chan struct{}
}

func New(bufferSize int) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		fw:      fw,
		eventCh: make(chan model.FileEvent, bufferSize),
		doneCh:  make(chan struct{}),
	}, nil
}

// Watch registers the given directories and starts delivering events.
// Directories that do not exist yet are skipped; espanso creates them
// lazily and a later pull recreates them anyway.
func (w *Watcher) Watch(dirs ...string) error {
	watched := 0
	for _, dir := range dirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}

		if _, err := os.Stat(absDir); err != nil {
			logger.Log.Debug("skipping missing directory",
				zap.String("dir", absDir))
			continue
		}

		if err := w.fw.Add(absDir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", absDir, err)
		}

		logger.Log.Info("watching directory",
			zap.String("dir", absDir))
		watched++
	}

	if watched == 0 {
		logger.Log.Warn("no sync directories exist yet, local edits will not trigger sync")
	}

	go w.run()
	return nil
}

func (w *Watcher) run() {
	defer close(w.eventCh)

	for {
		select {
		case <-w.doneCh:
			logger.Log.Info("watcher stopping")
			return

		case fsEvent, ok := <-w.fw.Events:
			if !ok {
				return
			}

			eventType := toEventType(fsEvent.Op)
			if eventType == "" {
				continue
			}

			event := model.FileEvent{
				Type:      eventType,
				Path:      fsEvent.Name,
				Timestamp: time.Now(),
			}

			select {
			case w.eventCh <- event:
			default:
				logger.Log.Warn("event channel is full, dropping event",
					zap.String("path", fsEvent.Name))
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}

			logger.Log.Error("watcher error",
				zap.Error(err))
		}
	}
}

func (w *Watcher) Events() <-chan model.FileEvent {
	return w.eventCh
}

func (w *Watcher) Stop() {
	close(w.doneCh)
	_ = w.fw.Close()
}

func toEventType(op fsnotify.Op) model.EventType {
	switch {
	case op.Has(fsnotify.Create):
		return model.EventCreate
	case op.Has(fsnotify.Write):
		return model.EventWrite
	case op.Has(fsnotify.Remove):
		return model.EventRemove
	case op.Has(fsnotify.Rename):
		return model.EventRename
	default:
		return ""
	}
}
