// Package syncer reconciles the local espanso directory with the
// remote store: scan both sides, classify divergences, resolve, apply.
package syncer

import (
	"context"
	"errors"
	"espansync/conflict"
	"espansync/internal/util"
	"espansync/logger"
	"espansync/model"
	"espansync/remote"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSyncInProgress rejects a sync-family call while another one is
// running. Contention is not queued; the caller retries later.
var ErrSyncInProgress = errors.New("sync already in progress")

// ConflictHandler lets the caller decide escalated conflicts. Paths
// missing from the returned map fall back to the suggested resolution;
// the engine never blocks waiting for an answer.
type ConflictHandler func(unresolved []model.FileConflict) map[string]model.ConflictResolution

type Manager struct {
	root     string
	store    remote.Store
	scanner  *Scanner
	resolver *conflict.Resolver

	onConflict ConflictHandler

	mu        sync.Mutex
	isSyncing bool
	lastSync  time.Time
}

func NewManager(root string, store remote.Store, onConflict ConflictHandler) *Manager {
	return &Manager{
		root:       root,
		store:      store,
		scanner:    NewScanner(root, store),
		resolver:   conflict.NewResolver(),
		onConflict: onConflict,
	}
}

func (m *Manager) TestConnection(ctx context.Context) bool {
	return m.store.TestConnection(ctx)
}

func (m *Manager) IsSyncing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isSyncing
}

// LastSync returns the completion time of the last successful
// operation, or the zero time if none has succeeded yet.
func (m *Manager) LastSync() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSync
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isSyncing {
		return ErrSyncInProgress
	}

	m.isSyncing = true
	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	m.isSyncing = false
	m.mu.Unlock()
}

func (m *Manager) recordSync() {
	m.mu.Lock()
	m.lastSync = time.Now()
	m.mu.Unlock()
}

// Push uploads every local file, creating or updating as needed.
// Per-file failures are recorded in the result map and do not abort
// the rest of the batch.
func (m *Manager) Push(ctx context.Context, message string) (map[string]string, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.end()

	local, err := m.scanner.ScanLocal()
	if err != nil {
		return nil, err
	}

	if message == "" {
		message = "Update from espansync - " + time.Now().Format("2006-01-02 15:04:05")
	}

	results := make(map[string]string)
	for _, path := range sortedKeys(local) {
		status, err := m.pushFile(ctx, path, local[path].Content, message)
		if err != nil {
			logger.Log.Error("push failed",
				zap.String("path", path),
				zap.Error(err))
			results[path] = errorStatus(err)
			continue
		}
		results[path] = status
	}

	m.recordSync()
	return results, nil
}

func (m *Manager) pushFile(ctx context.Context, path, content, message string) (string, error) {
	existing, err := m.store.Get(ctx, path)

	switch {
	case err == nil:
		if _, err := m.store.Put(ctx, path, content, message, existing.Revision); err != nil {
			return "", err
		}
		return model.StatusUpdated, nil

	case errors.Is(err, remote.ErrNotFound):
		if _, err := m.store.Put(ctx, path, content, message, ""); err != nil {
			return "", err
		}
		return model.StatusCreated, nil

	default:
		return "", err
	}
}

// Pull overwrites the local copy of every remote file, creating parent
// directories as needed.
func (m *Manager) Pull(ctx context.Context) (map[string]string, error) {
	if err := m.begin(); err != nil {
		return nil, err
	}
	defer m.end()

	remoteFiles, err := m.scanner.ScanRemote(ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[string]string)
	for _, path := range sortedKeys(remoteFiles) {
		localPath := filepath.Join(m.root, filepath.FromSlash(path))

		status := model.StatusUpdated
		if _, err := os.Stat(localPath); os.IsNotExist(err) {
			status = model.StatusCreated
		}

		if err := util.AtomicWrite(localPath, strings.NewReader(remoteFiles[path].Content)); err != nil {
			logger.Log.Error("pull failed",
				zap.String("path", path),
				zap.Error(err))
			results[path] = errorStatus(err)
			continue
		}

		results[path] = status
	}

	m.recordSync()
	return results, nil
}

// Sync runs the bidirectional reconciliation. The only error it can
// return is ErrSyncInProgress; every other failure is folded into the
// outcome so a bad run never crashes the caller or wedges the guard.
func (m *Manager) Sync(ctx context.Context) (model.SyncOutcome, error) {
	if err := m.begin(); err != nil {
		return model.SyncOutcome{Files: map[string]string{}}, err
	}
	defer m.end()
	defer m.resolver.Clear()

	outcome, err := m.runSync(ctx)
	if err != nil {
		logger.Log.Error("sync failed", zap.Error(err))
		return model.SyncOutcome{
			Success: false,
			Error:   err.Error(),
			Files:   map[string]string{},
		}, nil
	}

	m.recordSync()
	logger.Log.Info("sync complete",
		zap.Int("pushed", outcome.Pushed),
		zap.Int("pulled", outcome.Pulled))

	return outcome, nil
}

func (m *Manager) runSync(ctx context.Context) (model.SyncOutcome, error) {
	outcome := model.SyncOutcome{Files: make(map[string]string)}

	local, err := m.scanner.ScanLocal()
	if err != nil {
		return outcome, err
	}

	remoteFiles, err := m.scanner.ScanRemote(ctx)
	if err != nil {
		return outcome, err
	}

	logger.Log.Info("scanned replicas",
		zap.Int("local", len(local)),
		zap.Int("remote", len(remoteFiles)))

	conflicts := m.resolver.DetectConflicts(local, remoteFiles)
	decisions := m.decideResolutions(conflicts)

	for _, c := range conflicts {
		status := m.applyResolution(ctx, c, decisions[c.Path])
		outcome.Files[c.Path] = status

		switch status {
		case model.StatusKeptLocal:
			outcome.Pushed++
		case model.StatusKeptRemote:
			outcome.Pulled++
		}
	}

	conflictPaths := make(map[string]bool, len(conflicts))
	for _, c := range conflicts {
		conflictPaths[c.Path] = true
	}

	// Single-sided paths are plain additions, not conflicts.
	for _, path := range unionKeys(local, remoteFiles) {
		if conflictPaths[path] {
			continue
		}

		_, hasLocal := local[path]
		_, hasRemote := remoteFiles[path]

		switch {
		case hasLocal && hasRemote:
			// Identical content on both sides, nothing to do.

		case hasLocal:
			if _, err := m.store.Put(ctx, path, local[path].Content, "Create "+path+" from local", ""); err != nil {
				logger.Log.Error("failed to push addition",
					zap.String("path", path),
					zap.Error(err))
				outcome.Files[path] = errorStatus(err)
				continue
			}
			outcome.Files[path] = model.StatusPushed
			outcome.Pushed++

		case hasRemote:
			localPath := filepath.Join(m.root, filepath.FromSlash(path))
			if err := util.AtomicWrite(localPath, strings.NewReader(remoteFiles[path].Content)); err != nil {
				logger.Log.Error("failed to pull addition",
					zap.String("path", path),
					zap.Error(err))
				outcome.Files[path] = errorStatus(err)
				continue
			}
			outcome.Files[path] = model.StatusPulled
			outcome.Pulled++
		}
	}

	outcome.Success = true
	return outcome, nil
}

// decideResolutions fixes a resolution per conflict: auto-resolved
// ones take their suggestion, escalated ones go through the handler
// when present, and unanswered paths fall back to the suggestion.
func (m *Manager) decideResolutions(conflicts []model.FileConflict) map[string]model.ConflictResolution {
	decisions := make(map[string]model.ConflictResolution, len(conflicts))

	resolved, unresolved := m.resolver.AutoResolve(conflicts)
	for _, c := range resolved {
		decisions[c.Path] = c.SuggestedResolution()
	}

	var answers map[string]model.ConflictResolution
	if len(unresolved) > 0 && m.onConflict != nil {
		answers = m.onConflict(unresolved)
	}

	for _, c := range unresolved {
		if res, ok := answers[c.Path]; ok {
			decisions[c.Path] = res
		} else {
			decisions[c.Path] = c.SuggestedResolution()
		}
	}

	return decisions
}

// applyResolution writes the winning content to whichever side lost
// and reports the per-path status, folding failures into the status
// string so one bad file never aborts the batch.
func (m *Manager) applyResolution(ctx context.Context, c model.FileConflict, res model.ConflictResolution) string {
	content, keep := m.resolver.Resolve(c, res)

	// An unanswered escalation lands on the local copy.
	if res == model.Manual {
		res = model.KeepLocal
	}

	localPath := filepath.Join(m.root, filepath.FromSlash(c.Path))

	switch res {
	case model.KeepLocal:
		if !keep {
			if err := m.deleteRemote(ctx, c.Path); err != nil {
				return errorStatus(err)
			}
			return model.StatusDeleted
		}
		if err := m.writeRemote(ctx, c.Path, content, "Resolve conflict: keep local version of "+c.Path); err != nil {
			return errorStatus(err)
		}
		return model.StatusKeptLocal

	case model.KeepRemote:
		if !keep {
			if err := util.RemoveIfExists(localPath); err != nil {
				return errorStatus(err)
			}
			return model.StatusDeleted
		}
		if err := util.AtomicWrite(localPath, strings.NewReader(content)); err != nil {
			return errorStatus(err)
		}
		return model.StatusKeptRemote

	case model.KeepBoth:
		if !keep {
			return model.StatusDeleted
		}
		if err := util.AtomicWrite(localPath, strings.NewReader(content)); err != nil {
			return errorStatus(err)
		}
		if err := m.writeRemote(ctx, c.Path, content, "Resolve conflict: merge both versions of "+c.Path); err != nil {
			return errorStatus(err)
		}
		return model.StatusMerged

	default:
		return errorStatus(fmt.Errorf("unknown resolution %q", res))
	}
}

// writeRemote re-fetches the revision right before writing; a stale
// revision surfaces as a per-file error, not an aborted sync.
func (m *Manager) writeRemote(ctx context.Context, path, content, message string) error {
	revision := ""
	if existing, err := m.store.Get(ctx, path); err == nil {
		revision = existing.Revision
	} else if !errors.Is(err, remote.ErrNotFound) {
		return err
	}

	_, err := m.store.Put(ctx, path, content, message, revision)
	return err
}

func (m *Manager) deleteRemote(ctx context.Context, path string) error {
	existing, err := m.store.Get(ctx, path)
	if errors.Is(err, remote.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	err = m.store.Delete(ctx, path, "Resolve conflict: delete "+path, existing.Revision)
	if errors.Is(err, remote.ErrNotFound) {
		return nil
	}
	return err
}

func errorStatus(err error) string {
	return "error: " + err.Error()
}

func sortedKeys(m map[string]model.FileRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unionKeys(a, b map[string]model.FileRecord) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))

	for k := range a {
		seen[k] = true
		keys = append(keys, k)
	}
	for k := range b {
		if !seen[k] {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)
	return keys
}
