// Package conflict classifies divergences between the two replicas
// and computes loss-avoiding resolutions.
package conflict

import (
	"espansync/logger"
	"espansync/model"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

type Resolver struct {
	conflicts []model.FileConflict
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// DetectConflicts reports every path present on both sides whose
// content differs. Paths on only one side are plain additions the
// manager pushes or pulls directly, never conflicts.
func (r *Resolver) DetectConflicts(local, remote map[string]model.FileRecord) []model.FileConflict {
	paths := make([]string, 0, len(local))
	for path := range local {
		if _, ok := remote[path]; ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	var conflicts []model.FileConflict
	for _, path := range paths {
		l, rec := local[path], remote[path]
		if l.Content == rec.Content {
			continue
		}

		conflicts = append(conflicts, model.FileConflict{
			Path:           path,
			LocalContent:   l.Content,
			RemoteContent:  rec.Content,
			HasLocal:       true,
			HasRemote:      true,
			LocalModified:  l.Modified,
			RemoteModified: rec.Modified,
			Type:           model.BothModified,
		})
	}

	r.conflicts = conflicts
	return conflicts
}

// AutoResolve partitions conflicts into those whose suggested
// resolution can be applied unattended and those needing escalation.
func (r *Resolver) AutoResolve(conflicts []model.FileConflict) (resolved, unresolved []model.FileConflict) {
	for _, c := range conflicts {
		if c.SuggestedResolution() == model.Manual {
			unresolved = append(unresolved, c)
		} else {
			resolved = append(resolved, c)
		}
	}

	return resolved, unresolved
}

// Resolve maps a conflict and a chosen strategy to the content that
// should end up on both sides. keep=false means the file is deleted.
// The result depends only on the conflict and the resolution.
func (r *Resolver) Resolve(c model.FileConflict, resolution model.ConflictResolution) (content string, keep bool) {
	switch resolution {
	case model.KeepLocal:
		return c.LocalContent, c.HasLocal

	case model.KeepRemote:
		return c.RemoteContent, c.HasRemote

	case model.KeepBoth:
		if c.HasLocal && c.HasRemote {
			return mergeDocument(c), true
		}
		if c.HasLocal {
			return c.LocalContent, true
		}
		return c.RemoteContent, c.HasRemote

	case model.Manual:
		// No human answered. Keeping local loses nothing the caller
		// can currently see; the remote copy stays in git history.
		logger.Log.Warn("manual resolution defaulted to local",
			zap.String("path", c.Path))
		return c.LocalContent, c.HasLocal

	default:
		return "", false
	}
}

// mergeDocument embeds both full versions so neither edit is lost.
// Labels carry the conflict's own timestamps, keeping Resolve a pure
// function of its inputs.
func mergeDocument(c model.FileConflict) string {
	return fmt.Sprintf(`# Conflicting changes in %s. Both versions are preserved below.

# ========== LOCAL VERSION (%s) ==========
%s

# ========== REMOTE VERSION (%s) ==========
%s
`,
		c.Path,
		formatStamp(c.LocalModified),
		c.LocalContent,
		formatStamp(c.RemoteModified),
		c.RemoteContent)
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	return t.Format("2006-01-02 15:04:05")
}

// MajorConflicts filters the last detection result down to conflicts
// that require explicit resolution.
func (r *Resolver) MajorConflicts() []model.FileConflict {
	var major []model.FileConflict
	for _, c := range r.conflicts {
		if c.IsMajor() {
			major = append(major, c)
		}
	}

	return major
}

func (r *Resolver) HasConflicts() bool {
	return len(r.conflicts) > 0
}

// Clear drops the state from the last detection. The manager calls
// this at the end of every sync; conflicts never persist across runs.
func (r *Resolver) Clear() {
	r.conflicts = nil
}
