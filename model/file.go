package model

import "time"

// MajorConflictWindow is the timestamp distance below which two edits
// cannot be ordered reliably (clock skew, near-simultaneous saves).
const MajorConflictWindow = time.Minute

type ConflictResolution string

const (
	KeepLocal  ConflictResolution = "local"
	KeepRemote ConflictResolution = "remote"
	KeepBoth   ConflictResolution = "both"
	Manual     ConflictResolution = "manual"
)

type ConflictType string

const (
	BothModified  ConflictType = "both_modified"
	LocalDeleted  ConflictType = "local_deleted"
	RemoteDeleted ConflictType = "remote_deleted"
)

// FileRecord is one side's snapshot of a synced file. A zero Modified
// means the timestamp is unknown, not that the file is ancient.
type FileRecord struct {
	Path     string
	Content  string
	Modified time.Time
}

// FileConflict is a path present on both replicas with differing
// content. Absent sides are modeled as HasLocal/HasRemote false.
type FileConflict struct {
	Path           string
	LocalContent   string
	RemoteContent  string
	HasLocal       bool
	HasRemote      bool
	LocalModified  time.Time
	RemoteModified time.Time
	Type           ConflictType
}

// IsMajor reports whether the two edits are too close in time to pick
// a winner automatically.
func (c FileConflict) IsMajor() bool {
	if c.LocalModified.IsZero() || c.RemoteModified.IsZero() {
		return false
	}

	diff := c.LocalModified.Sub(c.RemoteModified)
	if diff < 0 {
		diff = -diff
	}

	return diff < MajorConflictWindow
}

// SuggestedResolution picks the newer side when the timestamps are far
// enough apart to trust, and escalates otherwise. With only one
// timestamp the timestamped side wins; with neither, local wins so the
// copy the user is looking at is never silently discarded.
func (c FileConflict) SuggestedResolution() ConflictResolution {
	switch {
	case !c.LocalModified.IsZero() && !c.RemoteModified.IsZero():
		if c.IsMajor() {
			return Manual
		}
		if c.LocalModified.After(c.RemoteModified) {
			return KeepLocal
		}
		return KeepRemote

	case !c.LocalModified.IsZero():
		return KeepLocal

	case !c.RemoteModified.IsZero():
		return KeepRemote

	default:
		return KeepLocal
	}
}

// SyncOutcome aggregates one push, pull, or bidirectional sync run.
type SyncOutcome struct {
	Success bool              `json:"success"`
	Pushed  int               `json:"pushed"`
	Pulled  int               `json:"pulled"`
	Files   map[string]string `json:"files"`
	Error   string            `json:"error,omitempty"`
}

// Per-path statuses recorded in SyncOutcome.Files.
const (
	StatusCreated    = "created"
	StatusUpdated    = "updated"
	StatusPushed     = "pushed"
	StatusPulled     = "pulled"
	StatusDeleted    = "deleted"
	StatusMerged     = "merged"
	StatusKeptLocal  = "kept_local"
	StatusKeptRemote = "kept_remote"
)
