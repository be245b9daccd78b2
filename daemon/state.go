package daemon

import (
	"espansync/syncer"
	"time"
)

// Status is the wire shape of the daemon's /status endpoint.
type Status struct {
	Syncing   bool                     `json:"syncing"`
	Connected bool                     `json:"connected"`
	StartedAt time.Time                `json:"started_at"`
	LastSync  *time.Time               `json:"last_sync,omitempty"`
	Scheduler syncer.SchedulerSnapshot `json:"scheduler"`
}
