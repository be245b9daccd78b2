package model

import (
	"time"

	"gorm.io/gorm"
)

type SyncOp string

const (
	OpPush SyncOp = "PUSH"
	OpPull SyncOp = "PULL"
	OpSync SyncOp = "SYNC"
)

// SyncRun is one completed sync-family operation.
type SyncRun struct {
	gorm.Model
	Op       SyncOp `gorm:"not null"`
	Trigger  string `gorm:"not null"`
	Success  bool   `gorm:"not null"`
	Pushed   int
	Pulled   int
	ErrMsg   string
	SyncedAt time.Time `gorm:"not null"`
}

// FileChange is one per-path status row belonging to a SyncRun.
type FileChange struct {
	gorm.Model
	SyncRunID uint      `gorm:"not null;index"`
	Path      string    `gorm:"not null"`
	Status    string    `gorm:"not null"`
	SyncedAt  time.Time `gorm:"not null"`
}
