package repository

import (
	"espansync/db"
	"espansync/model"
	"time"
)

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

// SaveOutcome persists one run plus a FileChange row per touched path.
func (r *HistoryRepository) SaveOutcome(op model.SyncOp, trigger string, outcome model.SyncOutcome) error {
	now := time.Now()

	run := model.SyncRun{
		Op:       op,
		Trigger:  trigger,
		Success:  outcome.Success,
		Pushed:   outcome.Pushed,
		Pulled:   outcome.Pulled,
		ErrMsg:   outcome.Error,
		SyncedAt: now,
	}

	if err := db.DB.Create(&run).Error; err != nil {
		return err
	}

	for path, status := range outcome.Files {
		change := model.FileChange{
			SyncRunID: run.ID,
			Path:      path,
			Status:    status,
			SyncedAt:  now,
		}
		if err := db.DB.Create(&change).Error; err != nil {
			return err
		}
	}

	return nil
}

type Stats struct {
	Total   int64
	Success int64
	Failed  int64
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.SyncRun{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.SyncRun{}).
		Where("success = ?", true).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success
	return stats, nil
}

func (r *HistoryRepository) GetRecentRuns(limit int) ([]model.SyncRun, error) {
	var runs []model.SyncRun
	result := db.DB.
		Order("synced_at desc").
		Limit(limit).
		Find(&runs)

	return runs, result.Error
}

func (r *HistoryRepository) GetRecentChanges(limit int) ([]model.FileChange, error) {
	var changes []model.FileChange
	result := db.DB.
		Order("synced_at desc").
		Limit(limit).
		Find(&changes)

	return changes, result.Error
}
