package repository

import (
	"espansync/db"
	"espansync/model"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *HistoryRepository {
	t.Helper()

	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "history.db")))
	return NewHistoryRepository()
}

func TestSaveOutcomeAndRecentRuns(t *testing.T) {
	repo := setupDB(t)

	outcome := model.SyncOutcome{
		Success: true,
		Pushed:  1,
		Pulled:  2,
		Files: map[string]string{
			"match/base.yml":     model.StatusPushed,
			"config/default.yml": model.StatusPulled,
		},
	}
	require.NoError(t, repo.SaveOutcome(model.OpSync, "manual", outcome))

	runs, err := repo.GetRecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.OpSync, runs[0].Op)
	assert.Equal(t, "manual", runs[0].Trigger)
	assert.True(t, runs[0].Success)
	assert.Equal(t, 1, runs[0].Pushed)
	assert.Equal(t, 2, runs[0].Pulled)

	changes, err := repo.GetRecentChanges(10)
	require.NoError(t, err)
	assert.Len(t, changes, 2)
	for _, change := range changes {
		assert.Equal(t, runs[0].ID, change.SyncRunID)
	}
}

func TestSaveFailedOutcome(t *testing.T) {
	repo := setupDB(t)

	outcome := model.SyncOutcome{
		Success: false,
		Error:   "remote unreachable",
		Files:   map[string]string{},
	}
	require.NoError(t, repo.SaveOutcome(model.OpSync, "interval", outcome))

	runs, err := repo.GetRecentRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Success)
	assert.Equal(t, "remote unreachable", runs[0].ErrMsg)
}

func TestGetStats(t *testing.T) {
	repo := setupDB(t)

	ok := model.SyncOutcome{Success: true, Files: map[string]string{}}
	bad := model.SyncOutcome{Success: false, Error: "boom", Files: map[string]string{}}

	require.NoError(t, repo.SaveOutcome(model.OpPush, "manual", ok))
	require.NoError(t, repo.SaveOutcome(model.OpSync, "interval", ok))
	require.NoError(t, repo.SaveOutcome(model.OpSync, "watcher", bad))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Success)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestRecentRunsRespectsLimit(t *testing.T) {
	repo := setupDB(t)

	for i := 0; i < 5; i++ {
		outcome := model.SyncOutcome{Success: true, Files: map[string]string{}}
		require.NoError(t, repo.SaveOutcome(model.OpSync, "interval", outcome))
	}

	runs, err := repo.GetRecentRuns(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
