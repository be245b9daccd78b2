package cmd

import (
	"espansync/logger"
	"espansync/model"
	"espansync/repository"
	"espansync/syncer"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one bidirectional sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		store, err := newStore()
		if err != nil {
			return err
		}

		manager := syncer.NewManager(cfg.EspansoPath, store, nil)

		logger.Log.Info("starting sync",
			zap.String("repo", cfg.Repo),
			zap.String("path", cfg.EspansoPath))

		outcome, err := manager.Sync(cmd.Context())
		if err != nil {
			return err
		}

		repo := repository.NewHistoryRepository()
		if err := repo.SaveOutcome(model.OpSync, "manual", outcome); err != nil {
			logger.Log.Warn("failed to save history",
				zap.Error(err))
		}

		printOutcome(outcome)

		if !outcome.Success {
			return fmt.Errorf("sync failed: %s", outcome.Error)
		}

		return nil
	},
}

func printOutcome(outcome model.SyncOutcome) {
	paths := make([]string, 0, len(outcome.Files))
	for path := range outcome.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fmt.Printf("  %-40s %s\n", path, outcome.Files[path])
	}

	if outcome.Success {
		fmt.Printf("done: %d pushed, %d pulled\n", outcome.Pushed, outcome.Pulled)
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
