package cmd

import (
	"espansync/logger"
	"espansync/model"
	"espansync/repository"
	"espansync/syncer"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pushMessage string

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push local snippet files to the remote repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		store, err := newStore()
		if err != nil {
			return err
		}

		manager := syncer.NewManager(cfg.EspansoPath, store, nil)

		results, err := manager.Push(cmd.Context(), pushMessage)
		if err != nil {
			return err
		}

		saveDirectional(model.OpPush, results)

		var pushed, failed int
		for path, status := range results {
			fmt.Printf("  %-40s %s\n", path, status)
			if strings.HasPrefix(status, "error:") {
				failed++
			} else {
				pushed++
			}
		}

		fmt.Printf("done: %d pushed, %d failed\n", pushed, failed)
		return nil
	},
}

func saveDirectional(op model.SyncOp, results map[string]string) {
	outcome := model.SyncOutcome{Success: true, Files: results}
	for _, status := range results {
		if strings.HasPrefix(status, "error:") {
			continue
		}
		if op == model.OpPush {
			outcome.Pushed++
		} else {
			outcome.Pulled++
		}
	}

	repo := repository.NewHistoryRepository()
	if err := repo.SaveOutcome(op, "manual", outcome); err != nil {
		logger.Log.Warn("failed to save history",
			zap.Error(err))
	}
}

func init() {
	pushCmd.Flags().StringVarP(&pushMessage, "message", "m", "", "commit message")
	rootCmd.AddCommand(pushCmd)
}
