package cmd

import (
	"espansync/logger"
	"espansync/model"
	"espansync/syncer"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the remote repository and push the current config",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		store, err := newStore()
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		if store.TestConnection(ctx) {
			fmt.Printf("repository %s already exists\n", cfg.Repo)
		} else {
			parts := strings.SplitN(cfg.Repo, "/", 2)
			if len(parts) != 2 {
				return fmt.Errorf("repo must be in owner/name format, got %q", cfg.Repo)
			}

			if err := store.CreateRepository(ctx, parts[1], "espanso configuration, synced by espansync"); err != nil {
				return err
			}

			fmt.Printf("created repository %s\n", cfg.Repo)
		}

		manager := syncer.NewManager(cfg.EspansoPath, store, nil)
		results, err := manager.Push(ctx, "Initial push from espansync")
		if err != nil {
			return err
		}

		saveDirectional(model.OpPush, results)

		fmt.Printf("pushed %d files\n", len(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
