package cmd

import (
	"espansync/logger"
	"espansync/model"
	"espansync/syncer"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Overwrite local snippet files with the remote copies",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		store, err := newStore()
		if err != nil {
			return err
		}

		manager := syncer.NewManager(cfg.EspansoPath, store, nil)

		results, err := manager.Pull(cmd.Context())
		if err != nil {
			return err
		}

		saveDirectional(model.OpPull, results)

		var pulled, failed int
		for path, status := range results {
			fmt.Printf("  %-40s %s\n", path, status)
			if strings.HasPrefix(status, "error:") {
				failed++
			} else {
				pulled++
			}
		}

		fmt.Printf("done: %d pulled, %d failed\n", pulled, failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
