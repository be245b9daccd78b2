package cmd

import (
	"encoding/json"
	"espansync/daemon"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var status daemon.Status
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		connected := "yes"
		if !status.Connected {
			connected = "no"
		}

		lastSync := "-"
		if status.LastSync != nil {
			lastSync = status.LastSync.Format("2006-01-02 15:04:05")
		}

		syncing := ""
		if status.Syncing {
			syncing = " (sync in progress)"
		}

		uptime := time.Since(status.StartedAt).Round(time.Second)
		fmt.Printf("uptime:     %s%s\n", uptime, syncing)
		fmt.Printf("connected:  %s\n", connected)
		fmt.Printf("last sync:  %s\n", lastSync)
		fmt.Printf("runs:       %d (%d failed)\n", status.Scheduler.Runs, status.Scheduler.Failed)

		if o := status.Scheduler.LastOutcome; o != nil {
			fmt.Printf("last run:   pushed=%d pulled=%d trigger=%s\n",
				o.Pushed, o.Pulled, status.Scheduler.LastTrigger)
			if !o.Success {
				fmt.Printf("last error: %s\n", o.Error)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
