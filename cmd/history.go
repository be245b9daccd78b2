package cmd

import (
	"encoding/json"
	"espansync/model"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var historyN int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent per-file sync history",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fmt.Sprintf("%s?n=%d", daemonURL("/history"), historyN)
		resp, err := http.Get(url)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var changes []model.FileChange
		if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
			return err
		}

		if len(changes) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		for _, change := range changes {
			mark := "✓"
			if strings.HasPrefix(change.Status, "error:") {
				mark = "✗"
			}

			fmt.Printf("%s [%s] %-12s %s\n",
				mark,
				change.SyncedAt.Format("2006-01-02 15:04:05"),
				change.Status,
				change.Path,
			)
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	rootCmd.AddCommand(historyCmd)
}
