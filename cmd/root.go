package cmd

import (
	"espansync/config"
	"espansync/db"
	"espansync/logger"
	"espansync/remote"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "espansync",
	Short: "Keep your espanso snippets in sync with a GitHub repository",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		clientCmds := map[string]bool{
			"status": true, "history": true, "stop": true,
			"install": true, "uninstall": true,
		}
		if !clientCmds[cmd.Name()] {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

// newStore builds the GitHub adapter from config, failing early when
// the repo or token is not set up yet.
func newStore() (*remote.GitHub, error) {
	if cfg.Repo == "" || cfg.Token == "" {
		return nil, fmt.Errorf("repo and token must be set in ~/.espansync/config.yaml (run 'espansync init')")
	}

	return remote.NewGitHub(cfg.Repo, cfg.Branch, cfg.Token), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
