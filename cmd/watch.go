package cmd

import (
	"context"
	"espansync/daemon"
	"espansync/logger"
	"espansync/pipeline"
	"espansync/repository"
	"espansync/syncer"
	"espansync/watcher"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the sync daemon: recurring auto-sync plus sync-on-edit",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	store, err := newStore()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	manager := syncer.NewManager(cfg.EspansoPath, store, nil)
	if !manager.TestConnection(ctx) {
		logger.Log.Warn("remote not reachable, will keep retrying on schedule",
			zap.String("repo", cfg.Repo))
	}

	histRepo := repository.NewHistoryRepository()
	scheduler := syncer.NewScheduler(manager, histRepo, time.Duration(cfg.SyncInterval)*time.Second)
	scheduler.Start(ctx)

	w, err := watcher.New(cfg.BufferSize)
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(syncer.SyncDirs))
	for _, dir := range syncer.SyncDirs {
		dirs = append(dirs, filepath.Join(cfg.EspansoPath, dir))
	}
	if err := w.Watch(dirs...); err != nil {
		return err
	}

	debounced := pipeline.Debounce(w.Events(), time.Duration(cfg.DebounceMS)*time.Millisecond)
	filtered := pipeline.Filter(debounced, syncer.RecognizedExts, cfg.IgnoreList)

	go func() {
		for event := range filtered {
			logger.Log.Debug("local edit detected",
				zap.String("path", event.Path),
				zap.String("type", string(event.Type)))
			scheduler.TriggerNow("watcher")
		}
	}()

	srv := daemon.NewServer(manager, scheduler, cfg.DaemonPort)
	srv.Start()

	// Reconcile whatever changed while the daemon was down.
	scheduler.TriggerNow("startup")

	logger.Log.Info("espansync daemon started",
		zap.String("repo", cfg.Repo),
		zap.String("path", cfg.EspansoPath),
		zap.Int("port", cfg.DaemonPort),
		zap.Int("interval_sec", cfg.SyncInterval))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
