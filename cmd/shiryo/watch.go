package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]...",
	Short: "Ingest files dropped into directories until interrupted",
	Long: `Watch ingests new and changed files under the given directories (or the configured
watch directories) and deletes the chunks of files that are removed.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, _, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	dirs := args
	if len(dirs) == 0 {
		dirs = cfg.Watch.Directories
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no directories to watch: pass them as arguments or set watch.directories")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	w := newWatcher(cfg, dirs, components, logger)
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()
	w.SyncExistingFiles()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	<-sigCh
	logger.Info("stopping watcher", zap.Strings("directories", w.Directories()))
	return nil
}
