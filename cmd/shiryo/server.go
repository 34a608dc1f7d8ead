package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/config"
	"github.com/hyperjump/shiryo/internal/server"
	"github.com/hyperjump/shiryo/internal/watcher"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the HTTP API and the drop-folder watcher",
	Args:  cobra.NoArgs,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, resolvedPath, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("config_path", resolvedPath), zap.Bool("debug", cfg.Debug || debugFlag))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	// The watcher always runs so directories can be added through the API.
	watchSvc := newWatcher(cfg, cfg.Watch.Directories, components, logger)
	if err := watchSvc.Start(ctx); err != nil {
		return err
	}
	defer watchSvc.Stop()
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(components.Handler, components.Keywords, components.Vectors, cfg, logger,
		server.WithWatch(watchSvc, resolvedPath))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		logger.Info("shutting down server")
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newWatcher(cfg *config.Config, dirs []string, components *Components, logger *zap.Logger) *watcher.Watcher {
	recursive := cfg.Watch.RecursiveOrDefault()
	return watcher.New(dirs, cfg.Watch.Extensions, recursive,
		watcher.NewHandlerSink(components.Handler, logger),
		watcher.WithLogger(logger),
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMillis)*time.Millisecond))
}
