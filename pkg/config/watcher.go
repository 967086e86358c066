package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile reloads the scoring section of the config file into store
// whenever the file changes, until ctx is done. Invalid or unreadable files
// are logged and skipped; the last good config stays live. The parent
// directory is watched rather than the file itself because editors and
// config-map updates replace files instead of writing them in place.
func WatchFile(ctx context.Context, path string, store *Store, logger *slog.Logger) error {
	if path == "" {
		return fmt.Errorf("watch config: no file path")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					logger.Warn("config reload skipped", "path", path, "error", err)
					continue
				}
				if err := store.Replace(cfg.Scoring); err != nil {
					logger.Warn("config reload rejected", "path", path, "error", err)
					continue
				}
				logger.Info("scoring config reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}
