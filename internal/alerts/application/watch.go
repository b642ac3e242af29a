package application

import (
	"context"
	"log"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig monitors the policy file for changes and pushes the newly
// loaded config into the provider on each write. It runs until ctx is
// cancelled.
//
// If a reload fails (e.g. invalid YAML), the previous config remains active.
func WatchConfig(ctx context.Context, path string, provider *PolicyProvider, logger *log.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	if logger != nil {
		logger.Printf("alerts config: watching %s", path)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often replace the file on save, so catch creates too.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadConfig()
			if err != nil {
				if logger != nil {
					logger.Printf("alerts config: reload failed, keeping previous: %v", err)
				}
				continue
			}
			provider.Update(cfg)
			if logger != nil {
				logger.Printf("alerts config: reloaded from %s", path)
			}

			// Re-add in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if logger != nil {
				logger.Printf("alerts config: watcher error: %v", err)
			}
		}
	}
}
