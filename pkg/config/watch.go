package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events editors emit when saving.
const watchDebounce = 250 * time.Millisecond

// Watch monitors the config file for changes and sends on the returned
// channel after each (debounced) modification. The parent directory is
// watched rather than the file itself so atomic rename-into-place saves are
// seen. Watching stops when ctx is cancelled.
func Watch(ctx context.Context, path string, logger *slog.Logger) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	changed := make(chan struct{}, 1)
	base := filepath.Base(path)

	go func() {
		defer watcher.Close()
		defer close(changed)

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
					fire = timer.C
				} else {
					timer.Reset(watchDebounce)
				}

			case <-fire:
				timer = nil
				fire = nil
				select {
				case changed <- struct{}{}:
				default:
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	return changed, nil
}
