package watchlist

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watch reloads the store whenever the groups or CSV file changes on disk
// and then calls onChange. It returns once the watcher is set up; watching
// stops when ctx is cancelled.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: saves replace the file by rename.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	names := map[string]bool{filepath.Base(s.path): true}
	if s.csvPath != "" {
		names[filepath.Base(s.csvPath)] = true
	}

	go func() {
		defer w.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !names[filepath.Base(ev.Name)] || ev.Op == fsnotify.Chmod {
					continue
				}
				pending = time.After(watchDebounce)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("watchlist watcher error", "err", err)

			case <-pending:
				pending = nil
				if err := s.Reload(); err != nil {
					s.logger.Warn("failed to reload watchlist", "path", s.path, "err", err)
					continue
				}
				s.logger.Info("watchlist reloaded", "path", s.path)
				if onChange != nil {
					onChange()
				}
			}
		}
	}()

	return nil
}
