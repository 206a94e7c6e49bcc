package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchExtract watches the configured CSV directory and drops the cached
// assembly when any extract file changes, so the next request re-reads the
// data.
func (s *Server) watchExtract(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.cfg.Source.CSV.Dir); err != nil {
		s.logger.Error("failed to watch extract directory", "dir", s.cfg.Source.CSV.Dir, "error", err)
		// Keep serving without invalidation rather than failing the server.
		<-ctx.Done()
		return nil
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".csv" {
				continue
			}

			// Debounce: extract refreshes rewrite many files at once.
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("extract changed, dropping cached assembly", "file", event.Name)
				s.invalidate()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}
