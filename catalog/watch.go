package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog file at path whenever it is written or replaced
// and passes each successfully loaded catalog to onChange. The parent
// directory is watched so editors that save via rename are picked up. A file
// that fails to load is logged and skipped; the caller keeps its previous
// catalog. Watching stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Catalog)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go watchLoop(ctx, watcher, abs, onChange)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, onChange func(*Catalog)) {
	defer watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			c, err := Load(path)
			if err != nil {
				slog.Warn("catalog reload failed, keeping previous", "path", path, "error", err)
				continue
			}
			for _, w := range c.Validate() {
				slog.Warn("catalog warning", "path", path, "warning", w)
			}
			slog.Info("catalog reloaded", "path", path, "definitions", c.Len())
			onChange(c)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("catalog watcher error", "path", path, "error", err)
		}
	}
}
