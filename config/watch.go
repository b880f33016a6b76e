package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/soypat/shadergraph"
)

// WatchFile calls onChange after every write to the file at path until ctx is
// done. It blocks and returns ctx.Err() on cancellation. The parent directory
// is watched so editors that replace the file are noticed. Events for other
// files in the directory are ignored.
func WatchFile(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	target := filepath.Clean(path)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == target && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			shadergraph.Logger().Warn("file watcher", slog.String("path", path), slog.Any("err", err))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
