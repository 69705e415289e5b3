package logreader

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// fileWatcher turns fsnotify events for one file into change signals. The
// parent directory is watched so the file may be created or rotated after the
// watch starts.
type fileWatcher struct {
	watcher *fsnotify.Watcher
	name    string
	changes chan struct{}
}

func newFileWatcher(path string) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = w.Close() //nolint:errcheck // Ignore error on cleanup
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close() //nolint:errcheck // Ignore error on cleanup
		return nil, fmt.Errorf("watch directory: %w", err)
	}

	return &fileWatcher{
		watcher: w,
		name:    abs,
		changes: make(chan struct{}, 1),
	}, nil
}

// Changes signals at most one pending change at a time.
func (fw *fileWatcher) Changes() <-chan struct{} {
	return fw.changes
}

// run forwards events until ctx is cancelled or the watcher is closed.
func (fw *fileWatcher) run(ctx context.Context, onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case fw.changes <- struct{}{}:
			default:
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			onError(fmt.Errorf("watcher: %w", err))
		}
	}
}

func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}
