package file

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Watch emits the snapshot stored under key, first as it is now (when it
// exists) and then after every save. The channel closes when ctx ends.
//
// Save replaces files by rename, so the directory is watched rather than the file.
func (s *Store) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	target, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure state directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(s.BasePath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.BasePath, err)
	}

	out := make(chan []byte)

	go func() {
		defer close(out)
		defer watcher.Close()

		emit := func() bool {
			data, err := os.ReadFile(target)
			if err != nil {
				return true
			}
			select {
			case out <- data:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !emit() {
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}
