package tui

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for after the last change before calling notify.
const DefaultDebounce = 300 * time.Millisecond

// Watch calls notify once the directory root has been quiet for debounce after any change.
//
// If recurse is true, subdirectories existing at the time Watch is called are watched too. Watch blocks until ctx is
// done, then returns nil.
func Watch(ctx context.Context, root string, recurse bool, debounce time.Duration, logger *log.Logger, notify func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher error: %w", err)
	}
	defer watcher.Close()

	if err = watcher.Add(root); err != nil {
		return fmt.Errorf(`watch "%s" error: %w`, root, err)
	}

	if recurse {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() || path == root {
				return nil
			}

			if err = watcher.Add(path); err != nil {
				logger.Printf(`watch "%s" error: %v`, path, err)
			}
			return nil
		})
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if ctx.Err() == nil {
					notify()
				}
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("watcher error: %v", err)
		}
	}
}
