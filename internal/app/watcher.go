package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// Watcher watches directories for changes and reports, after a quiet
// period, which watched directory needs a rebuild.
type Watcher struct {
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	watching   map[string]bool // Currently watched paths
	notify     chan string     // Channel to send changed directory paths
	done       chan struct{}   // Shutdown signal
	debounceMs int             // Debounce interval in milliseconds
}

// NewWatcher creates a new directory watcher
func NewWatcher(debounceMs int) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounceMs <= 0 {
		debounceMs = 200
	}

	dw := &Watcher{
		watcher:    w,
		watching:   make(map[string]bool),
		notify:     make(chan string, 10),
		done:       make(chan struct{}),
		debounceMs: debounceMs,
	}

	go dw.run()
	return dw, nil
}

// run processes filesystem events with debouncing
func (dw *Watcher) run() {
	lastEvent := make(map[string]time.Time)
	pending := make(map[string]bool)
	debounce := time.Duration(dw.debounceMs) * time.Millisecond
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}

			// Tag edits arrive as renames; creates and removes change listings
			if !(event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Write)) {
				continue
			}
			changedPath := event.Name
			parentDir := filepath.Dir(changedPath)

			dw.mu.Lock()
			if dw.watching[parentDir] {
				lastEvent[parentDir] = time.Now()
				pending[parentDir] = true
				debug.Log(debug.APP, "FSNotify event: %s on %s (parent: %s)", event.Op, changedPath, parentDir)
			} else if dw.watching[changedPath] {
				lastEvent[changedPath] = time.Now()
				pending[changedPath] = true
				debug.Log(debug.APP, "FSNotify event: %s on watched dir %s", event.Op, changedPath)
			}
			dw.mu.Unlock()

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.APP, "FSNotify error: %v", err)

		case <-ticker.C:
			now := time.Now()
			for dir := range pending {
				if now.Sub(lastEvent[dir]) < debounce {
					continue
				}
				select {
				case dw.notify <- dir:
					debug.Log(debug.APP, "Directory change notification: %s", dir)
				default:
					// Channel full, the consumer is behind
				}
				delete(pending, dir)
				delete(lastEvent, dir)
			}
		}
	}
}

// Watch adds a directory to the watch list
func (dw *Watcher) Watch(path string) error {
	path = filepath.Clean(path)
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.watching[path] {
		return nil
	}
	if err := dw.watcher.Add(path); err != nil {
		return err
	}

	dw.watching[path] = true
	debug.Log(debug.APP, "Now watching directory: %s", path)
	return nil
}

// Unwatch removes a directory from the watch list
func (dw *Watcher) Unwatch(path string) error {
	path = filepath.Clean(path)
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if !dw.watching[path] {
		return nil
	}
	if err := dw.watcher.Remove(path); err != nil {
		// The path may already be gone
		debug.Log(debug.APP, "Error unwatching %s: %v", path, err)
	}

	delete(dw.watching, path)
	debug.Log(debug.APP, "Stopped watching directory: %s", path)
	return nil
}

// Watching reports whether path is on the watch list.
func (dw *Watcher) Watching(path string) bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.watching[filepath.Clean(path)]
}

// Notify returns the channel that receives directory change notifications
func (dw *Watcher) Notify() <-chan string {
	return dw.notify
}

// Close shuts down the watcher
func (dw *Watcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}
