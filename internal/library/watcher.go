package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher monitors the local media directory and invalidates the catalog
// when a JSON file (the manifest or a transcript) changes, so edits show up
// without a restart.
type Watcher struct {
	lib      *Library
	watchDir string
	debounce time.Duration
	log      zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	// Debounce: coalesce rapid Create+Write events into one invalidation.
	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	invalidations atomic.Int64
	status        atomic.Value // string: "starting", "watching", "stopped"
}

// WatcherStatus is reported by the health endpoint.
type WatcherStatus struct {
	Status        string `json:"status"`
	WatchDir      string `json:"watch_dir"`
	Invalidations int64  `json:"invalidations"`
}

func NewWatcher(lib *Library, watchDir string, log zerolog.Logger) *Watcher {
	w := &Watcher{
		lib:      lib,
		watchDir: watchDir,
		debounce: 500 * time.Millisecond,
		log:      log,
		done:     make(chan struct{}),
	}
	w.status.Store("starting")
	return w
}

// Start adds every directory under the media root and begins watching.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw

	dirCount := 0
	err = filepath.WalkDir(w.watchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("error walking directory")
			return nil // continue walking
		}
		if d.IsDir() {
			if addErr := fw.Add(path); addErr != nil {
				w.log.Warn().Err(addErr).Str("path", path).Msg("failed to watch directory")
			} else {
				dirCount++
			}
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return err
	}

	w.log.Info().
		Int("directories", dirCount).
		Str("watch_dir", w.watchDir).
		Msg("media watcher initialized")

	w.status.Store("watching")
	go w.watchLoop()
	return nil
}

// Stop closes the fsnotify watcher.
func (w *Watcher) Stop() {
	w.status.Store("stopped")
	if w.watcher != nil {
		w.watcher.Close()
		<-w.done
	}
	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceMu.Unlock()
	w.log.Info().Int64("invalidations", w.invalidations.Load()).Msg("media watcher stopped")
}

// Status returns the current watcher status.
func (w *Watcher) Status() *WatcherStatus {
	s, _ := w.status.Load().(string)
	return &WatcherStatus{
		Status:        s,
		WatchDir:      w.watchDir,
		Invalidations: w.invalidations.Load(),
	}
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// New directory: watch it too so files added under it are seen.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						w.log.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
					}
					continue
				}
			}

			if !strings.HasSuffix(strings.ToLower(event.Name), ".json") {
				continue
			}
			w.scheduleInvalidate(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// scheduleInvalidate debounces invalidation so a file being written in
// several chunks triggers one catalog reload.
func (w *Watcher) scheduleInvalidate(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Reset(w.debounce)
		return
	}

	w.debounceTimer = time.AfterFunc(w.debounce, func() {
		w.debounceMu.Lock()
		w.debounceTimer = nil
		w.debounceMu.Unlock()

		w.lib.Invalidate()
		w.invalidations.Add(1)
		w.log.Debug().Str("path", path).Msg("catalog invalidated")
	})
}
