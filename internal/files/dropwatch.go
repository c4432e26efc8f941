// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/logging"
)

// DropWatcher watches a directory and hands every file that lands in it
// to a callback once writes have settled. Dropping a file into the folder
// is the terminal equivalent of drag-and-drop.
type DropWatcher struct {
	dir      string
	onDrop   func(path string)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      logrus.FieldLogger

	mu      sync.Mutex
	pending map[string]time.Time // path -> last write
	seen    map[string]time.Time // path -> mod time already delivered

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDropWatcher creates a watcher for dir. The directory is created if
// missing. Call Start to begin delivering files.
func NewDropWatcher(dir string, debounce time.Duration, onDrop func(path string), log logrus.FieldLogger) (*DropWatcher, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create drop dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &DropWatcher{
		dir:      dir,
		onDrop:   onDrop,
		watcher:  w,
		debounce: debounce,
		log:      logging.OrDiscard(log),
		pending:  make(map[string]time.Time),
		seen:     make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Dir returns the watched directory.
func (dw *DropWatcher) Dir() string {
	return dw.dir
}

// Start begins watching. Files already in the directory are ignored.
func (dw *DropWatcher) Start() error {
	entries, _ := os.ReadDir(dw.dir)
	for _, e := range entries {
		if info, err := e.Info(); err == nil {
			dw.seen[filepath.Join(dw.dir, e.Name())] = info.ModTime()
		}
	}
	if err := dw.watcher.Add(dw.dir); err != nil {
		return fmt.Errorf("watch %s: %w", dw.dir, err)
	}

	dw.wg.Add(2)
	go dw.processEvents()
	go dw.processPending()
	return nil
}

func (dw *DropWatcher) processEvents() {
	defer dw.wg.Done()
	for {
		select {
		case <-dw.ctx.Done():
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue // editor swap files, partial downloads
			}
			dw.mu.Lock()
			dw.pending[event.Name] = time.Now()
			dw.mu.Unlock()

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.log.WithError(err).Warn("drop watcher error")
		}
	}
}

// processPending delivers files whose last write is older than debounce.
func (dw *DropWatcher) processPending() {
	defer dw.wg.Done()
	tick := dw.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-dw.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			var ready []string

			dw.mu.Lock()
			for path, changed := range dw.pending {
				if now.Sub(changed) >= dw.debounce {
					ready = append(ready, path)
					delete(dw.pending, path)
				}
			}
			dw.mu.Unlock()

			for _, path := range ready {
				dw.deliver(path)
			}
		}
	}
}

func (dw *DropWatcher) deliver(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	dw.mu.Lock()
	prev, dup := dw.seen[path]
	if dup && prev.Equal(info.ModTime()) {
		dw.mu.Unlock()
		return
	}
	dw.seen[path] = info.ModTime()
	dw.mu.Unlock()

	dw.log.WithField("path", path).Info("file dropped")
	dw.onDrop(path)
}

// Close stops the watcher and waits for its goroutines.
func (dw *DropWatcher) Close() error {
	dw.cancel()
	err := dw.watcher.Close()
	dw.wg.Wait()
	return err
}
