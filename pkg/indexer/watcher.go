package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kraklabs/julie/pkg/langs"
	"github.com/kraklabs/julie/pkg/pathutil"
)

// FileWatcher watches a workspace root for changes and triggers a debounced
// incremental reindex via fsnotify and a single workspace-wide debounce
// timer, calling WorkspaceScanner.IncrementalIndex once on settle.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	scanner *WorkspaceScanner
	opts    WatchOptions
	logger  *slog.Logger

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// NewFileWatcher creates a watcher that incrementally reindexes through
// scanner whenever the workspace changes.
func NewFileWatcher(scanner *WorkspaceScanner, opts WatchOptions, logger *slog.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if opts.DebounceMs == 0 {
		opts.DebounceMs = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{
		watcher:        w,
		scanner:        scanner,
		opts:           opts,
		logger:         logger,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start begins watching rootPath and every non-ignored subdirectory.
func (fw *FileWatcher) Start(rootPath string) error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return fmt.Errorf("watcher already stopped")
	}
	fw.mu.Unlock()

	if err := fw.watcher.Add(rootPath); err != nil {
		return fmt.Errorf("watch %s: %w", rootPath, err)
	}

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if pathutil.IsIgnoredDir(info.Name()) {
			return filepath.SkipDir
		}
		if addErr := fw.watcher.Add(path); addErr != nil {
			fw.logger.Warn("watch directory failed", "path", path, "error", addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("setup watches: %w", err)
	}

	go fw.eventLoop()
	return nil
}

// Stop halts the watcher; idempotent.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.stopped {
		return nil
	}
	fw.stopped = true
	close(fw.stopChan)

	fw.debounceMu.Lock()
	for _, t := range fw.debounceTimers {
		t.Stop()
	}
	fw.debounceTimers = make(map[string]*time.Timer)
	fw.debounceMu.Unlock()

	return fw.watcher.Close()
}

func (fw *FileWatcher) eventLoop() {
	for {
		select {
		case <-fw.stopChan:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if pathutil.IsIgnoredDir(filepath.Base(filepath.Dir(event.Name))) {
		return
	}
	if lang, _ := langs.Detect(event.Name); lang == langs.Unknown || !lang.Wired() {
		return
	}

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		fw.debounceReindex()
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		fw.debounceReindex()
	}
}

// debounceReindex coalesces rapid successive events into a single
// workspace-wide incremental reindex, per the debounce design.
func (fw *FileWatcher) debounceReindex() {
	const key = "__workspace__"

	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if t, exists := fw.debounceTimers[key]; exists {
		t.Stop()
	}
	fw.debounceTimers[key] = time.AfterFunc(
		time.Duration(fw.opts.DebounceMs)*time.Millisecond,
		func() {
			if _, err := fw.scanner.IncrementalIndex(context.Background(), DefaultScanOptions(), nil); err != nil {
				fw.logger.Warn("incremental reindex failed", "error", err)
			}
			fw.debounceMu.Lock()
			delete(fw.debounceTimers, key)
			fw.debounceMu.Unlock()
		},
	)
}

// PendingReindexes reports how many debounce timers are currently armed.
func (fw *FileWatcher) PendingReindexes() int {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()
	return len(fw.debounceTimers)
}
