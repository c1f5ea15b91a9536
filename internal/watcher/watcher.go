package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a directory tree and delivers coalesced change batches.
//
// Writes are debounced per file: a file is recorded as modified only once
// its size and mtime stop changing for SettleDelay. Recorded changes are
// grouped until no new change arrives for BatchWindow, then delivered as
// one Batch.
type Watcher struct {
	logger *slog.Logger
	opts   Options
	fsw    *fsnotify.Watcher

	mu        sync.Mutex
	settling  map[string]*settlingFile
	collected *collector
	flush     *time.Timer

	batches  chan Batch
	errors   chan error
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// settlingFile tracks a file that may still be changing.
type settlingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a new file watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:    logger,
		opts:      opts,
		fsw:       fsw,
		settling:  make(map[string]*settlingFile),
		collected: newCollector(),
		batches:   make(chan Batch, 16),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}, nil
}

// Watch adds a directory tree to be monitored. Paths in delivered batches
// are joined onto the given path, so watching "." yields paths relative to
// the working directory.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", path)
	}

	return w.watchDir(path, false)
}

// watchDir recursively adds watches below path. When seed is set, files
// already present are recorded too; this covers files copied in together
// with a new directory before its watch was in place.
func (w *Watcher) watchDir(path string, seed bool) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}

		if p != path && w.opts.shouldIgnore(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			if seed {
				w.startSettling(p)
			}
			return nil
		}

		if err := w.fsw.Add(p); err != nil {
			w.logger.Error("failed to add watch", "path", p, "error", err)
			return nil
		}

		w.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start processes file system events until the context is canceled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("dropping watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if w.opts.shouldIgnore(path) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if err := w.watchDir(path, true); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	// A rename reports the old name; the new name arrives as a Create.
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.cancelSettling(path)
		w.record(path, EventRemoved)
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.startSettling(path)
	}
}

// startSettling begins or restarts the settling period for a file.
func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if s, exists := w.settling[path]; exists {
		s.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.settling, path)
		return
	}
	if info.IsDir() {
		return
	}

	w.settling[path] = &settlingFile{
		size:    info.Size(),
		modTime: info.ModTime(),
		timer: time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		}),
	}
}

// checkSettled records the file once it has stopped changing.
func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	s, exists := w.settling[path]
	if !exists {
		w.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err == nil && (info.Size() != s.size || !info.ModTime().Equal(s.modTime)) {
		s.size = info.Size()
		s.modTime = info.ModTime()
		s.timer = time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		})
		w.mu.Unlock()
		return
	}
	delete(w.settling, path)
	w.mu.Unlock()

	if err != nil {
		w.record(path, EventRemoved)
		return
	}
	w.record(path, EventModified)
}

func (w *Watcher) cancelSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if s, exists := w.settling[path]; exists {
		s.timer.Stop()
		delete(w.settling, path)
	}
}

// record adds a change to the current batch and pushes the flush back by
// one batch window.
func (w *Watcher) record(path string, t EventType) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Debug("recorded change", "path", path, "type", t.String())
	w.collected.add(path, t)

	if w.flush != nil {
		w.flush.Stop()
	}
	w.flush = time.AfterFunc(w.opts.BatchWindow, w.deliver)
}

// deliver sends the collected batch unless files are still settling, in
// which case the next record will schedule another flush.
func (w *Watcher) deliver() {
	w.mu.Lock()
	if len(w.settling) > 0 || w.collected.len() == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.collected.drain()
	w.mu.Unlock()

	select {
	case w.batches <- batch:
	case <-w.done:
	}
}

// Batches returns the channel of coalesced change batches. The channel is
// never closed; consumers stop with their context.
func (w *Watcher) Batches() <-chan Batch {
	return w.batches
}

// Errors returns the channel for receiving watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. It is safe to call more
// than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, s := range w.settling {
			s.timer.Stop()
		}
		clear(w.settling)
		if w.flush != nil {
			w.flush.Stop()
		}
		w.mu.Unlock()

		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// Shutdown implements do.Shutdowner.
func (w *Watcher) Shutdown() error {
	return w.Stop()
}
