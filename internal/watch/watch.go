// Package watch monitors a spool directory and runs the pipeline once per
// dropped record file. Writes are debounced so a file is only picked up
// after its producer goes quiet.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fold-labs/windrow/pkg/log"
)

// RunFunc processes one spooled record file.
type RunFunc func(ctx context.Context, path string) error

// Watcher triggers a RunFunc for each JSONL file created or modified in a
// directory.
type Watcher struct {
	dir      string
	debounce time.Duration
	run      RunFunc
	logger   log.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher for dir. A zero debounce defaults to 500ms.
func New(dir string, run RunFunc, logger log.Logger, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		run:      run,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
}

// Run blocks watching the directory until the context is cancelled or the
// underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching spool directory", log.Str("dir", w.dir))

	// Runs happen on this goroutine; the engine stays single-threaded.
	pending := make(chan string, 16)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return ctx.Err()
		case path := <-pending:
			if err := w.run(ctx, path); err != nil {
				w.logger.Error("spooled run failed", log.Str("file", path), log.Err(err))
			}
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.wants(event) {
				continue
			}
			w.schedule(event.Name, pending)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", log.Err(err))
		}
	}
}

func (w *Watcher) wants(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".jsonl")
}

// schedule (re)arms the per-file debounce timer.
func (w *Watcher) schedule(path string, pending chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case pending <- path:
		default:
			w.logger.Warn("dropping spooled file, queue full", log.Str("file", path))
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.timers {
		t.Stop()
	}
}
