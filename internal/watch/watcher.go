// Package watch enqueues files dropped into a configured inbox directory.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"scribeq/internal/logging"
)

// settleDelay is how long a file must stay quiet after its last write event
// before it is considered fully copied and enqueued.
const settleDelay = 2 * time.Second

// EnqueueFunc adds one settled file to the queue.
type EnqueueFunc func(ctx context.Context, path string) error

// Watcher monitors an inbox directory and enqueues files once writes settle.
type Watcher struct {
	dir     string
	enqueue EnqueueFunc
	logger  *slog.Logger

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	timers  map[string]*time.Timer
	running bool
}

// New creates a watcher over dir. Start must be called to begin watching.
func New(dir string, enqueue EnqueueFunc, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:     dir,
		enqueue: enqueue,
		logger:  logging.NewComponentLogger(logger, "watch"),
		timers:  make(map[string]*time.Timer),
	}
}

// Start begins watching the inbox directory. Files already present when the
// watcher starts are enqueued immediately.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fs.Add(w.dir); err != nil {
		_ = fs.Close()
		return err
	}

	w.fs = fs
	w.running = true
	go w.loop(ctx, fs)
	go w.drainExisting(ctx)

	w.logger.Info("inbox watcher started", logging.String("dir", w.dir))
	return nil
}

// Stop ends watching and cancels pending settle timers.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.fs != nil {
		_ = w.fs.Close()
		w.fs = nil
	}
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.running = false
	w.logger.Info("inbox watcher stopped")
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, fs *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.scheduleSettle(ctx, event.Name)
			}
		case err, ok := <-fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watcher error", logging.Error(err))
		}
	}
}

// scheduleSettle resets the settle timer for a path. Repeated write events
// while a large file copies in keep pushing the enqueue back.
func (w *Watcher) scheduleSettle(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.settled(ctx, path)
	})
}

func (w *Watcher) settled(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return
	}
	if err := w.enqueue(ctx, path); err != nil {
		w.logger.Warn("failed to enqueue inbox file",
			logging.String("path", filepath.Base(path)),
			logging.Error(err))
		return
	}
	w.logger.Info("inbox file enqueued", logging.String("path", filepath.Base(path)))
}

func (w *Watcher) drainExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to scan inbox directory", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.settled(ctx, filepath.Join(w.dir, entry.Name()))
	}
}
