package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 300 * time.Millisecond

// ChangeHandler is called once per settled *.json file.
type ChangeHandler func(ctx context.Context, path string) error

// WatchWorker watches a directory and hands changed JSON files to a handler.
type WatchWorker struct {
	watcher  *fsnotify.Watcher
	dir      string
	handle   ChangeHandler
	debounce time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	done    chan struct{}
	stop    context.CancelFunc
}

func NewWatchWorker(dir string, handle ChangeHandler, debounce time.Duration, logger zerolog.Logger) (*WatchWorker, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("worker.NewWatchWorker: %w", err)
	}
	return &WatchWorker{
		watcher:  watcher,
		dir:      dir,
		handle:   handle,
		debounce: debounce,
		logger:   logger.With().Str("component", "watch-worker").Str("dir", dir).Logger(),
		pending:  make(map[string]time.Time),
		done:     make(chan struct{}),
	}, nil
}

// Start adds the directory and runs the event loop until Stop or ctx ends.
func (w *WatchWorker) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		w.watcher.Close()
		return fmt.Errorf("worker.WatchWorker.Start: %w", err)
	}
	ctx, w.stop = context.WithCancel(ctx)
	go w.run(ctx)
	w.logger.Info().Msg("Watching data directory")
	return nil
}

// Stop ends the loop and releases the watcher.
func (w *WatchWorker) Stop() error {
	if w.stop != nil {
		w.stop()
		<-w.done
	}
	return w.watcher.Close()
}

func (w *WatchWorker) run(ctx context.Context) {
	defer close(w.done)

	tick := time.NewTicker(w.debounce / 3)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.record(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		case now := <-tick.C:
			for _, path := range w.settled(now) {
				if err := w.handle(ctx, path); err != nil {
					w.logger.Warn().Err(err).Str("file", path).Msg("Changed file could not be applied")
					continue
				}
				w.logger.Info().Str("file", path).Msg("Applied changed file")
			}
		}
	}
}

func (w *WatchWorker) record(ev fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".json") {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	w.mu.Lock()
	w.pending[ev.Name] = time.Now()
	w.mu.Unlock()
}

// settled pops every path that has been quiet for the debounce window.
func (w *WatchWorker) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	return out
}
