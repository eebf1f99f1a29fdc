package configloader

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperrotate"
	"github.com/hyp3rd/hyperrotate/pkg/rotating"
)

// DefaultDebounce coalesces the bursts of events editors produce when saving a file.
const DefaultDebounce = 100 * time.Millisecond

// ThresholdApplier receives the thresholds of a reloaded configuration from the watcher's
// goroutine. *rotating.Sink implements it and is safe to use when bound to a queue.
type ThresholdApplier interface {
	ApplyThresholds(thresholds rotating.Thresholds) error
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for further changes before reloading.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithEvents routes reload failures and applied changes to events.
func WithEvents(events hyperrotate.EventSink) WatchOption {
	return func(w *Watcher) {
		w.events = hyperrotate.OrNoop(events)
	}
}

// WithReloadHook registers fn to be called with the outcome of every reload.
func WithReloadHook(fn func(cfg *hyperrotate.Config, err error)) WatchOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// Watcher reloads a configuration file when it changes and applies its thresholds to a sink.
// Only thresholds are applied: the file path, identifier and queue of a live sink never change.
type Watcher struct {
	path     string
	target   ThresholdApplier
	watcher  *fsnotify.Watcher
	debounce time.Duration
	events   hyperrotate.EventSink
	onReload func(cfg *hyperrotate.Config, err error)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// Watch starts watching path and applies the thresholds of every successful reload to target.
// The folder of path is watched rather than the file, so editors that replace the file
// on save are followed. Call Close to stop.
func Watch(path string, target ThresholdApplier, opts ...WatchOption) (*Watcher, error) {
	if target == nil {
		return nil, ewrap.New("watch target is required")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to create file watcher")
	}

	dir := filepath.Dir(path)

	err = fsWatcher.Add(dir)
	if err != nil {
		return nil, errors.Join(
			ewrap.Wrap(err, "failed to watch configuration folder").WithMetadata("path", dir),
			fsWatcher.Close(),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())

	watcher := &Watcher{
		path:     path,
		target:   target,
		watcher:  fsWatcher,
		debounce: DefaultDebounce,
		events:   hyperrotate.NoopSink{},
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(watcher)
	}

	go watcher.run()

	return watcher, nil
}

// Close stops watching. Reloads already scheduled are cancelled.
func (w *Watcher) Close() error {
	w.mu.Lock()

	select {
	case <-w.ctx.Done():
		w.mu.Unlock()

		return nil
	default:
	}

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.cancel()
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done

	if err != nil {
		return ewrap.Wrap(err, "closing file watcher")
	}

	return nil
}

func (w *Watcher) run() {
	defer close(w.done)

	name := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			w.handleEvent(event, name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.events.Event(hyperrotate.WarnLevel, "configuration watch error",
				hyperrotate.Path(w.path), hyperrotate.Err(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, name string) {
	if filepath.Base(event.Name) != name {
		return
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}

	cfg, err := FromFile(w.path)
	if err == nil {
		err = w.target.ApplyThresholds(rotating.ThresholdsFromConfig(*cfg))
	}

	if err != nil {
		w.events.Event(hyperrotate.ErrorLevel, "reloading configuration failed",
			hyperrotate.Path(w.path), hyperrotate.Err(err))
	} else {
		w.events.Event(hyperrotate.InfoLevel, "configuration reloaded",
			hyperrotate.Path(w.path),
			hyperrotate.Uint64("max_file_size", cfg.MaxFileSize),
			hyperrotate.Duration("max_age", cfg.MaxAge),
			hyperrotate.Int("max_archive_count", int(cfg.MaxArchiveCount)),
		)
	}

	if w.onReload != nil {
		w.onReload(cfg, err)
	}
}
