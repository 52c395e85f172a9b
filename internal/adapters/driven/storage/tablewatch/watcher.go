// Package tablewatch invalidates cached tables when their file changes on disk.
package tablewatch

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// DefaultDebounce coalesces the bursts of events a single rebuild produces.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls a handler after the table file at a path is created,
// written, renamed over or removed. The parent directory is watched so
// atomic replacements are seen.
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	stop    chan struct{}
	done    chan struct{}
	started bool
	closed  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New creates a watcher for the table at path.
func New(path string, onChange func(), opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: DefaultDebounce,
		watcher:  fw,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. The table's directory must exist.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.loop()
	logger.Debug("watching table %s", w.path)
	return nil
}

// Stop halts the watcher. Pending notifications are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	started := w.started
	w.mu.Unlock()

	close(w.stop)
	err := w.watcher.Close()
	if started {
		<-w.done
	}
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("table watcher: %v", err)
		}
	}
}

// relevant matches the table file and the SQLite WAL beside it.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == w.path || strings.TrimSuffix(name, "-wal") == w.path
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	logger.Info("table %s changed on disk, reloading on next query", w.path)
	w.onChange()
}
