// Package watch re-runs a task set when its definition file changes.
package watch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/runlet/internal/logging"
)

// DefaultDebounce is the quiet period required after a burst of filesystem
// events before the callback fires. Editors commonly emit several events
// for a single save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher observes one task definition file and invokes a callback after
// each debounced change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	file     string
	debounce time.Duration
	onChange func()
	logger   *logging.Logger
	stopCh   chan struct{}
}

// New creates a Watcher for the given file. The callback runs on the watch
// goroutine, so a slow callback delays (but never drops) later changes.
func New(file string, debounce time.Duration, onChange func(), logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the parent directory rather than the file itself: editors that
	// save via rename-replace would otherwise detach the watch on the
	// first write.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fsw,
		file:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins the event loop.
func (w *Watcher) Start() {
	go w.loop()
}

// Close stops the event loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	close(w.stopCh)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C

	pending := false

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}

			w.logger.Debug("task file changed", "file", w.file, "op", event.Op.String())
			pending = true
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if !pending {
				continue
			}
			pending = false
			w.logger.Info("re-running after change", "file", w.file)
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}
