package graph

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/sym"
)

// DefaultWatchDebounce coalesces the events of one dataset rewrite
const DefaultWatchDebounce = 500 * time.Millisecond

// LoadFunc reads the watched dataset
type LoadFunc func() (*Graph, error)

// RefreshCallback receives a freshly loaded dataset
type RefreshCallback func(*Graph) error

// Watcher reloads a dataset when its file changes. It watches the parent
// directory so datasets replaced by rename are still seen; SQLite -wal and
// -journal siblings count as changes to the database.
type Watcher struct {
	path           string
	watcher        *fsnotify.Watcher
	load           LoadFunc
	callbacks      []RefreshCallback
	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	logger         *zap.SugaredLogger
}

// NewWatcher creates a watcher for the dataset at path. load is called
// after each debounced change.
func NewWatcher(path string, load LoadFunc, log *zap.SugaredLogger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve dataset path %s", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch dataset directory of %s", abs)
	}

	return &Watcher{
		path:           abs,
		watcher:        fw,
		load:           load,
		debouncePeriod: DefaultWatchDebounce,
		logger:         log.With(logger.FieldSymbol, sym.Dataset),
	}, nil
}

// OnReload registers a callback for reloaded datasets
func (w *Watcher) OnReload(callback RefreshCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// SetDebounce changes the coalescing window
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debouncePeriod = d
}

// Start begins watching
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.concerns(event.Name) {
				continue
			}
			w.logger.Debugw("Dataset change detected", logger.FieldPath, event.Name, "op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Dataset watcher error", logger.FieldError, err)
		}
	}
}

// concerns reports whether a file event belongs to the watched dataset
func (w *Watcher) concerns(name string) bool {
	name = filepath.Clean(name)
	if name == w.path {
		return true
	}
	suffix := strings.TrimPrefix(name, w.path)
	return suffix != name && (suffix == "-wal" || suffix == "-journal")
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		if err := w.reload(); err != nil {
			w.logger.Errorw("Dataset reload failed, keeping current graph", logger.FieldPath, w.path, logger.FieldError, err)
		}
	})
}

// reload loads the dataset and hands it to every callback. A dataset that
// fails to load never reaches a callback.
func (w *Watcher) reload() error {
	g, err := w.load()
	if err != nil {
		return errors.Wrap(err, "failed to reload dataset")
	}

	w.logger.Infow("Dataset reloaded",
		logger.FieldPath, w.path,
		logger.FieldDatasetID, g.Meta.DatasetID,
		logger.FieldNodeCount, len(g.Nodes),
	)

	w.mu.Lock()
	callbacks := make([]RefreshCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, callback := range callbacks {
		if err := callback(g); err != nil {
			w.logger.Warnw("Dataset reload callback error", logger.FieldError, err)
		}
	}
	return nil
}

// Stop stops watching
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}
