// Package watch re-runs the augmenter when the schema or a migration changes.
package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/prisma-rls/migrate/migrations"
)

// DefaultDebounce is the quiet period before the callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a schema file and a migrations directory tree.
type Watcher struct {
	schema   string
	root     string
	callback func() error
	watcher  *fsnotify.Watcher
	done     chan struct{}
	logger   *slog.Logger

	// Debounce is the quiet period before the callback runs.
	Debounce time.Duration
	// OnError receives callback and watcher errors. Defaults to stderr.
	OnError func(error)
}

// NewWatcher creates a watcher for schema and every directory below root.
func NewWatcher(schema, root string, callback func() error, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		callback: callback,
		watcher:  watcher,
		done:     make(chan struct{}),
		logger:   logger,
		Debounce: DefaultDebounce,
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
		},
	}

	if w.schema, err = filepath.Abs(schema); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if w.root, err = filepath.Abs(root); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Editors often replace the schema file, so watch its directory.
	if err := watcher.Add(filepath.Dir(w.schema)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch schema directory: %w", err)
	}
	if err := w.addTree(w.root); err != nil {
		watcher.Close()
		return nil, err
	}

	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// Start runs the callback once and then on every relevant change.
func (w *Watcher) Start() error {
	if err := w.callback(); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	debounceTimer := time.NewTimer(w.Debounce)
	debounceTimer.Stop()
	var debounceCh <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handle(event) {
				debounceTimer.Reset(w.Debounce)
				debounceCh = debounceTimer.C
			}

		case <-debounceCh:
			debounceCh = nil
			if err := w.callback(); err != nil {
				w.OnError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.OnError(err)

		case <-w.done:
			debounceTimer.Stop()
			return
		}
	}
}

// handle reports whether event should trigger the callback. New
// directories below root are added to the watch list.
func (w *Watcher) handle(event fsnotify.Event) bool {
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	if path == w.schema {
		return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
	}

	if event.Has(fsnotify.Create) && w.within(path) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				w.OnError(err)
			}
			return true
		}
	}

	if filepath.Base(path) == migrations.ScriptName && w.within(path) {
		w.logger.Debug("migration changed", "path", path, "op", event.Op.String())
		return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
	}
	return false
}

func (w *Watcher) within(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !filepath.IsAbs(rel) && (len(rel) < 3 || rel[:3] != ".."+string(filepath.Separator))
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
