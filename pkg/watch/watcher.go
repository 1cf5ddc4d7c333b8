// Package watch re-runs work when Java sources change on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/focal/pkg/config"
	"github.com/panbanda/focal/pkg/parser"
)

// DefaultDebounce is the quiet period after the last event on a file.
const DefaultDebounce = 300 * time.Millisecond

// Callback is invoked with the absolute path of a changed file. Callbacks
// run one at a time on the watcher's goroutine.
type Callback func(path string)

// Watcher watches files and directory trees for changes to Java sources.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	logger    *slog.Logger

	files map[string]bool // explicitly watched files
	roots []string        // watched directory trees

	callback Callback
	mu       sync.Mutex
	pending  map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithConfig sets the exclusion rules used for directory trees.
func WithConfig(cfg *config.Config) Option {
	return func(w *Watcher) {
		if cfg != nil {
			w.config = cfg
		}
	}
}

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for paths. A file path is watched on its
// own; a directory is watched recursively for Java files.
func NewWatcher(paths []string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		config:   config.DefaultConfig(),
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		files:    make(map[string]bool),
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			w.roots = append(w.roots, abs)
		} else {
			w.files[abs] = true
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsWatcher = fsWatcher
	return w, nil
}

// SetCallback sets the function called after a file settles.
func (w *Watcher) SetCallback(cb Callback) {
	w.mu.Lock()
	w.callback = cb
	w.mu.Unlock()
}

// Start registers the watches and processes events until ctx is done.
// It returns ctx.Err() on cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatches(); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go w.processDebounced(done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// addWatches watches the parent directory of each file and every
// non-excluded directory of each tree.
func (w *Watcher) addWatches() error {
	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for _, root := range w.roots {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if p != root && slices.Contains(w.config.Exclude.Dirs, d.Name()) {
				return filepath.SkipDir
			}
			dirs[p] = true
			return nil
		})
		if err != nil {
			return err
		}
	}

	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}
	w.logger.Debug("watching", slog.Int("dirs", len(dirs)), slog.Int("files", len(w.files)))
	return nil
}

// matches reports whether path is a file this watcher reports on.
func (w *Watcher) matches(path string) bool {
	if w.files[path] {
		return true
	}
	if parser.DetectLanguage(path) != parser.LangJava {
		return false
	}
	for _, root := range w.roots {
		if rel, ok := relUnder(root, path); ok && !w.config.ShouldExclude(rel) {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	// New directories inside a watched tree are watched too
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.inTree(event.Name) && !slices.Contains(w.config.Exclude.Dirs, filepath.Base(event.Name)) {
				_ = w.fsWatcher.Add(event.Name)
			}
			return
		}
	}

	if !w.matches(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) inTree(path string) bool {
	for _, root := range w.roots {
		if _, ok := relUnder(root, path); ok {
			return true
		}
	}
	return false
}

// relUnder returns path relative to root when path lies inside root.
func relUnder(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) processDebounced(done <-chan struct{}) {
	ticker := time.NewTicker(w.debounce / 3)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending runs the callback for every path that has been quiet for
// the debounce period, in path order.
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	cb := w.callback
	w.mu.Unlock()

	if cb == nil {
		return
	}
	slices.Sort(ready)
	for _, path := range ready {
		w.logger.Debug("file changed", slog.String("path", path))
		cb(path)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories registered with the OS.
func (w *Watcher) WatchedDirs() []string {
	dirs := w.fsWatcher.WatchList()
	slices.Sort(dirs)
	return dirs
}
