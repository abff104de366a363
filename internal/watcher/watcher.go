// Package watcher watches the corpus category directories and reports changes in
// debounced batches so the index can be rebuilt.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/petqa/pkg/utils"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ChangeFunc receives the changed files of one debounced batch, sorted.
type ChangeFunc func(paths []string)

// Watcher watches a content root and its category directories. Category directories are
// flat, so subdirectories are not watched.
type Watcher struct {
	root       string
	categories map[string]struct{}
	extensions []string
	onChange   ChangeFunc
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	watched  map[string]struct{}
	pending  map[string]struct{}
	timer    *time.Timer
	timerGen uint64
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for watch events.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets the quiet period after the last event before onChange fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for the category directories (names relative to root).
// extensions filters which files count as changes (empty = all).
func NewWatcher(root string, categories, extensions []string, onChange ChangeFunc, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		root:       filepath.Clean(root),
		categories: make(map[string]struct{}, len(categories)),
		extensions: extensions,
		onChange:   onChange,
		debounce:   defaultDebounce,
		watched:    make(map[string]struct{}),
		pending:    make(map[string]struct{}),
		done:       make(chan struct{}),
	}
	for _, c := range categories {
		w.categories[c] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = utils.OrNop(w.logger)
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called. Category
// directories that do not exist yet are picked up when they are created under root.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		return err
	}
	w.fsw = fsw
	w.started = true
	for name := range w.categories {
		w.addCategoryLocked(filepath.Join(w.root, name))
	}
	w.logger.Debug("watcher started",
		zap.String("root", w.root),
		zap.Int("directories", len(w.watched)),
		zap.Duration("debounce", w.debounce))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) addCategoryLocked(dir string) {
	if _, ok := w.watched[dir]; ok {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		w.logger.Debug("category directory not present, waiting for it", zap.String("dir", dir))
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn("failed to watch directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	w.watched[dir] = struct{}{}
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	parent := filepath.Dir(path)
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	if parent == w.root {
		// A category directory appeared (or was replaced); its files count as changed.
		if _, ok := w.categories[filepath.Base(path)]; ok && ev.Has(fsnotify.Create) {
			w.mu.Lock()
			if w.fsw != nil {
				w.addCategoryLocked(path)
			}
			w.mu.Unlock()
			w.schedule(path)
		} else if ok && (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) {
			w.mu.Lock()
			delete(w.watched, path)
			w.mu.Unlock()
			w.schedule(path)
		}
		return
	}
	if _, ok := w.categories[filepath.Base(parent)]; !ok || filepath.Dir(parent) != w.root {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if matchExtension(path, w.extensions) {
		w.schedule(path)
	}
}

// schedule records a change and restarts the quiet period. Each restart arms a new timer
// tagged with a generation, so a timer that already fired cannot flush a later burst early.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerGen++
	gen := w.timerGen
	w.timer = time.AfterFunc(w.debounce, func() { w.flush(gen) })
}

func (w *Watcher) flush(gen uint64) {
	w.mu.Lock()
	if gen != w.timerGen {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	if len(w.pending) == 0 || !w.started {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	sort.Strings(paths)
	w.logger.Info("corpus changed", zap.Int("paths", len(paths)))
	if w.onChange != nil {
		w.onChange(paths)
	}
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// Directories returns the category directories currently watched, sorted.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.watched))
	for d := range w.watched {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Stop stops watching and drops pending changes.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.timerGen++
	w.pending = make(map[string]struct{})
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
