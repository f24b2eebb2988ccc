// Package watch rebuilds the post index whenever post files or the config file change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dotcommander/postindex/internal/logger"
	"github.com/dotcommander/postindex/internal/project"
	"github.com/fsnotify/fsnotify"
)

// BuildFunc runs one build. Errors are logged and do not stop the watcher.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Root    string
	Pattern string
	// ConfigFiles are config file names in Root whose creation or change triggers a
	// rebuild. Empty means project.ConfigFiles.
	ConfigFiles []string
	Debounce    time.Duration
	Logger      *logger.Logger
}

// Watcher watches the directories a content pattern can match.
type Watcher struct {
	opts   Options
	build  BuildFunc
	log    *logger.Logger
	dirs   map[string]bool
	builds atomic.Int64

	mu      sync.Mutex
	pattern string
}

// New creates a Watcher that calls build after changes settle.
func New(opts Options, build BuildFunc) *Watcher {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	if abs, err := filepath.Abs(opts.Root); err == nil {
		opts.Root = abs
	}
	if len(opts.ConfigFiles) == 0 {
		opts.ConfigFiles = project.ConfigFiles
	}
	return &Watcher{
		opts:    opts,
		build:   build,
		log:     log,
		dirs:    make(map[string]bool),
		pattern: opts.Pattern,
	}
}

// Builds returns how many builds have finished.
func (w *Watcher) Builds() int64 {
	return w.builds.Load()
}

// SetPattern changes the content pattern. Directories for the new pattern are watched
// after the current build finishes.
func (w *Watcher) SetPattern(pattern string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pattern = pattern
}

// Pattern returns the content pattern in use.
func (w *Watcher) Pattern() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pattern
}

// Run builds once and then after every batch of relevant changes, until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating file watcher: %w", err)
	}
	defer fw.Close()

	// The root is always watched so config files created later are seen.
	if err := fw.Add(w.opts.Root); err != nil {
		return fmt.Errorf("error watching %s: %w", w.opts.Root, err)
	}
	if err := w.watchPattern(fw); err != nil {
		return err
	}

	w.rebuild(ctx, fw)

	debounce := time.NewTimer(0)
	<-debounce.C
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fw, event) {
				debounce.Reset(w.opts.Debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)

		case <-debounce.C:
			w.rebuild(ctx, fw)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context, fw *fsnotify.Watcher) {
	if err := w.build(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.log.Error("rebuild failed", "error", err)
	}
	if err := w.watchPattern(fw); err != nil {
		w.log.Warn("cannot watch content directory", "error", err)
	}
	w.builds.Add(1)
}

// watchPattern adds the directory tree the current pattern can match, if not yet watched.
func (w *Watcher) watchPattern(fw *fsnotify.Watcher) error {
	base := w.baseDir()
	if w.dirs[base] {
		return nil
	}
	if err := w.addTree(fw, base); err != nil {
		return fmt.Errorf("error watching %s: %w", base, err)
	}
	w.log.Info("watching for changes", "dir", base, "pattern", w.Pattern())
	return nil
}

// handleEvent tracks new and removed directories and reports whether event should
// trigger a rebuild.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Clean(event.Name)

	if w.isConfigFile(name) {
		w.log.Debug("config file changed", "file", name)
		return true
	}

	if event.Has(fsnotify.Create) && w.underBase(name) && !strings.HasPrefix(filepath.Base(name), ".") {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if err := w.addTree(fw, name); err != nil {
				w.log.Warn("cannot watch new directory", "dir", name, "error", err)
			}
			return true
		}
	}

	if (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) && w.dirs[name] {
		delete(w.dirs, name)
		return true
	}

	if w.matches(name) {
		w.log.Debug("post changed", "file", name, "op", event.Op.String())
		return true
	}
	return false
}

func (w *Watcher) isConfigFile(path string) bool {
	if filepath.Dir(path) != w.opts.Root {
		return false
	}
	base := filepath.Base(path)
	for _, name := range w.opts.ConfigFiles {
		if base == name {
			return true
		}
	}
	return false
}

func (w *Watcher) underBase(path string) bool {
	rel, err := filepath.Rel(w.baseDir(), path)
	return err == nil && !strings.HasPrefix(rel, "..")
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.opts.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	ok, err := doublestar.Match(w.Pattern(), filepath.ToSlash(rel))
	return err == nil && ok
}

// baseDir is the deepest existing directory that holds every file the pattern can match.
func (w *Watcher) baseDir() string {
	base, _ := doublestar.SplitPattern(w.Pattern())
	dir := filepath.Join(w.opts.Root, filepath.FromSlash(base))
	for dir != w.opts.Root {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		dir = filepath.Dir(dir)
	}
	return w.opts.Root
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
			return filepath.SkipDir
		}
		if w.dirs[path] {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return err
		}
		w.dirs[path] = true
		return nil
	})
}
