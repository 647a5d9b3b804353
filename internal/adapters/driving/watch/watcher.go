// Package watch reports file changes under watched paths so that changed
// files can be reindexed. Bursts of events for one path are coalesced
// before the handler sees them.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/logger"
)

// DefaultDebounce is how long events are collected before the handler runs.
const DefaultDebounce = 500 * time.Millisecond

// Change is a coalesced file change.
type Change struct {
	Type domain.ChangeType
	Path string
}

// Handler is called once per changed path after each debounce window.
// Errors are logged and do not stop the watcher.
type Handler func(ctx context.Context, change Change) error

// Watcher watches files and directories recursively.
type Watcher struct {
	fs       *fsnotify.Watcher
	handler  Handler
	filter   func(path string) bool
	debounce time.Duration
}

// New creates a watcher that reports changes to handler.
func New(handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: handler is nil", domain.ErrInvalidInput)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		fs:       fsw,
		handler:  handler,
		debounce: DefaultDebounce,
	}, nil
}

// SetFilter restricts changes to paths for which filter returns true.
// Deletions are always reported for paths that pass the filter.
func (w *Watcher) SetFilter(filter func(path string) bool) {
	w.filter = filter
}

// SetDebounce sets the coalescing window.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Add watches path. Directories are watched recursively, skipping hidden ones.
func (w *Watcher) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return w.fs.Add(path)
	}
	return w.addTree(path)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		logger.Debug("Watching %s", path)
		return nil
	})
}

// Run delivers changes until ctx is cancelled. Pending changes are flushed
// before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	pending := make(map[string]Change)

	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx), pending)
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				w.flush(ctx, pending)
				return nil
			}
			if change := w.handleEvent(event); change != nil {
				merge(pending, *change)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				w.flush(ctx, pending)
				return nil
			}
			logger.Warn("file watcher: %v", err)

		case <-ticker.C:
			w.flush(ctx, pending)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// handleEvent maps an fsnotify event to a change. New directories are added
// to the watch list and produce no change themselves.
func (w *Watcher) handleEvent(event fsnotify.Event) *Change {
	if hasHiddenElement(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !w.accepts(event.Name) {
			return nil
		}
		return &Change{Type: domain.ChangeDeleted, Path: event.Name}

	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.addTree(event.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("watch new directory %s: %v", event.Name, err)
			}
			return nil
		}
		if !w.accepts(event.Name) {
			return nil
		}
		return &Change{Type: domain.ChangeCreated, Path: event.Name}

	case event.Has(fsnotify.Write):
		if !w.accepts(event.Name) {
			return nil
		}
		return &Change{Type: domain.ChangeUpdated, Path: event.Name}
	}

	return nil
}

func (w *Watcher) accepts(path string) bool {
	return w.filter == nil || w.filter(path)
}

func (w *Watcher) flush(ctx context.Context, pending map[string]Change) {
	if len(pending) == 0 {
		return
	}

	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		change := pending[p]
		delete(pending, p)
		logger.Debug("File %s: %s", change.Type, change.Path)
		if err := w.handler(ctx, change); err != nil {
			logger.Warn("handle %s %s: %v", change.Type, change.Path, err)
		}
	}
}

// merge coalesces a change into pending. A create followed by writes stays a
// create; a delete always wins until the path reappears.
func merge(pending map[string]Change, change Change) {
	prev, ok := pending[change.Path]
	if ok && prev.Type == domain.ChangeCreated && change.Type == domain.ChangeUpdated {
		return
	}
	pending[change.Path] = change
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func hasHiddenElement(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if isHidden(part) {
			return true
		}
	}
	return false
}
