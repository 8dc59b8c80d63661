// Package watch turns file system notifications on graph description files
// into debounced rebuild requests.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/pipegrid/internal/ctxlog"
)

// Op is the kind of change observed on a file.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
	OpRename
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one observed file change.
type Change struct {
	Path string
	Op   Op
	Time time.Time
}

// Handler receives one debounced batch. Each path appears once, with its
// latest operation.
type Handler func(ctx context.Context, changes []Change)

// Options tune a Watcher.
type Options struct {
	// Debounce is the quiet period after the last event before a batch is
	// delivered.
	Debounce time.Duration
	// Extensions restricts the files that trigger a batch. Empty means all.
	Extensions []string
	// Ignore holds base names or glob patterns whose directories are not
	// watched and whose events are dropped.
	Ignore []string
}

// DefaultOptions returns the options used by the watch command.
func DefaultOptions() Options {
	return Options{
		Debounce:   200 * time.Millisecond,
		Extensions: []string{".hcl", ".json"},
		Ignore:     []string{".git", "*.swp", "*.tmp", "*~"},
	}
}

// Watcher observes a set of files and directories.
type Watcher struct {
	fsw  *fsnotify.Watcher
	opts Options
}

// New creates a watcher over paths. Directories are watched recursively;
// for a file its parent directory is watched and events are filtered by
// extension.
func New(paths []string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultOptions().Debounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{fsw: fsw, opts: opts}
	for _, p := range paths {
		if err := w.add(p); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	if !info.IsDir() {
		return w.addDir(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != path && w.ignored(p) {
			return filepath.SkipDir
		}
		return w.addDir(p)
	})
}

func (w *Watcher) addDir(dir string) error {
	if slices.Contains(w.fsw.WatchList(), dir) {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.opts.Ignore {
		if base == pattern {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) relevant(path string) bool {
	if w.ignored(path) {
		return false
	}
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(w.opts.Extensions, ext)
}

// Run delivers debounced batches to h until ctx is canceled or the watcher
// is closed. It blocks; h runs on the calling goroutine so batches never
// overlap. A pending batch is dropped on cancellation.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	logger := ctxlog.FromContext(ctx)
	var (
		pending = make(map[string]Change)
		timer   *time.Timer
		timerC  <-chan time.Time
	)
	stop := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !w.ignored(ev.Name) {
					if err := w.add(ev.Name); err != nil {
						logger.Warn("Watch: could not follow new directory.", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if !w.relevant(ev.Name) {
				continue
			}
			pending[ev.Name] = Change{Path: ev.Name, Op: convertOp(ev.Op), Time: time.Now()}
			logger.Debug("Watch: change observed.", "path", ev.Name, "op", ev.Op.String())
			stop()
			timer = time.NewTimer(w.opts.Debounce)
			timerC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch: notification error.", "error", err)

		case <-timerC:
			timer, timerC = nil, nil
			batch := make([]Change, 0, len(pending))
			for _, c := range pending {
				batch = append(batch, c)
			}
			clear(pending)
			slices.SortFunc(batch, func(a, b Change) int { return strings.Compare(a.Path, b.Path) })
			h(ctx, batch)
		}
	}
}

// Close releases the underlying notifier and ends Run.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}
