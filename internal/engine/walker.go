package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bamsammich/dedupe/internal/event"
	"github.com/bamsammich/dedupe/internal/filter"
	"github.com/bamsammich/dedupe/internal/stats"
)

// Root validation errors.
var (
	ErrNotFound      = errors.New("no such directory")
	ErrNotADirectory = errors.New("not a directory")
)

// WalkerConfig controls directory traversal.
type WalkerConfig struct {
	Root      string
	Recursive bool
	Filter    *filter.Chain // nil = filter.NewChain()
	Stats     *stats.Collector
	Events    chan<- event.Event
}

// Walker enumerates the scannable files below a root directory.
type Walker struct {
	cfg  WalkerConfig
	root string
}

// NewWalker validates the root directory. It fails with ErrNotFound or
// ErrNotADirectory before any traversal happens.
func NewWalker(cfg WalkerConfig) (*Walker, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.Root, err)
	}
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("%s: %w", cfg.Root, ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("stat %s: %w", cfg.Root, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%s: %w", cfg.Root, ErrNotADirectory)
	}

	if cfg.Filter == nil {
		cfg.Filter = filter.NewChain()
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	return &Walker{cfg: cfg, root: root}, nil
}

// Root returns the absolute scan root.
func (w *Walker) Root() string { return w.root }

// Walk returns a lazy depth-first sequence of the files that pass the filter.
// Pending directories live on an explicit stack, so tree depth never grows
// the goroutine stack. Within a directory, entries are visited in name order.
// Unreadable directories and entries are skipped. The sequence ends early
// when ctx is cancelled.
func (w *Walker) Walk(ctx context.Context) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		index := 0
		stack := []string{w.root}

		for len(stack) > 0 {
			if ctx.Err() != nil {
				return
			}
			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			entries, err := os.ReadDir(dir)
			if err != nil {
				w.skip(ctx, dir, err)
				// ReadDir may return a partial listing alongside the error.
				if len(entries) == 0 {
					continue
				}
			}

			var subdirs []string
			for _, de := range entries {
				if ctx.Err() != nil {
					return
				}
				path := filepath.Join(dir, de.Name())
				rel, _ := filepath.Rel(w.root, path)
				rel = filepath.ToSlash(rel)

				if de.IsDir() {
					if w.descend(de.Name(), rel) {
						subdirs = append(subdirs, path)
					}
					continue
				}

				info, err := de.Info()
				if err != nil {
					w.skip(ctx, path, err)
					continue
				}
				if !w.cfg.Filter.IncludeInfo(rel, info) {
					continue
				}

				w.cfg.Stats.AddFilesScanned(1)
				w.cfg.Stats.AddBytesScanned(info.Size())
				if !yield(Entry{Path: path, Size: info.Size(), Index: index}) {
					return
				}
				index++
			}

			// Reverse so the first subdirectory by name is popped first.
			slices.Reverse(subdirs)
			stack = append(stack, subdirs...)
		}
	}
}

func (w *Walker) descend(name, rel string) bool {
	if !w.cfg.Recursive {
		return false
	}
	if w.cfg.Filter.ExcludeDir(name) {
		return false
	}
	return w.cfg.Filter.Match(rel, true, 0)
}

func (w *Walker) skip(ctx context.Context, path string, err error) {
	slog.Debug("skipping unreadable path", "path", path, "error", err)
	w.cfg.Stats.AddFilesSkipped(1)
	event.Send(ctx, w.cfg.Events, event.Event{
		Type:  event.FileSkipped,
		Path:  path,
		Error: err,
	})
}
