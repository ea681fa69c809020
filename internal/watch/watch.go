// Package watch reports files that have settled after a burst of writes.
// Every path is its own debounce key, so a busy file never delays another.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bounce/internal/loop"
	"github.com/charmbracelet/bounce/internal/pubsub"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// Change is the last filesystem event seen for a path before it settled.
type Change struct {
	Path string
	Op   fsnotify.Op
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s", strings.ToLower(c.Op.String()), c.Path)
}

// Options configures a Watcher.
type Options struct {
	// Delay is the quiet period a path needs before it is reported.
	Delay time.Duration
	// Extensions limits reports to files with these extensions. Empty means
	// every file.
	Extensions []string
}

// Watcher debounces filesystem events per path.
type Watcher struct {
	opts Options
	fs   *fsnotify.Watcher
	loop *loop.Loop[Change]
}

// New starts watching paths. Directories are watched non-recursively. The
// caller must either Run or Close the returned Watcher.
func New(paths []string, opts Options) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no paths to watch")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	for _, p := range paths {
		if err := fs.Add(p); err != nil {
			fs.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", p, err)
		}
		slog.Debug("Watching path", "path", p)
	}

	return &Watcher{
		opts: opts,
		fs:   fs,
		loop: loop.New[Change]("watch"),
	}, nil
}

// Close stops watching. It is safe to call more than once and after Run.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run reports settled paths to fn until ctx is done. fn is called from a
// single goroutine. The watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, fn func(Change)) error {
	defer w.Close()

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	settled := w.loop.Subscribe(subCtx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.loop.Run(ctx)
	})
	g.Go(func() error {
		return w.forward(ctx)
	})
	g.Go(func() error {
		for ev := range settled {
			switch ev.Type {
			case pubsub.DispatchedEvent:
				fn(ev.Payload)
			case pubsub.DroppedEvent:
				slog.Warn("Dropped change", "path", ev.Key, "op", ev.Payload.Op.String())
			}
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Watcher) forward(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.wants(event) {
				continue
			}
			change := Change{Path: event.Name, Op: event.Op}
			if err := w.loop.Bounce(ctx, w.opts.Delay, event.Name, change); err != nil {
				return err
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) wants(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if len(w.opts.Extensions) == 0 {
		return true
	}
	return slices.Contains(w.opts.Extensions, filepath.Ext(event.Name))
}
