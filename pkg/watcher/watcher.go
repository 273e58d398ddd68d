// Package watcher signals when the client log file is replaced, removed or
// recreated, so that readers positioned in the old file can start over.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const rotationOps = fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watcher forwards rotation events for one path.
type Watcher struct {
	path      string
	logger    *slog.Logger
	rotations chan struct{}
}

// New returns a Watcher for path. Signals are coalesced: at most one is
// buffered until the consumer drains it.
func New(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		path:      filepath.Clean(path),
		logger:    logger.With("component", "watcher"),
		rotations: make(chan struct{}, 1),
	}
}

// Rotations is the receive side of the rotation signal.
func (w *Watcher) Rotations() <-chan struct{} {
	return w.rotations
}

// Run watches the parent directory of the log until ctx is cancelled. It
// returns an error only if the watch cannot be established; errors reported
// by the watch itself are logged and ignored.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating log watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching log dir %s: %w", dir, err)
	}
	w.logger.Debug("watching log directory", "dir", dir, "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&rotationOps == 0 {
				continue
			}
			w.logger.Debug("log rotation detected", "op", event.Op.String())
			w.signal()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("log watcher error", "error", err)
		}
	}
}

func (w *Watcher) signal() {
	select {
	case w.rotations <- struct{}{}:
	default:
	}
}
