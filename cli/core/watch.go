package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kubegen-sh/kubegen/pkg/logger"
)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 300 * time.Millisecond

// ApplyEvent reports one apply triggered by a change to the manifest.
type ApplyEvent struct {
	Path   string
	Result *ApplyResult
	Err    error
	At     time.Time
}

// ManifestWatcher re-applies a manifest whenever it is rewritten, whether
// by `generate`, the API server or an editor.
type ManifestWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewManifestWatcher starts watching path. The parent directory is watched
// so that files replaced by rename are still seen.
func NewManifestWatcher(path string, debounce time.Duration) (*ManifestWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("cannot watch %s: %w", filepath.Dir(abs), err)
	}
	return &ManifestWatcher{path: abs, debounce: debounce, watcher: w}, nil
}

// Path is the absolute path being watched.
func (m *ManifestWatcher) Path() string {
	return m.path
}

// Close stops the underlying watcher.
func (m *ManifestWatcher) Close() error {
	return m.watcher.Close()
}

// Run applies the manifest after each settled change until ctx is done.
// Applies run one at a time on the calling goroutine.
func (m *ManifestWatcher) Run(ctx context.Context, a *Applier, onApply func(ApplyEvent)) error {
	defer m.watcher.Close()
	log := logger.FromContext(ctx)

	fire := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != m.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(m.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			log.Debug("Manifest changed", "path", m.path)
			res, err := a.ApplyFile(ctx, m.path)
			if onApply != nil {
				onApply(ApplyEvent{Path: m.path, Result: res, Err: err, At: time.Now()})
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watch error", "error", err)
		}
	}
}
