package git

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/thiagokokada/gitbind/internal/debounce"
)

const DefaultWatchDelay = 350 * time.Millisecond

// StateChange is emitted by StateWatcher when the repository state moves.
type StateChange struct {
	From RepositoryState
	To   RepositoryState
}

// StateWatcher reports repository state transitions (a merge starting, a
// rebase finishing, ...) by watching the metadata directory.
//
// The watcher never shares a Repository with its caller: each refresh opens
// its own handle on the debounce goroutine and frees it before returning.
type StateWatcher struct {
	path    string
	control string

	mu     sync.Mutex
	last   RepositoryState
	closed bool

	// refreshMu is held for the whole of a refresh so Close can wait for an
	// in-flight one before closing changes.
	refreshMu sync.Mutex

	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
	changes  chan StateChange
	done     chan struct{}
	wg       sync.WaitGroup
}

// WatchState starts watching the repository at path. Events are coalesced
// for delay before the state is re-read; a non-positive delay selects
// DefaultWatchDelay.
func WatchState(path string, delay time.Duration) (*StateWatcher, error) {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	repo, err := Open(abs)
	if err != nil {
		return nil, err
	}
	control := repo.Path()
	state := repo.State()
	repo.Free()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, p := range watchPaths(control) {
		slog.Debug("adding path to FS watcher", slog.String("path", p))
		if err := watcher.Add(p); err != nil {
			err := errors.Join(err, watcher.Close())
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
	}
	w := &StateWatcher{
		path:    abs,
		control: control,
		last:    state,
		watcher: watcher,
		changes: make(chan StateChange, 16),
		done:    make(chan struct{}),
	}
	debounce.Ensure(&w.debounce, delay, w.refresh)
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes delivers state transitions. It is closed by Close.
func (w *StateWatcher) Changes() <-chan StateChange {
	return w.changes
}

// Current returns the last observed state.
func (w *StateWatcher) Current() RepositoryState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *StateWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.debounce.Stop()
	close(w.done)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()

	w.refreshMu.Lock()
	close(w.changes)
	w.refreshMu.Unlock()
	return err
}

func (w *StateWatcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			if ev.Has(fsnotify.Create) && isStateDir(ev.Name) {
				// Markers such as rebase-merge/interactive live one level down.
				if err := w.watcher.Add(ev.Name); err != nil {
					slog.Debug("watch state dir", slog.String("path", ev.Name), slog.Any("error", err))
				}
			}
			w.debounce.Trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		case <-w.done:
			return
		}
	}
}

func (w *StateWatcher) refresh() {
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()
	if w.isClosed() {
		return
	}
	repo, err := Open(w.path)
	if err != nil {
		slog.Warn("state refresh failed", slog.String("path", w.path), slog.Any("error", err))
		return
	}
	state := repo.State()
	repo.Free()

	w.mu.Lock()
	if w.closed || state == w.last {
		w.mu.Unlock()
		return
	}
	change := StateChange{From: w.last, To: state}
	w.last = state
	w.mu.Unlock()

	slog.Debug("repository state changed",
		slog.String("from", change.From.String()),
		slog.String("to", change.To.String()),
	)
	select {
	case w.changes <- change:
	default:
		slog.Warn("state change dropped; consumer is not keeping up",
			slog.String("to", change.To.String()),
		)
	}
}

func (w *StateWatcher) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func watchPaths(control string) []string {
	paths := []string{control}
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		p := filepath.Join(control, name)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			paths = append(paths, p)
		}
	}
	return paths
}

func isStateDir(name string) bool {
	base := filepath.Base(name)
	if base != "rebase-merge" && base != "rebase-apply" {
		return false
	}
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock"
}
