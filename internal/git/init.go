package git

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	gitbackend "github.com/thiagokokada/gitbind/internal/git/backend"
)

var (
	engine gitbackend.Backend = gitbackend.Default()

	initMu      sync.Mutex
	initialized atomic.Bool
)

// EnsureInitialized runs the engine's global setup on first use. Later calls
// are no-ops. Safe to call from any goroutine.
func EnsureInitialized() {
	if initialized.Load() {
		return
	}
	initMu.Lock()
	defer initMu.Unlock()
	if initialized.Load() {
		return
	}
	count, err := call(engine, "library init", engine.LibraryInit)
	if err != nil {
		invariant("EnsureInitialized", "engine setup failed: %v", err)
	}
	initialized.Store(true)
	slog.Debug("engine initialized", slog.Int("init_count", count))
}

// Shutdown undoes EnsureInitialized. It is a no-op when the engine is not
// initialized and refuses to run while repositories or objects are alive.
func Shutdown() error {
	initMu.Lock()
	defer initMu.Unlock()
	if !initialized.Load() {
		return nil
	}
	// The live check and the teardown share one nativeMu section so no
	// handle can be allocated between them.
	live := 0
	_, err := call(engine, "library shutdown", func() int {
		if live = engine.Stats().Live; live > 0 {
			return gitbackend.OK
		}
		return engine.LibraryShutdown()
	})
	if err != nil {
		return err
	}
	if live > 0 {
		return fmt.Errorf("shutdown: %w (%d live)", ErrHandlesOutstanding, live)
	}
	initialized.Store(false)
	slog.Debug("engine shut down")
	return nil
}

// HandleStats reports the engine's handle accounting.
func HandleStats() gitbackend.Stats {
	var stats gitbackend.Stats
	native(func() { stats = engine.Stats() })
	return stats
}
