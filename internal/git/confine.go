package git

import "sync/atomic"

// noCopy makes `go vet` (copylocks) reject copies of the embedding struct.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// confinement detects two goroutines using the same Repository at once.
// Go has no way to pin a value to a goroutine at compile time, so the
// repository fails fast instead of racing inside the engine.
type confinement struct {
	busy atomic.Bool
}

func (c *confinement) enter(op string) func() {
	if !c.busy.CompareAndSwap(false, true) {
		invariant(op, "repository used concurrently from more than one goroutine")
	}
	return func() { c.busy.Store(false) }
}
