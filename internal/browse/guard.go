package browse

import "sync/atomic"

// Guard is the navigation in-flight flag shared by every navigation-triggering
// action: opening a detail, stepping prev, stepping next, in either sequence.
// While held, further navigation is dropped outright rather than queued, which
// keeps rapid repeated key presses from turning into request storms. It is
// acquired and released around the cache-hit path too, so behavior is uniform
// whether or not a network call actually happens.
type Guard struct {
	busy atomic.Bool
}

// TryAcquire takes the flag, reporting false when navigation is already in
// flight.
func (g *Guard) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release clears the flag. Called unconditionally on success and failure.
func (g *Guard) Release() {
	g.busy.Store(false)
}

// Busy reports the current flag state.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
