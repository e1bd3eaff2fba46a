package service

import "sync/atomic"

// Gate is a single-slot in-flight guard for one user-triggered action.
// While an operation holds the slot, further triggers are rejected instead
// of queued. This replaces a disable-the-button UI convention with an
// explicit server-side check.
type Gate struct {
	busy atomic.Bool
}

// TryAcquire claims the slot. It returns false when an operation is
// already outstanding.
func (g *Gate) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release frees the slot. Calling it without a prior acquire is harmless.
func (g *Gate) Release() {
	g.busy.Store(false)
}
