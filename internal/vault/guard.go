package vault

// ReentrancyGuard is a per-call mutual-exclusion flag protecting operations
// that perform an external value transfer. The execution model is strictly
// single-threaded per vault, so the only concurrency concern is a transfer
// interaction calling back into the vault before the outer operation
// finishes.
//
// Contract: a guarded operation calls Enter, performs all state mutation
// (effects) strictly before the transfer (interaction), and defers Exit so
// the flag returns to idle on every exit path — including a failed
// transfer — and only after the interaction has completed.
type ReentrancyGuard struct {
	busy bool
}

func NewReentrancyGuard() *ReentrancyGuard {
	return &ReentrancyGuard{}
}

// Enter acquires the guard, failing if it is already held.
func (g *ReentrancyGuard) Enter() error {
	if g.busy {
		return ErrReentrantCall
	}
	g.busy = true
	return nil
}

// Exit releases the guard unconditionally.
func (g *ReentrancyGuard) Exit() {
	g.busy = false
}

// Busy reports whether a guarded operation is in flight.
func (g *ReentrancyGuard) Busy() bool {
	return g.busy
}
