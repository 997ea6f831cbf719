package mines

import (
	"sync"
	"time"
)

type ActionKind string

const (
	ActionStart   ActionKind = "start"
	ActionReveal  ActionKind = "reveal"
	ActionCashout ActionKind = "cashout"
	ActionResume  ActionKind = "resume"
)

// PendingAction marks one outstanding request. Cell is meaningful only for
// reveals.
type PendingAction struct {
	Kind      ActionKind
	Cell      CellIndex
	StartedAt time.Time
}

// Gate admits at most one mutating request at a time. Check-and-mark is a
// single critical section, so two goroutines can never both pass.
type Gate struct {
	mu      sync.Mutex
	pending *PendingAction
}

func (g *Gate) TryAcquire(a PendingAction) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil {
		return false
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}
	g.pending = &a
	return true
}

// Release must run on every exit path of the guarded action.
func (g *Gate) Release() {
	g.mu.Lock()
	g.pending = nil
	g.mu.Unlock()
}

func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

func (g *Gate) Pending() (PendingAction, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return PendingAction{}, false
	}
	return *g.pending, true
}
