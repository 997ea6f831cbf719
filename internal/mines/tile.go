package mines

import (
	"context"
	"errors"
	"sync"
	"time"
)

type TileState string

const (
	TileHidden         TileState = "hidden"
	TilePendingReveal  TileState = "pending_reveal"
	TileRevealedSafe   TileState = "revealed_safe"
	TileRevealedHazard TileState = "revealed_hazard"
)

func tileState(cell CellIndex, sess Session, ok bool, pending PendingAction, hasPending bool) TileState {
	if ok {
		if sess.Hazards.Has(cell) {
			return TileRevealedHazard
		}
		if sess.Revealed.Has(cell) {
			return TileRevealedSafe
		}
	}
	if hasPending && pending.Kind == ActionReveal && pending.Cell == cell {
		return TilePendingReveal
	}
	return TileHidden
}

// Tile is the controller for one board cell and the only place a reveal of
// that cell can originate.
type Tile struct {
	index CellIndex
	ctrl  *Controller

	mu             sync.Mutex
	lastSuggestion CellIndex
	hasSuggestion  bool
}

func (t *Tile) Index() CellIndex { return t.index }

func (t *Tile) State() TileState {
	sess, ok := t.ctrl.store.Snapshot()
	pending, hasPending := t.ctrl.gate.Pending()
	return tileState(t.index, sess, ok, pending, hasPending)
}

// Eligible reports whether Activate would dispatch right now.
func (t *Tile) Eligible() bool {
	sess, ok := t.ctrl.store.Snapshot()
	if !ok || !sess.Active || sess.Revealed.Has(t.index) {
		return false
	}
	return !t.ctrl.gate.Busy()
}

// Activate reveals this cell. It is a no-op (false, nil) unless the session is
// active, the cell is hidden and no other action is in flight.
func (t *Tile) Activate(ctx context.Context) (bool, error) {
	if !t.Eligible() {
		return false, nil
	}
	return t.dispatch(ctx)
}

func (t *Tile) dispatch(ctx context.Context) (bool, error) {
	pending := PendingAction{Kind: ActionReveal, Cell: t.index, StartedAt: time.Now()}
	err := t.ctrl.run(ctx, pending, func(ctx context.Context, epoch uint64) error {
		return t.ctrl.reveal(ctx, epoch, t.index)
	})
	if errors.Is(err, ErrActionPending) || errors.Is(err, errTileIneligible) {
		return false, nil
	}
	return true, err
}

// OnSuggestion acts once per distinct suggestion value. Re-delivering the
// current suggestion does nothing.
func (t *Tile) OnSuggestion(ctx context.Context, suggested CellIndex) (bool, error) {
	if !t.noteSuggestion(suggested) {
		return false, nil
	}
	return t.Activate(ctx)
}

// noteSuggestion records suggested and reports whether this tile should act.
func (t *Tile) noteSuggestion(suggested CellIndex) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hasSuggestion && t.lastSuggestion == suggested {
		return false
	}
	t.lastSuggestion = suggested
	t.hasSuggestion = true
	return suggested == t.index
}
