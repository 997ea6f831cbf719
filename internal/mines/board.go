package mines

import (
	"context"
	"sync"
)

type TileListener func(cell CellIndex, state TileState)

// Board fans one store subscription out to every tile and reports tile state
// changes to listeners.
type Board struct {
	ctrl  *Controller
	tiles []*Tile

	mu          sync.Mutex
	rendered    []TileState
	listeners   []TileListener
	unsubscribe func()
}

func newBoard(c *Controller) *Board {
	b := &Board{
		ctrl:     c,
		tiles:    make([]*Tile, c.cells),
		rendered: make([]TileState, c.cells),
	}
	for i := range b.tiles {
		b.tiles[i] = &Tile{index: CellIndex(i), ctrl: c}
		b.rendered[i] = TileHidden
	}
	b.unsubscribe = c.store.Subscribe(func(Session, bool) { b.refresh() })
	return b
}

func (b *Board) Tiles() []*Tile { return b.tiles }

func (b *Board) Tile(cell CellIndex) *Tile {
	if cell < 0 || int(cell) >= len(b.tiles) {
		return nil
	}
	return b.tiles[cell]
}

// OnChange registers fn. It runs on the goroutine that changed the state and
// must not call back into the Board.
func (b *Board) OnChange(fn TileListener) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

func (b *Board) States() []TileState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TileState, len(b.rendered))
	copy(out, b.rendered)
	return out
}

// Suggest delivers an auto-pick suggestion to every tile; only the suggested
// tile acts, and only on a new value.
func (b *Board) Suggest(ctx context.Context, cell CellIndex) (bool, error) {
	var target *Tile
	for _, t := range b.tiles {
		if t.noteSuggestion(cell) {
			target = t
		}
	}
	if target == nil {
		return false, nil
	}
	return target.Activate(ctx)
}

// refresh recomputes every tile from the current store and gate. Reading the
// live state under mu keeps concurrent refreshes from rendering stale data.
func (b *Board) refresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	sess, ok := b.ctrl.store.Snapshot()
	pending, hasPending := b.ctrl.gate.Pending()
	for i := range b.tiles {
		st := tileState(CellIndex(i), sess, ok, pending, hasPending)
		if st == b.rendered[i] {
			continue
		}
		b.rendered[i] = st
		for _, fn := range b.listeners {
			fn(CellIndex(i), st)
		}
	}
}

func (b *Board) detach() {
	b.mu.Lock()
	unsub := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}
