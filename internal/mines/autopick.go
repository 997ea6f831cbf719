package mines

import (
	"math/rand"
	"sync"
	"time"
)

// Picker suggests a random hidden cell for the auto-pick feature.
type Picker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPicker(seed int64) *Picker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Picker{rnd: rand.New(rand.NewSource(seed))}
}

// Pick returns a hidden cell of an active session, or false when there is
// nothing left to pick.
func (p *Picker) Pick(sess Session, cells int) (CellIndex, bool) {
	if !sess.Active {
		return 0, false
	}
	hidden := make([]CellIndex, 0, cells)
	for i := 0; i < cells; i++ {
		c := CellIndex(i)
		if !sess.Revealed.Has(c) && !sess.Hazards.Has(c) {
			hidden = append(hidden, c)
		}
	}
	if len(hidden) == 0 {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return hidden[p.rnd.Intn(len(hidden))], true
}
