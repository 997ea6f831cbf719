package mines

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Patch carries the fields to overwrite. Nil fields are left untouched.
type Patch struct {
	Active        *bool
	Multiplier    *decimal.Decimal
	RunningPayout *decimal.Decimal
	FinalPayout   *decimal.Decimal
	Revealed      CellSet
	Hazards       CellSet
	Outcome       *Outcome
}

// Observer receives a copy of the store after every write; ok is false when
// there is no session.
type Observer func(sess Session, ok bool)

// Store holds the current session. It never validates: the controller is its
// only writer and computes every state it writes.
type Store struct {
	mu  sync.RWMutex
	cur *Session

	// held across write+notify so observers see writes in order
	writeMu sync.Mutex

	obsMu     sync.Mutex
	nextObsID int
	observers map[int]Observer
}

func NewStore() *Store {
	return &Store{observers: map[int]Observer{}}
}

func (s *Store) Snapshot() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return Session{}, false
	}
	return s.cur.Clone(), true
}

func (s *Store) Replace(sess Session) {
	s.write(func() {
		next := sess.Clone()
		s.cur = &next
	})
}

func (s *Store) Patch(p Patch) {
	s.write(func() {
		if s.cur == nil {
			return
		}
		if p.Active != nil {
			s.cur.Active = *p.Active
		}
		if p.Multiplier != nil {
			s.cur.Multiplier = *p.Multiplier
		}
		if p.RunningPayout != nil {
			s.cur.RunningPayout = *p.RunningPayout
		}
		if p.FinalPayout != nil {
			v := *p.FinalPayout
			s.cur.FinalPayout = &v
		}
		if p.Revealed != nil {
			s.cur.Revealed = p.Revealed.Clone()
		}
		if p.Hazards != nil {
			s.cur.Hazards = p.Hazards.Clone()
		}
		if p.Outcome != nil {
			s.cur.Outcome = *p.Outcome
		}
	})
}

func (s *Store) Reset() {
	s.write(func() { s.cur = nil })
}

// Subscribe registers fn and returns its cancel func. fn runs synchronously on
// the writer's goroutine and must not write to the store.
func (s *Store) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.obsMu.Unlock()
	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) write(fn func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	fn()
	var snap Session
	ok := s.cur != nil
	if ok {
		snap = s.cur.Clone()
	}
	s.mu.Unlock()

	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.obsMu.Unlock()
	for _, o := range observers {
		o(snap.Clone(), ok)
	}
}
