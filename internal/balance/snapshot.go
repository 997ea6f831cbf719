package balance

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Observer receives the displayed amount after it changes.
type Observer func(amount decimal.Decimal)

// Snapshot is the process-wide player balance: the last amount confirmed by
// a push event plus an optimistic overlay bridging confirmed starts and
// cashouts. Any push clears the overlay.
type Snapshot struct {
	mu        sync.Mutex
	confirmed decimal.Decimal
	overlay   decimal.Decimal
	known     bool
	pushes    uint64

	// held across write+notify so observers see amounts in order
	writeMu sync.Mutex

	obsMu     sync.Mutex
	nextObsID int
	observers map[int]Observer
}

func NewSnapshot(initial decimal.Decimal) *Snapshot {
	return &Snapshot{confirmed: initial, observers: map[int]Observer{}}
}

// Amount is the displayed balance.
func (s *Snapshot) Amount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmed.Add(s.overlay)
}

// Confirmed reports the last pushed amount and whether any push arrived yet.
func (s *Snapshot) Confirmed() (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmed, s.known
}

// Set applies an authoritative absolute amount.
func (s *Snapshot) Set(amount decimal.Decimal) {
	s.write(func() {
		s.confirmed = amount
		s.overlay = decimal.Zero
		s.known = true
		s.pushes++
	})
}

// Add applies an authoritative delta to the confirmed amount.
func (s *Snapshot) Add(delta decimal.Decimal) {
	s.write(func() {
		s.confirmed = s.confirmed.Add(delta)
		s.overlay = decimal.Zero
		s.known = true
		s.pushes++
	})
}

// PushGeneration counts the pushes applied so far, including idempotent ones.
func (s *Snapshot) PushGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}

// Optimistic shifts the displayed amount until the next push. since is the
// push generation read when the confirming request was sent; if a push has
// landed after it, that push already carries the change and delta is dropped.
func (s *Snapshot) Optimistic(delta decimal.Decimal, since uint64) {
	s.write(func() {
		if s.pushes != since {
			metricOverlaySkippedTotal.Add(1)
			return
		}
		s.overlay = s.overlay.Add(delta)
	})
}

// Subscribe registers fn and returns its cancel func. fn runs on the
// writer's goroutine.
func (s *Snapshot) Subscribe(fn Observer) func() {
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

func (s *Snapshot) write(fn func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	before := s.confirmed.Add(s.overlay)
	fn()
	after := s.confirmed.Add(s.overlay)
	s.mu.Unlock()

	if after.Equal(before) {
		return
	}
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.obsMu.Unlock()
	for _, o := range observers {
		o(after)
	}
}
