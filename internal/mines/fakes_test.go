package mines

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"mines-client/internal/backend"
)

type fakeBackend struct {
	mu sync.Mutex

	startRes  backend.StartResponse
	startErr  error
	startFn   func(stake decimal.Decimal, hazards int) (backend.StartResponse, error)
	revealFn  func(cell int) (backend.RevealResponse, error)
	cashout   backend.CashoutResponse
	cashErr   error
	cashFn    func() (backend.CashoutResponse, error)
	active    backend.ActiveSessionResponse
	activeErr error

	startCalls   int
	revealCalls  []int
	cashoutCalls int
	activeCalls  int
}

func (f *fakeBackend) StartSession(_ context.Context, stake decimal.Decimal, hazards int) (backend.StartResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startFn != nil {
		return f.startFn(stake, hazards)
	}
	return f.startRes, f.startErr
}

func (f *fakeBackend) Reveal(_ context.Context, cell int) (backend.RevealResponse, error) {
	f.mu.Lock()
	f.revealCalls = append(f.revealCalls, cell)
	fn := f.revealFn
	f.mu.Unlock()
	if fn == nil {
		return backend.RevealResponse{}, nil
	}
	return fn(cell)
}

func (f *fakeBackend) Cashout(context.Context) (backend.CashoutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cashoutCalls++
	if f.cashFn != nil {
		return f.cashFn()
	}
	return f.cashout, f.cashErr
}

func (f *fakeBackend) ActiveSession(context.Context) (backend.ActiveSessionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeCalls++
	return f.active, f.activeErr
}

func (f *fakeBackend) setActive(res backend.ActiveSessionResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active, f.activeErr = res, err
}

func (f *fakeBackend) lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeCalls
}

func (f *fakeBackend) reveals() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.revealCalls))
	copy(out, f.revealCalls)
	return out
}

type fakeWallet struct {
	mu         sync.Mutex
	amount     decimal.Decimal
	pushes     uint64
	optimistic []decimal.Decimal
}

func (w *fakeWallet) Amount() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.amount
}

func (w *fakeWallet) PushGeneration() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pushes
}

func (w *fakeWallet) Optimistic(delta decimal.Decimal, since uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if since != w.pushes {
		return
	}
	w.amount = w.amount.Add(delta)
	w.optimistic = append(w.optimistic, delta)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

// errLookupDown makes the post-failure session lookup fail by default, so
// tests that do not care about resync see the store untouched.
var errLookupDown = errors.New("active session lookup unavailable")

func newTestController(t *testing.T, cells int, balance string) (*Controller, *fakeBackend, *fakeWallet) {
	t.Helper()
	fb := &fakeBackend{startRes: backend.StartResponse{Success: true}, activeErr: errLookupDown}
	w := &fakeWallet{amount: dec(balance)}
	c, err := NewController(fb, w, cells)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	return c, fb, w
}

func startSession(t *testing.T, c *Controller, stake string, hazards int) {
	t.Helper()
	if err := c.Start(context.Background(), dec(stake), hazards); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func mustSnapshot(t *testing.T, c *Controller) Session {
	t.Helper()
	sess, ok := c.Store().Snapshot()
	if !ok {
		t.Fatal("store is empty, want a session")
	}
	return sess
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	got, ok := KindOf(err)
	if !ok {
		t.Fatalf("error %v is not an ActionError", err)
	}
	if got != want {
		t.Fatalf("kind = %s, want %s (err=%v)", got, want, err)
	}
}
