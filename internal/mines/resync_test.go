package mines

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"mines-client/internal/backend"
	"mines-client/internal/balance"
)

func revealCell(t *testing.T, c *Controller, cell CellIndex) {
	t.Helper()
	dispatched, err := c.Board().Tile(cell).Activate(context.Background())
	if err != nil || !dispatched {
		t.Fatalf("Activate(%d) = %v, %v", cell, dispatched, err)
	}
}

func safeReveal(cells ...int) func(int) (backend.RevealResponse, error) {
	return func(int) (backend.RevealResponse, error) {
		return backend.RevealResponse{Success: true, RevealedTiles: cells, Multiplier: decp("1.2"), CurrentPayout: decp("12")}, nil
	}
}

func TestTimedOutCashoutOnSettledRoundRecovers(t *testing.T) {
	c, fb, _ := newTestController(t, 25, "1000")
	fb.revealFn = safeReveal(0)
	startSession(t, c, "10", 3)
	revealCell(t, c, 0)

	// the server settled the cashout but the response never arrived
	fb.cashErr = context.DeadlineExceeded
	fb.setActive(backend.ActiveSessionResponse{}, nil)

	assertKind(t, c.Cashout(context.Background()), KindTransport)
	if fb.lookups() != 1 {
		t.Fatalf("active session lookups = %d, want 1", fb.lookups())
	}
	if _, ok := c.Store().Snapshot(); ok || c.State() != StateIdle {
		t.Fatalf("state = %s, store still holds the settled session", c.State())
	}
	if dispatched, err := c.Board().Tile(1).Activate(context.Background()); dispatched || err != nil {
		t.Fatalf("Activate() on dropped session = %v, %v; want no-op", dispatched, err)
	}
	startSession(t, c, "10", 3)
	if fb.startCalls != 2 || c.State() != StateActive {
		t.Fatalf("startCalls = %d state = %s; want 2, active", fb.startCalls, c.State())
	}
}

func TestRejectedRevealOnClosedRoundUnblocksStart(t *testing.T) {
	c, fb, _ := newTestController(t, 25, "1000")
	startSession(t, c, "10", 3)

	fb.revealFn = func(int) (backend.RevealResponse, error) {
		return backend.RevealResponse{Success: false, Error: "no_active_game"}, nil
	}
	fb.setActive(backend.ActiveSessionResponse{}, nil)

	dispatched, err := c.Board().Tile(4).Activate(context.Background())
	if !dispatched {
		t.Fatal("Activate() did not dispatch")
	}
	assertKind(t, err, KindRejected)
	if c.State() != StateIdle {
		t.Fatalf("state = %s, want idle", c.State())
	}
	startSession(t, c, "10", 3)
}

func TestRejectedRevealReconcilesFromServer(t *testing.T) {
	c, fb, _ := newTestController(t, 25, "1000")
	startSession(t, c, "10", 3)

	fb.revealFn = func(int) (backend.RevealResponse, error) {
		return backend.RevealResponse{Success: false, Error: "stale_session"}, nil
	}
	fb.setActive(backend.ActiveSessionResponse{ActiveGame: &backend.SessionSnapshot{
		Stake: dec("10"), HazardCount: 3, RevealedTiles: []int{3}, Multiplier: decp("1.2"), CurrentPayout: decp("12"),
	}}, nil)

	_, err := c.Board().Tile(7).Activate(context.Background())
	assertKind(t, err, KindRejected)
	sess := mustSnapshot(t, c)
	if !sess.Active || !sess.Revealed.Has(3) || sess.Revealed.Len() != 1 || !sess.RunningPayout.Equal(dec("12")) {
		t.Fatalf("session after resync = %+v", sess)
	}
	if c.State() != StateActive {
		t.Fatalf("state = %s, want active", c.State())
	}
}

func TestFailedLookupKeepsSession(t *testing.T) {
	c, fb, _ := newTestController(t, 25, "1000")
	fb.revealFn = safeReveal(0)
	startSession(t, c, "10", 3)
	revealCell(t, c, 0)

	fb.cashErr = errors.New("connection reset by peer")
	assertKind(t, c.Cashout(context.Background()), KindTransport)

	sess := mustSnapshot(t, c)
	if !sess.Active || !sess.Revealed.Has(0) || c.State() != StateActive {
		t.Fatalf("session after failed lookup = %+v state = %s", sess, c.State())
	}
	if c.Gate().Busy() {
		t.Fatal("gate still held")
	}
}

func TestPushBeforeResponseWinsOverOptimistic(t *testing.T) {
	snap := balance.NewSnapshot(decimal.Zero)
	snap.Set(dec("1000"))
	fb := &fakeBackend{activeErr: errLookupDown}
	c, err := NewController(fb, snap, 25)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	fb.startFn = func(decimal.Decimal, int) (backend.StartResponse, error) {
		snap.Set(dec("990"))
		return backend.StartResponse{Success: true}, nil
	}
	startSession(t, c, "10", 3)
	if a := snap.Amount(); !a.Equal(dec("990")) {
		t.Fatalf("balance after start = %s, want pushed 990", a)
	}

	fb.revealFn = safeReveal(0)
	revealCell(t, c, 0)
	fb.cashFn = func() (backend.CashoutResponse, error) {
		snap.Add(dec("12"))
		return backend.CashoutResponse{Success: true, Payout: decp("12"), MinePositions: []int{5, 6, 7}}, nil
	}
	if err := c.Cashout(context.Background()); err != nil {
		t.Fatalf("Cashout() error = %v", err)
	}
	if a := snap.Amount(); !a.Equal(dec("1002")) {
		t.Fatalf("balance after cashout = %s, want pushed 1002", a)
	}
}

func TestOptimisticAppliedWithoutPush(t *testing.T) {
	snap := balance.NewSnapshot(decimal.Zero)
	snap.Set(dec("1000"))
	c, err := NewController(&fakeBackend{startRes: backend.StartResponse{Success: true}}, snap, 25)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	startSession(t, c, "10", 3)
	if a := snap.Amount(); !a.Equal(dec("990")) {
		t.Fatalf("balance after start = %s, want optimistic 990", a)
	}
}

func TestRevealRecheckedOnceGateHeld(t *testing.T) {
	c, fb, _ := newTestController(t, 25, "1000")
	fb.revealFn = safeReveal(0)
	startSession(t, c, "10", 3)
	revealCell(t, c, 0)

	// cell 0 is already revealed; a stale eligibility check must not resend it
	if dispatched, err := c.Board().Tile(0).dispatch(context.Background()); dispatched || err != nil {
		t.Fatalf("dispatch() on revealed cell = %v, %v; want no-op", dispatched, err)
	}

	inactive := false
	c.Store().Patch(Patch{Active: &inactive})
	if dispatched, err := c.Board().Tile(1).dispatch(context.Background()); dispatched || err != nil {
		t.Fatalf("dispatch() on closed session = %v, %v; want no-op", dispatched, err)
	}
	if got := fb.reveals(); len(got) != 1 {
		t.Fatalf("reveal calls = %v, want only the first", got)
	}
	if c.LastError() != nil {
		t.Fatalf("LastError() = %v, want nil", c.LastError())
	}
}

func TestCashoutRecheckedOnceGateHeld(t *testing.T) {
	c, fb, _ := newTestController(t, 25, "1000")
	fb.revealFn = safeReveal(0)
	startSession(t, c, "10", 3)
	revealCell(t, c, 0)

	inactive := false
	c.Store().Patch(Patch{Active: &inactive})
	err := c.run(context.Background(), PendingAction{Kind: ActionCashout}, c.cashout)
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("cashout error = %v, want ErrNoActiveSession", err)
	}
	if fb.cashoutCalls != 0 {
		t.Fatalf("cashout calls = %d, want 0", fb.cashoutCalls)
	}
}
