package mines

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"mines-client/internal/backend"
)

// Backend is the game server as seen by one player. *backend.Client
// implements it.
type Backend interface {
	StartSession(ctx context.Context, stake decimal.Decimal, hazardCount int) (backend.StartResponse, error)
	Reveal(ctx context.Context, cell int) (backend.RevealResponse, error)
	Cashout(ctx context.Context) (backend.CashoutResponse, error)
	ActiveSession(ctx context.Context) (backend.ActiveSessionResponse, error)
}

// Wallet is the controller's view of the player balance: it reads the amount
// for validation and bridges confirmed starts/cashouts until the next push.
// PushGeneration is read when a request is dispatched; Optimistic must drop
// the delta if a push has landed since that generation.
type Wallet interface {
	Amount() decimal.Decimal
	PushGeneration() uint64
	Optimistic(delta decimal.Decimal, since uint64)
}

type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateActive   State = "active"
)

const MinBoardCells = 2

var one = decimal.NewFromInt(1)

type Controller struct {
	backend Backend
	wallet  Wallet
	store   *Store
	gate    *Gate
	board   *Board
	cells   int

	mu      sync.Mutex
	state   State
	epoch   uint64
	closed  bool
	lastErr error
}

func NewController(b Backend, w Wallet, cells int) (*Controller, error) {
	if cells < MinBoardCells {
		return nil, fmt.Errorf("board needs at least %d cells, got %d", MinBoardCells, cells)
	}
	c := &Controller{
		backend: b,
		wallet:  w,
		store:   NewStore(),
		gate:    &Gate{},
		cells:   cells,
		state:   StateIdle,
	}
	c.board = newBoard(c)
	return c, nil
}

func (c *Controller) Store() *Store { return c.store }
func (c *Controller) Gate() *Gate   { return c.gate }
func (c *Controller) Board() *Board { return c.board }
func (c *Controller) Cells() int    { return c.cells }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError is the most recent error surfaced by any action, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close deafens the controller. In-flight requests are not aborted; their
// responses are dropped when they land.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	c.mu.Unlock()
	c.board.detach()
}

func (c *Controller) Start(ctx context.Context, stake decimal.Decimal, hazardCount int) error {
	if err := c.validateStart(stake, hazardCount); err != nil {
		c.report(ActionStart, err)
		return err
	}
	return c.run(ctx, PendingAction{Kind: ActionStart}, func(ctx context.Context, epoch uint64) error {
		c.mu.Lock()
		if c.state == StateActive {
			c.mu.Unlock()
			return invalid(ActionStart, ErrSessionOpen)
		}
		c.state = StateStarting
		c.mu.Unlock()
		c.store.Reset()

		gen := c.wallet.PushGeneration()
		res, err := c.backend.StartSession(ctx, stake, hazardCount)
		return c.handleStart(epoch, gen, stake, hazardCount, res, err)
	})
}

func (c *Controller) validateStart(stake decimal.Decimal, hazardCount int) error {
	if c.isClosed() {
		return invalid(ActionStart, ErrClosed)
	}
	if c.State() != StateIdle {
		return invalid(ActionStart, ErrSessionOpen)
	}
	if !stake.IsPositive() {
		return invalid(ActionStart, ErrInvalidStake)
	}
	if stake.GreaterThan(c.wallet.Amount()) {
		return invalid(ActionStart, ErrInsufficientBalance)
	}
	if hazardCount < 1 || hazardCount > c.cells-1 {
		return invalid(ActionStart, ErrInvalidHazardCount)
	}
	return nil
}

func (c *Controller) handleStart(epoch, gen uint64, stake decimal.Decimal, hazardCount int, res backend.StartResponse, err error) error {
	if c.deafened(epoch) {
		return c.discard(ActionStart)
	}
	if err != nil {
		c.setState(StateIdle)
		return classifyCallError(ActionStart, err)
	}
	if !res.Success {
		c.setState(StateIdle)
		return rejected(ActionStart, res.Error)
	}
	sess := Session{
		Stake:         stake,
		Active:        true,
		Multiplier:    one,
		RunningPayout: stake,
		Revealed:      CellSet{},
		Hazards:       CellSet{},
		HazardCount:   hazardCount,
	}
	c.store.Replace(sess)
	c.setState(StateActive)
	c.wallet.Optimistic(stake.Neg(), gen)
	log.Info().
		Str("stake", stake.String()).
		Int("hazard_count", hazardCount).
		Msg("session_started")
	return nil
}

// reveal runs inside the gate acquired by the tile for cell. The session may
// have closed between the tile's eligibility check and the gate, so it is
// checked again here.
func (c *Controller) reveal(ctx context.Context, epoch uint64, cell CellIndex) error {
	sess, ok := c.store.Snapshot()
	if !ok || !sess.Active || sess.Revealed.Has(cell) {
		return errTileIneligible
	}
	gen := c.wallet.PushGeneration()
	res, err := c.backend.Reveal(ctx, int(cell))
	return c.handleReveal(epoch, gen, cell, res, err)
}

func (c *Controller) handleReveal(epoch, gen uint64, cell CellIndex, res backend.RevealResponse, err error) error {
	if c.deafened(epoch) {
		return c.discard(ActionReveal)
	}
	if err != nil {
		return classifyCallError(ActionReveal, err)
	}
	outcome, err := DecodeReveal(res)
	if err != nil {
		return violation(ActionReveal, err.Error(), err)
	}
	if r, ok := outcome.(RejectedReveal); ok {
		return rejected(ActionReveal, r.Reason)
	}
	cur, ok := c.store.Snapshot()
	if !ok || !cur.Active || c.State() != StateActive {
		return violation(ActionReveal, "session_not_active", ErrNoActiveSession)
	}

	switch o := outcome.(type) {
	case ContinuedReveal:
		if !o.Revealed.ContainsAll(cur.Revealed) || !o.Revealed.Has(cell) {
			return violation(ActionReveal, "revealed_set_regressed", nil)
		}
		next := cur.Clone()
		next.Revealed = o.Revealed
		next.Multiplier = o.Multiplier
		next.RunningPayout = o.RunningPayout
		if err := next.CheckInvariants(c.cells); err != nil {
			return violation(ActionReveal, "invalid_state", err)
		}
		c.store.Patch(Patch{
			Revealed:      o.Revealed,
			Multiplier:    &o.Multiplier,
			RunningPayout: &o.RunningPayout,
		})
		if o.Revealed.Len() >= next.SafeCells(c.cells) {
			// server should have closed the round in this response
			log.Warn().Int("cell", int(cell)).Msg("full_clearance_without_payout")
		}
		return nil
	case TerminalWin:
		revealed := cur.Revealed.Union(o.Revealed).Union(NewCellSet(cell))
		return c.applyWin(ActionReveal, gen, cur, revealed, o.Hazards, o.Payout, o.Multiplier)
	case TerminalLoss:
		hazards := o.Hazards.Union(NewCellSet(cell))
		revealed := cur.Revealed.Union(o.Revealed)
		next := cur.Clone()
		next.Active = false
		next.Revealed = revealed
		next.Hazards = hazards
		next.Outcome = OutcomeLoss
		if err := next.CheckInvariants(c.cells); err != nil {
			return violation(ActionReveal, "invalid_state", err)
		}
		inactive := false
		loss := OutcomeLoss
		zero := decimal.Zero
		c.store.Patch(Patch{
			Active:        &inactive,
			RunningPayout: &zero,
			Revealed:      revealed,
			Hazards:       hazards,
			Outcome:       &loss,
		})
		c.setState(StateIdle)
		metricRoundsLostTotal.Add(1)
		log.Info().
			Int("cell", int(cell)).
			Int("revealed", revealed.Len()).
			Str("stake", cur.Stake.String()).
			Msg("session_lost")
		return nil
	}
	return violation(ActionReveal, "unknown_outcome", nil)
}

func (c *Controller) Cashout(ctx context.Context) error {
	if err := c.checkCashout(); err != nil {
		c.report(ActionCashout, err)
		return err
	}
	return c.run(ctx, PendingAction{Kind: ActionCashout}, c.cashout)
}

func (c *Controller) checkCashout() error {
	cur, ok := c.store.Snapshot()
	if !ok || !cur.Active {
		return invalid(ActionCashout, ErrNoActiveSession)
	}
	if cur.Revealed.Len() == 0 {
		return invalid(ActionCashout, ErrNothingRevealed)
	}
	return nil
}

// cashout runs inside the gate and re-validates against the store as it is
// once the gate is held.
func (c *Controller) cashout(ctx context.Context, epoch uint64) error {
	if err := c.checkCashout(); err != nil {
		return err
	}
	gen := c.wallet.PushGeneration()
	res, err := c.backend.Cashout(ctx)
	return c.handleCashout(epoch, gen, res, err)
}

func (c *Controller) handleCashout(epoch, gen uint64, res backend.CashoutResponse, err error) error {
	if c.deafened(epoch) {
		return c.discard(ActionCashout)
	}
	if err != nil {
		return classifyCallError(ActionCashout, err)
	}
	result, reason, err := DecodeCashout(res)
	if err != nil {
		return violation(ActionCashout, err.Error(), err)
	}
	if reason != "" {
		return rejected(ActionCashout, reason)
	}
	cur, ok := c.store.Snapshot()
	if !ok || !cur.Active || c.State() != StateActive {
		return violation(ActionCashout, "session_not_active", ErrNoActiveSession)
	}
	return c.applyWin(ActionCashout, gen, cur, cur.Revealed, result.Hazards, result.Payout, result.Multiplier)
}

func (c *Controller) applyWin(action ActionKind, gen uint64, cur Session, revealed, hazards CellSet, payout decimal.Decimal, multiplier *decimal.Decimal) error {
	next := cur.Clone()
	next.Active = false
	next.Revealed = revealed
	next.Hazards = hazards
	next.Outcome = OutcomeWin
	if err := next.CheckInvariants(c.cells); err != nil {
		return violation(action, "invalid_state", err)
	}
	inactive := false
	win := OutcomeWin
	c.store.Patch(Patch{
		Active:        &inactive,
		Multiplier:    multiplier,
		RunningPayout: &payout,
		FinalPayout:   &payout,
		Revealed:      revealed,
		Hazards:       hazards,
		Outcome:       &win,
	})
	c.setState(StateIdle)
	c.wallet.Optimistic(payout, gen)
	metricRoundsWonTotal.Add(1)
	log.Info().
		Str("action", string(action)).
		Str("payout", payout.String()).
		Int("revealed", revealed.Len()).
		Msg("session_won")
	return nil
}

// Resume restores an in-progress round after a reload. Session state is only
// ever re-derived from the server.
func (c *Controller) Resume(ctx context.Context) error {
	if c.isClosed() {
		return invalid(ActionResume, ErrClosed)
	}
	return c.run(ctx, PendingAction{Kind: ActionResume}, func(ctx context.Context, epoch uint64) error {
		res, err := c.backend.ActiveSession(ctx)
		return c.handleResume(epoch, res, err)
	})
}

func (c *Controller) handleResume(epoch uint64, res backend.ActiveSessionResponse, err error) error {
	if c.deafened(epoch) {
		return c.discard(ActionResume)
	}
	if err != nil {
		return classifyCallError(ActionResume, err)
	}
	snap := res.ActiveGame
	if snap == nil {
		if cur, ok := c.store.Snapshot(); ok && cur.Active {
			// the server closed the round while we were not listening
			c.store.Reset()
			c.setState(StateIdle)
			metricSessionsDropped.Add(1)
			log.Warn().
				Str("stake", cur.Stake.String()).
				Int("revealed", cur.Revealed.Len()).
				Msg("session_dropped_by_server")
		}
		return nil
	}
	revealed := cellSetFromInts(snap.RevealedTiles)
	multiplier, payout := one, snap.Stake
	if snap.Multiplier != nil && snap.CurrentPayout != nil {
		multiplier, payout = *snap.Multiplier, *snap.CurrentPayout
	} else if revealed.Len() > 0 {
		return violation(ActionResume, "snapshot_without_payout", nil)
	}
	sess := Session{
		Stake:         snap.Stake,
		Active:        true,
		Multiplier:    multiplier,
		RunningPayout: payout,
		Revealed:      revealed,
		Hazards:       CellSet{},
		HazardCount:   snap.HazardCount,
	}
	if err := sess.CheckInvariants(c.cells); err != nil {
		return violation(ActionResume, "invalid_snapshot", err)
	}
	c.store.Replace(sess)
	c.setState(StateActive)
	log.Info().
		Str("stake", sess.Stake.String()).
		Int("hazard_count", sess.HazardCount).
		Int("revealed", revealed.Len()).
		Msg("session_resumed")
	return nil
}

// run is the single funnel for every dispatched action: it owns the gate for
// the duration of fn and surfaces whatever fn returns.
func (c *Controller) run(ctx context.Context, pending PendingAction, fn func(ctx context.Context, epoch uint64) error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return invalid(pending.Kind, ErrClosed)
	}
	epoch := c.epoch
	c.mu.Unlock()

	if pending.StartedAt.IsZero() {
		pending.StartedAt = time.Now()
	}
	if !c.gate.TryAcquire(pending) {
		metricGateRejectedTotal.Add(1)
		return invalid(pending.Kind, ErrActionPending)
	}
	c.board.refresh()
	defer func() {
		c.gate.Release()
		c.board.refresh()
	}()

	metricActionsTotal.Add(1)
	err := fn(ctx, epoch)
	if pending.Kind != ActionResume && needsResync(err) {
		c.resync(ctx, epoch)
	}
	c.report(pending.Kind, err)
	return err
}

// needsResync reports whether err leaves the local session possibly out of
// step with the server: the server refused the action or never answered.
func needsResync(err error) bool {
	kind, ok := KindOf(err)
	return ok && (kind == KindRejected || kind == KindTransport)
}

// resync re-reads the active session while the gate is still held. It
// outlives ctx so a timed-out action can still be reconciled; the HTTP
// client timeout bounds it.
func (c *Controller) resync(ctx context.Context, epoch uint64) {
	metricResyncTotal.Add(1)
	res, err := c.backend.ActiveSession(context.WithoutCancel(ctx))
	if err := c.handleResume(epoch, res, err); err != nil && !errors.Is(err, ErrClosed) {
		metricResyncFailedTotal.Add(1)
		log.Warn().Err(err).Msg("session_resync_failed")
	}
}

func (c *Controller) report(action ActionKind, err error) {
	if err == nil || errors.Is(err, ErrClosed) || errors.Is(err, errTileIneligible) {
		return
	}
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()

	kind, _ := KindOf(err)
	switch kind {
	case KindValidation:
		metricValidationTotal.Add(1)
		log.Debug().Err(err).Str("action", string(action)).Msg("action_invalid")
	case KindRejected:
		metricRejectedTotal.Add(1)
		log.Info().Err(err).Str("action", string(action)).Msg("action_rejected")
	case KindTransport:
		metricTransportErrTotal.Add(1)
		var ae *ActionError
		errors.As(err, &ae)
		log.Warn().Err(ae.Err).Str("action", string(action)).Msg("action_transport_error")
	case KindProtocol:
		metricProtocolViolations.Add(1)
		log.Warn().Err(err).Str("action", string(action)).Msg("protocol_violation")
	default:
		log.Error().Err(err).Str("action", string(action)).Msg("action_failed")
	}
}

func (c *Controller) discard(action ActionKind) error {
	metricDiscardedTotal.Add(1)
	log.Debug().Str("action", string(action)).Msg("response_discarded")
	return ErrClosed
}

func (c *Controller) deafened(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed || c.epoch != epoch
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// classifyCallError maps a failed backend call: an undecodable success body is
// a protocol problem, everything else is transport.
func classifyCallError(action ActionKind, err error) error {
	if errors.Is(err, backend.ErrMalformedResponse) {
		return violation(action, "malformed_response", err)
	}
	return transport(action, err)
}
