package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"mines-client/internal/config"
	"mines-client/internal/mines"
)

var errNotDispatched = errors.New("reveal_not_dispatched")

type player struct {
	ctrl   *mines.Controller
	picker *mines.Picker
	cfg    config.BotConfig

	played int
	wins   int
	losses int
}

func newPlayer(ctrl *mines.Controller, picker *mines.Picker, cfg config.BotConfig) *player {
	if cfg.RevealsPerRound < 1 {
		cfg.RevealsPerRound = 1
	}
	return &player{ctrl: ctrl, picker: picker, cfg: cfg}
}

// run plays rounds until ctx is done or the configured number of rounds has
// finished. Failed attempts do not count as rounds.
func (p *player) run(ctx context.Context) {
	for p.cfg.Rounds == 0 || p.played < p.cfg.Rounds {
		outcome, err := p.playRound(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("round_failed")
		case outcome != mines.OutcomeNone:
			p.played++
			if outcome == mines.OutcomeWin {
				p.wins++
			} else {
				p.losses++
			}
			log.Info().
				Int("round", p.played).
				Str("outcome", string(outcome)).
				Int("wins", p.wins).
				Int("losses", p.losses).
				Msg("round_finished")
		}
		if p.cfg.Rounds != 0 && p.played >= p.cfg.Rounds {
			return
		}
		t := time.NewTimer(p.cfg.RoundDelay())
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// playRound starts a round unless one is already open, reveals auto-picked
// cells and cashes out after RevealsPerRound safe reveals.
func (p *player) playRound(ctx context.Context) (mines.Outcome, error) {
	if p.ctrl.State() == mines.StateIdle {
		if err := p.ctrl.Start(ctx, p.cfg.Stake, p.cfg.HazardCount); err != nil {
			return mines.OutcomeNone, err
		}
	}
	for reveals := 0; p.ctrl.State() == mines.StateActive; {
		if ctx.Err() != nil {
			return mines.OutcomeNone, ctx.Err()
		}
		sess, ok := p.ctrl.Store().Snapshot()
		if !ok {
			break
		}
		cell, canPick := p.picker.Pick(sess, p.ctrl.Cells())
		if (reveals >= p.cfg.RevealsPerRound || !canPick) && sess.Revealed.Len() > 0 {
			if err := p.ctrl.Cashout(ctx); err != nil {
				return mines.OutcomeNone, err
			}
			break
		}
		if !canPick {
			break
		}
		board := p.ctrl.Board()
		dispatched, err := board.Suggest(ctx, cell)
		if err == nil && !dispatched {
			// same suggestion as last time; activate the tile directly
			dispatched, err = board.Tile(cell).Activate(ctx)
		}
		if err != nil {
			return mines.OutcomeNone, err
		}
		if !dispatched {
			return mines.OutcomeNone, errNotDispatched
		}
		reveals++
	}
	sess, ok := p.ctrl.Store().Snapshot()
	if !ok {
		return mines.OutcomeNone, nil
	}
	return sess.Outcome, nil
}
