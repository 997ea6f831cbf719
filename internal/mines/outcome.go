package mines

import (
	"errors"

	"github.com/shopspring/decimal"

	"mines-client/internal/backend"
)

// RevealOutcome is the decoded form of a reveal response: exactly one of
// ContinuedReveal, TerminalWin, TerminalLoss or RejectedReveal.
type RevealOutcome interface {
	revealOutcome()
}

type ContinuedReveal struct {
	Revealed      CellSet
	Multiplier    decimal.Decimal
	RunningPayout decimal.Decimal
}

// TerminalWin is an auto-cashout: the server closed the round inside a reveal
// response because no safe cell is left.
type TerminalWin struct {
	Revealed   CellSet
	Hazards    CellSet
	Payout     decimal.Decimal
	Multiplier *decimal.Decimal
}

type TerminalLoss struct {
	Revealed CellSet
	Hazards  CellSet
}

type RejectedReveal struct {
	Reason string
}

func (ContinuedReveal) revealOutcome() {}
func (TerminalWin) revealOutcome()     {}
func (TerminalLoss) revealOutcome()    {}
func (RejectedReveal) revealOutcome()  {}

var (
	errTerminalWithoutPayout = errors.New("terminal_without_payout")
	errIncompleteReveal      = errors.New("incomplete_reveal")
	errCashoutWithoutPayout  = errors.New("cashout_without_payout")
)

// DecodeReveal classifies a reveal response once, at the boundary. A payout
// or mine layout on a non-mine reply means the round ended; a reply with
// mine positions but no payout is rejected rather than guessed at.
func DecodeReveal(res backend.RevealResponse) (RevealOutcome, error) {
	if !res.Success {
		return RejectedReveal{Reason: res.Error}, nil
	}
	revealed := cellSetFromInts(res.RevealedTiles)
	if res.IsMine {
		return TerminalLoss{Revealed: revealed, Hazards: cellSetFromInts(res.MinePositions)}, nil
	}
	if res.Payout != nil || len(res.MinePositions) > 0 {
		if res.Payout == nil {
			return nil, errTerminalWithoutPayout
		}
		return TerminalWin{
			Revealed:   revealed,
			Hazards:    cellSetFromInts(res.MinePositions),
			Payout:     *res.Payout,
			Multiplier: res.Multiplier,
		}, nil
	}
	if res.RevealedTiles == nil || res.Multiplier == nil || res.CurrentPayout == nil {
		return nil, errIncompleteReveal
	}
	return ContinuedReveal{
		Revealed:      revealed,
		Multiplier:    *res.Multiplier,
		RunningPayout: *res.CurrentPayout,
	}, nil
}

// CashoutResult is a confirmed cashout.
type CashoutResult struct {
	Payout     decimal.Decimal
	Multiplier *decimal.Decimal
	Hazards    CellSet
}

// DecodeCashout returns the confirmed result, or a non-empty rejection reason.
func DecodeCashout(res backend.CashoutResponse) (CashoutResult, string, error) {
	if !res.Success {
		reason := res.Error
		if reason == "" {
			reason = "rejected"
		}
		return CashoutResult{}, reason, nil
	}
	if res.Payout == nil {
		return CashoutResult{}, "", errCashoutWithoutPayout
	}
	return CashoutResult{
		Payout:     *res.Payout,
		Multiplier: res.Multiplier,
		Hazards:    cellSetFromInts(res.MinePositions),
	}, "", nil
}
