package mines

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type CellIndex int

type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// CellSet is a set of board coordinates. The zero value is an empty set.
type CellSet map[CellIndex]struct{}

func NewCellSet(cells ...CellIndex) CellSet {
	out := make(CellSet, len(cells))
	for _, c := range cells {
		out[c] = struct{}{}
	}
	return out
}

func cellSetFromInts(xs []int) CellSet {
	out := make(CellSet, len(xs))
	for _, x := range xs {
		out[CellIndex(x)] = struct{}{}
	}
	return out
}

func (s CellSet) Has(c CellIndex) bool {
	_, ok := s[c]
	return ok
}

func (s CellSet) Len() int { return len(s) }

func (s CellSet) Clone() CellSet {
	out := make(CellSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

func (s CellSet) Union(o CellSet) CellSet {
	out := s.Clone()
	for c := range o {
		out[c] = struct{}{}
	}
	return out
}

func (s CellSet) Intersects(o CellSet) bool {
	small, large := s, o
	if len(small) > len(large) {
		small, large = large, small
	}
	for c := range small {
		if large.Has(c) {
			return true
		}
	}
	return false
}

func (s CellSet) ContainsAll(o CellSet) bool {
	for c := range o {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

func (s CellSet) Sorted() []CellIndex {
	out := make([]CellIndex, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s CellSet) inRange(cells int) bool {
	for c := range s {
		if c < 0 || int(c) >= cells {
			return false
		}
	}
	return true
}

// Session is one round as last confirmed by the server. Multiplier and
// payouts are copied from responses and never derived locally.
type Session struct {
	Stake         decimal.Decimal
	Active        bool
	Multiplier    decimal.Decimal
	RunningPayout decimal.Decimal
	FinalPayout   *decimal.Decimal
	Revealed      CellSet
	Hazards       CellSet
	HazardCount   int
	Outcome       Outcome
}

func (s Session) Clone() Session {
	out := s
	out.Revealed = s.Revealed.Clone()
	out.Hazards = s.Hazards.Clone()
	if s.FinalPayout != nil {
		v := *s.FinalPayout
		out.FinalPayout = &v
	}
	return out
}

// SafeCells is the number of non-hazard cells on a board of the given size.
func (s Session) SafeCells(cells int) int {
	return cells - s.HazardCount
}

var (
	errHazardCountRange = errors.New("hazard count out of range")
	errCellOutOfRange   = errors.New("cell index out of range")
	errHazardsWhileOpen = errors.New("hazards known while session active")
	errRevealedHazard   = errors.New("revealed cell is a hazard")
	errPayoutWhileOpen  = errors.New("final payout set while session active")
)

// CheckInvariants validates s against a board of the given size.
func (s Session) CheckInvariants(cells int) error {
	if s.HazardCount <= 0 || s.HazardCount >= cells {
		return fmt.Errorf("%w: %d of %d", errHazardCountRange, s.HazardCount, cells)
	}
	if !s.Revealed.inRange(cells) || !s.Hazards.inRange(cells) {
		return errCellOutOfRange
	}
	if s.Active && s.Hazards.Len() > 0 {
		return errHazardsWhileOpen
	}
	if s.Active && s.FinalPayout != nil {
		return errPayoutWhileOpen
	}
	if s.Revealed.Intersects(s.Hazards) {
		return errRevealedHazard
	}
	return nil
}
