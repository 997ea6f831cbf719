package backend

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type StartRequest struct {
	Stake       json.Number `json:"stake"`
	HazardCount int         `json:"hazardCount"`
}

type StartResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type RevealRequest struct {
	CellIndex int `json:"cellIndex"`
}

// RevealResponse is the raw reveal envelope. Optional fields are pointers or
// nil slices so callers can tell "absent" from "zero".
type RevealResponse struct {
	Success       bool             `json:"success"`
	Error         string           `json:"error,omitempty"`
	IsMine        bool             `json:"isMine"`
	RevealedTiles []int            `json:"revealedTiles,omitempty"`
	Multiplier    *decimal.Decimal `json:"multiplier,omitempty"`
	CurrentPayout *decimal.Decimal `json:"currentPayout,omitempty"`
	MinePositions []int            `json:"minePositions,omitempty"`
	Payout        *decimal.Decimal `json:"payout,omitempty"`
}

type CashoutResponse struct {
	Success       bool             `json:"success"`
	Error         string           `json:"error,omitempty"`
	Payout        *decimal.Decimal `json:"payout,omitempty"`
	Multiplier    *decimal.Decimal `json:"multiplier,omitempty"`
	MinePositions []int            `json:"minePositions,omitempty"`
}

type SessionSnapshot struct {
	Stake         decimal.Decimal  `json:"stake"`
	HazardCount   int              `json:"hazardCount"`
	RevealedTiles []int            `json:"revealedTiles"`
	Multiplier    *decimal.Decimal `json:"multiplier,omitempty"`
	CurrentPayout *decimal.Decimal `json:"currentPayout,omitempty"`
}

type ActiveSessionResponse struct {
	ActiveGame *SessionSnapshot `json:"activeGame"`
}

// envelope is the minimal shape shared by every rejection body.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}
