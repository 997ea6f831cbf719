package httptransport

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"mines-client/internal/balance"
	"mines-client/internal/mines"
)

type SessionView struct {
	State         mines.State       `json:"state"`
	Pending       *PendingView      `json:"pending,omitempty"`
	LastError     string            `json:"last_error,omitempty"`
	Session       *SessionBody      `json:"session"`
	Tiles         []mines.TileState `json:"tiles"`
	ListenerAlive bool              `json:"listener_attached"`
}

type PendingView struct {
	Kind      mines.ActionKind `json:"kind"`
	Cell      *int             `json:"cell,omitempty"`
	StartedAt time.Time        `json:"started_at"`
}

type SessionBody struct {
	Stake         decimal.Decimal  `json:"stake"`
	Active        bool             `json:"active"`
	HazardCount   int              `json:"hazard_count"`
	Multiplier    decimal.Decimal  `json:"multiplier"`
	RunningPayout decimal.Decimal  `json:"running_payout"`
	FinalPayout   *decimal.Decimal `json:"final_payout,omitempty"`
	Revealed      []int            `json:"revealed"`
	Hazards       []int            `json:"hazards"`
	Outcome       mines.Outcome    `json:"outcome,omitempty"`
}

type BalanceView struct {
	Amount    decimal.Decimal `json:"amount"`
	Confirmed decimal.Decimal `json:"confirmed"`
	Pushed    bool            `json:"pushed"`
}

func cellInts(cells []mines.CellIndex) []int {
	out := make([]int, 0, len(cells))
	for _, c := range cells {
		out = append(out, int(c))
	}
	return out
}

func sessionView(ctrl *mines.Controller, listener *balance.Listener) SessionView {
	view := SessionView{
		State: ctrl.State(),
		Tiles: ctrl.Board().States(),
	}
	if listener != nil {
		view.ListenerAlive = listener.Attached()
	}
	if err := ctrl.LastError(); err != nil {
		view.LastError = err.Error()
	}
	if p, ok := ctrl.Gate().Pending(); ok {
		pv := &PendingView{Kind: p.Kind, StartedAt: p.StartedAt}
		if p.Kind == mines.ActionReveal {
			cell := int(p.Cell)
			pv.Cell = &cell
		}
		view.Pending = pv
	}
	if sess, ok := ctrl.Store().Snapshot(); ok {
		view.Session = &SessionBody{
			Stake:         sess.Stake,
			Active:        sess.Active,
			HazardCount:   sess.HazardCount,
			Multiplier:    sess.Multiplier,
			RunningPayout: sess.RunningPayout,
			FinalPayout:   sess.FinalPayout,
			Revealed:      cellInts(sess.Revealed.Sorted()),
			Hazards:       cellInts(sess.Hazards.Sorted()),
			Outcome:       sess.Outcome,
		}
	}
	return view
}

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	}
}

func SessionHandler(ctrl *mines.Controller, listener *balance.Listener) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		metricStatusRequestsTotal.Add(1)
		writeJSON(w, sessionView(ctrl, listener))
	}
}

func BalanceHandler(snap *balance.Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		metricStatusRequestsTotal.Add(1)
		confirmed, pushed := snap.Confirmed()
		writeJSON(w, BalanceView{Amount: snap.Amount(), Confirmed: confirmed, Pushed: pushed})
	}
}
