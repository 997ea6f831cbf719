package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"mines-client/internal/balance"
	"mines-client/internal/mines"
)

type StartRequest struct {
	Stake       decimal.Decimal `json:"stake"`
	HazardCount int             `json:"hazard_count"`
}

// MapActionError maps a controller error to an HTTP status and code.
func MapActionError(err error) (int, string) {
	var ae *mines.ActionError
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError, "internal_error"
	}
	switch ae.Kind {
	case mines.KindValidation:
		if errors.Is(err, mines.ErrClosed) {
			return http.StatusServiceUnavailable, ae.Reason
		}
		if errors.Is(err, mines.ErrActionPending) || errors.Is(err, mines.ErrSessionOpen) {
			return http.StatusConflict, ae.Reason
		}
		return http.StatusBadRequest, ae.Reason
	case mines.KindRejected:
		return http.StatusConflict, ae.Reason
	case mines.KindTransport:
		return http.StatusBadGateway, "backend_unavailable"
	case mines.KindProtocol:
		return http.StatusBadGateway, ae.Reason
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeActionResult(w http.ResponseWriter, ctrl *mines.Controller, listener *balance.Listener, err error) {
	metricControlTotal.Add(1)
	if err != nil {
		metricControlErrors.Add(1)
		status, code := MapActionError(err)
		WriteHTTPError(w, status, code)
		return
	}
	writeJSON(w, sessionView(ctrl, listener))
}

func StartHandler(ctrl *mines.Controller, listener *balance.Listener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		writeActionResult(w, ctrl, listener, ctrl.Start(r.Context(), req.Stake, req.HazardCount))
	}
}

func RevealHandler(ctrl *mines.Controller, listener *balance.Listener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cell, err := strconv.Atoi(chi.URLParam(r, "cell"))
		if err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_cell")
			return
		}
		tile := ctrl.Board().Tile(mines.CellIndex(cell))
		if tile == nil {
			WriteHTTPError(w, http.StatusNotFound, "cell_not_found")
			return
		}
		dispatched, err := tile.Activate(r.Context())
		if err == nil && !dispatched {
			WriteHTTPError(w, http.StatusConflict, "tile_not_eligible")
			return
		}
		writeActionResult(w, ctrl, listener, err)
	}
}

func CashoutHandler(ctrl *mines.Controller, listener *balance.Listener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeActionResult(w, ctrl, listener, ctrl.Cashout(r.Context()))
	}
}
