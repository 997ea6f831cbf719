package mines

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStake        = errors.New("invalid_stake")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInvalidHazardCount  = errors.New("invalid_hazard_count")
	ErrNothingRevealed     = errors.New("nothing_revealed")
	ErrSessionOpen         = errors.New("session_already_open")
	ErrNoActiveSession     = errors.New("no_active_session")
	ErrActionPending       = errors.New("action_pending")
	ErrClosed              = errors.New("controller_closed")
	ErrRejected            = errors.New("action_rejected")

	// a tile lost eligibility before the gate was taken; surfaced as a no-op
	errTileIneligible = errors.New("tile_not_eligible")
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindRejected   ErrorKind = "rejected"
	KindTransport  ErrorKind = "transport"
	KindProtocol   ErrorKind = "protocol"
)

const retryMessage = "connection problem, please retry"

// ActionError is what every action path surfaces. Reason is the server's
// rejection reason or a short protocol-violation code.
type ActionError struct {
	Kind   ErrorKind
	Action ActionKind
	Reason string
	Err    error
}

func (e *ActionError) Error() string {
	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("%s: %s", e.Action, retryMessage)
	case KindRejected:
		return fmt.Sprintf("%s rejected: %s", e.Action, e.Reason)
	case KindProtocol:
		return fmt.Sprintf("%s: protocol violation: %s", e.Action, e.Reason)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Action, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Action, e.Reason)
	}
}

func (e *ActionError) Unwrap() error { return e.Err }

// KindOf reports the ActionError kind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

func invalid(action ActionKind, err error) error {
	return &ActionError{Kind: KindValidation, Action: action, Reason: err.Error(), Err: err}
}

func rejected(action ActionKind, reason string) error {
	if reason == "" {
		reason = "rejected"
	}
	return &ActionError{Kind: KindRejected, Action: action, Reason: reason, Err: ErrRejected}
}

func transport(action ActionKind, err error) error {
	return &ActionError{Kind: KindTransport, Action: action, Reason: retryMessage, Err: err}
}

func violation(action ActionKind, reason string, err error) error {
	return &ActionError{Kind: KindProtocol, Action: action, Reason: reason, Err: err}
}
