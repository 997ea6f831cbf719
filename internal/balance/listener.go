package balance

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"mines-client/internal/realtime"
)

const Event = "balance"

var (
	ErrBadOp     = errors.New("bad_balance_op")
	ErrBadAmount = errors.New("bad_balance_amount")
)

// Channel is the per-connection subscription surface. *realtime.Conn
// implements it.
type Channel interface {
	ID() uint64
	Subscribe(event string, h realtime.Handler) func()
}

// Listener applies balance push events to a Snapshot. It holds at most one
// subscription, bound to the current connection.
type Listener struct {
	snap *Snapshot

	mu     sync.Mutex
	connID uint64
	cancel func()
}

func NewListener(snap *Snapshot) *Listener {
	return &Listener{snap: snap}
}

// Attach subscribes to ch. Attaching to the connection already attached is a
// no-op; attaching to a new one drops the old subscription first.
func (l *Listener) Attach(ch Channel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		if l.connID == ch.ID() {
			return
		}
		l.cancel()
	}
	l.connID = ch.ID()
	l.cancel = ch.Subscribe(Event, l.handle)
	metricAttachesTotal.Add(1)
	log.Debug().Uint64("conn_id", l.connID).Msg("balance_listener_attached")
}

// Detach drops the current subscription, if any.
func (l *Listener) Detach() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return
	}
	l.cancel()
	l.cancel = nil
	log.Debug().Uint64("conn_id", l.connID).Msg("balance_listener_detached")
	l.connID = 0
}

// Attached reports whether a subscription is live.
func (l *Listener) Attached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

func (l *Listener) handle(args []json.RawMessage) {
	if err := l.Apply(args); err != nil {
		metricBadEventsTotal.Add(1)
		log.Warn().Err(err).Msg("balance_event_dropped")
	}
}

// Apply interprets one ("set"|"add", amount) event.
func (l *Listener) Apply(args []json.RawMessage) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: want 2 args, got %d", ErrBadOp, len(args))
	}
	var op string
	if err := json.Unmarshal(args[0], &op); err != nil {
		return fmt.Errorf("%w: %v", ErrBadOp, err)
	}
	var amount decimal.Decimal
	if err := json.Unmarshal(args[1], &amount); err != nil {
		return fmt.Errorf("%w: %v", ErrBadAmount, err)
	}
	switch op {
	case "set":
		l.snap.Set(amount)
	case "add":
		l.snap.Add(amount)
	default:
		return fmt.Errorf("%w: %q", ErrBadOp, op)
	}
	metricEventsTotal.Add(1)
	return nil
}
