package realtime

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Client struct {
	url    string
	token  string
	base   time.Duration
	max    time.Duration
	dialer *websocket.Dialer

	mu           sync.Mutex
	onConnect    []func(*Conn)
	onDisconnect []func(*Conn, error)
	connID       uint64
}

func NewClient(url, token string, base, max time.Duration) *Client {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if max < base {
		max = base
	}
	return &Client{
		url:    url,
		token:  token,
		base:   base,
		max:    max,
		dialer: websocket.DefaultDialer,
	}
}

// OnConnect registers fn to run once for every established connection,
// before the first frame is read from it.
func (c *Client) OnConnect(fn func(*Conn)) {
	c.mu.Lock()
	c.onConnect = append(c.onConnect, fn)
	c.mu.Unlock()
}

// OnDisconnect registers fn to run once when a connection is lost.
func (c *Client) OnDisconnect(fn func(*Conn, error)) {
	c.mu.Lock()
	c.onDisconnect = append(c.onDisconnect, fn)
	c.mu.Unlock()
}

// Run keeps a connection open until ctx is done, reconnecting with
// exponential backoff. It always returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			attempt = 0
		}
		delay := c.backoff(attempt)
		attempt++
		metricReconnectsTotal.Add(1)
		log.Warn().Err(err).Dur("retry_in", delay).Str("url", c.url).Msg("realtime_reconnect")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// backoff is base*2^attempt capped at max, with up to 20% jitter removed.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.base
	for i := 0; i < attempt && d < c.max; i++ {
		d *= 2
	}
	if d > c.max {
		d = c.max
	}
	if jitter := int64(d) / 5; jitter > 0 {
		d -= time.Duration(rand.Int63n(jitter))
	}
	return d
}

// session dials once and pumps frames until the connection fails.
func (c *Client) session(ctx context.Context) (bool, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	ws, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		metricDialErrorsTotal.Add(1)
		return false, err
	}

	c.mu.Lock()
	c.connID++
	conn := newConn(c.connID)
	onConnect := append([]func(*Conn){}, c.onConnect...)
	onDisconnect := append([]func(*Conn, error){}, c.onDisconnect...)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ws.Close()
		case <-done:
		}
	}()

	metricConnected.Set(1)
	log.Info().Uint64("conn_id", conn.ID()).Str("url", c.url).Msg("realtime_connected")
	for _, fn := range onConnect {
		fn(conn)
	}

	err = c.readLoop(ws, conn)
	close(done)
	_ = ws.Close()
	metricConnected.Set(0)

	for _, fn := range onDisconnect {
		fn(conn, err)
	}
	log.Info().Uint64("conn_id", conn.ID()).Err(err).Msg("realtime_disconnected")
	return true, err
}

func (c *Client) readLoop(ws *websocket.Conn, conn *Conn) error {
	for {
		kind, msg, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		if kind != websocket.TextMessage {
			continue
		}
		frame, err := DecodeFrame(msg)
		if err != nil {
			metricInvalidFramesTotal.Add(1)
			log.Debug().Err(err).Uint64("conn_id", conn.ID()).Msg("realtime_frame_dropped")
			continue
		}
		metricFramesTotal.Add(1)
		if conn.dispatch(frame) == 0 {
			metricUnhandledTotal.Add(1)
		}
	}
}
