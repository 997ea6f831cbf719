package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	pathStart   = "/api/mines/start"
	pathReveal  = "/api/mines/reveal"
	pathCashout = "/api/mines/cashout"
	pathActive  = "/api/mines/active"

	maxBodyBytes = 1 << 20
)

// Client talks to the game backend over HTTP. Hung calls are bounded by the
// http.Client timeout; that is the only timeout on the action path.
type Client struct {
	inner   *http.Client
	baseURL string
	token   string
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		inner:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

func (c *Client) StartSession(ctx context.Context, stake decimal.Decimal, hazardCount int) (StartResponse, error) {
	var out StartResponse
	err := c.do(ctx, http.MethodPost, pathStart, StartRequest{
		Stake:       json.Number(stake.String()),
		HazardCount: hazardCount,
	}, &out)
	return out, err
}

func (c *Client) Reveal(ctx context.Context, cell int) (RevealResponse, error) {
	var out RevealResponse
	err := c.do(ctx, http.MethodPost, pathReveal, RevealRequest{CellIndex: cell}, &out)
	return out, err
}

func (c *Client) Cashout(ctx context.Context) (CashoutResponse, error) {
	var out CashoutResponse
	err := c.do(ctx, http.MethodPost, pathCashout, struct{}{}, &out)
	return out, err
}

func (c *Client) ActiveSession(ctx context.Context) (ActiveSessionResponse, error) {
	var out ActiveSessionResponse
	err := c.do(ctx, http.MethodGet, pathActive, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	requestID := NewRequestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.inner.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Int64("duration_ms", time.Since(started).Milliseconds()).
		Msg("backend_call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
		}
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if isRejection(raw) {
		if err := json.Unmarshal(raw, out); err == nil {
			return nil
		}
	}
	return &StatusError{Method: method, Path: path, Status: resp.StatusCode}
}

// isRejection reports whether a non-2xx body is a {success:false,error} envelope.
// Those are business rejections, not transport failures.
func isRejection(raw []byte) bool {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	if env.Success != nil && *env.Success {
		return false
	}
	return env.Error != ""
}
