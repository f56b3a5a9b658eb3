package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

var (
	// ErrRejected means the gateway refused the request itself. Sending
	// it again cannot succeed.
	ErrRejected = errors.New("attendance rejected by gateway")
	// ErrUnavailable means the gateway answered but could not serve the
	// request right now. The request may be retried.
	ErrUnavailable = errors.New("gateway unavailable")
)

// HTTPBackend talks to the gateway's mobile endpoints. Every response
// carrying serverTime corrects the clock.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
	clock   *OffsetClock
}

func NewHTTPBackend(baseURL string, timeout time.Duration, clock *OffsetClock) *HTTPBackend {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		clock:   clock,
	}
}

func (b *HTTPBackend) SubmitAttendance(ctx context.Context, req types.AttendanceRequest) (types.AttendanceResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.AttendanceResponse{}, fmt.Errorf("encode attendance: %w", err)
	}

	var out types.AttendanceResponse
	if err := b.do(ctx, http.MethodPost, "/api/attendance", body, &out); err != nil {
		return types.AttendanceResponse{}, err
	}
	return out, nil
}

// SyncClock asks the gateway for its time.
func (b *HTTPBackend) SyncClock(ctx context.Context) error {
	var out types.TimeResponse
	return b.do(ctx, http.MethodGet, "/api/time", nil, &out)
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	sent := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	received := time.Now()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%s %s: read: %w", method, path, err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: %s %s: %d %s", statusErr(resp.StatusCode), method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}

	if b.clock != nil {
		var st struct {
			ServerTime string `json:"serverTime"`
		}
		if json.Unmarshal(raw, &st) == nil {
			if t, err := time.Parse(time.RFC3339Nano, st.ServerTime); err == nil {
				b.clock.Observe(t, sent, received)
			}
		}
	}
	return nil
}

// statusErr classifies a non-2xx status. Timeouts and rate limits are
// client errors on the wire but clear up on their own.
func statusErr(code int) error {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return ErrUnavailable
	case code >= 400 && code < 500:
		return ErrRejected
	default:
		return ErrUnavailable
	}
}

func (b *HTTPBackend) CloseIdleConnections() { b.client.CloseIdleConnections() }
