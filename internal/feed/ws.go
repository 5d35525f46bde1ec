package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"markethours/internal/util"
)

const (
	defaultDialAttempts = 3
	defaultDialBackoff  = time.Second

	// Upper bound on unrelated frames skipped while waiting for our req_id.
	// The feed may interleave subscription pushes on the same connection.
	maxSkippedFrames = 64
)

// WSFeed is a Feed backed by a WebSocket endpoint. It keeps a single
// connection, serialises request/response exchanges, and reconnects on the
// next call after a transport failure.
type WSFeed struct {
	url    string
	dialer *websocket.Dialer
	rl     *util.RateLimiter
	log    *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// WSFeedOptions configures a WSFeed.
type WSFeedOptions struct {
	// RatePerMinute caps outgoing requests. Zero disables rate limiting.
	RatePerMinute int
	Logger        *slog.Logger
}

// NewWSFeed creates a WSFeed targeting the given ws:// or wss:// URL.
func NewWSFeed(url string, opts WSFeedOptions) *WSFeed {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	var rl *util.RateLimiter
	if opts.RatePerMinute > 0 {
		rl = util.NewRateLimiter(opts.RatePerMinute)
	}
	return &WSFeed{
		url:    url,
		dialer: websocket.DefaultDialer,
		rl:     rl,
		log:    log,
	}
}

// TradingTimes sends a trading-times request and waits for the matching
// response. Transport failures are returned wrapped in ErrUnavailable.
func (f *WSFeed) TradingTimes(ctx context.Context, date string) (*Response, error) {
	if f.rl != nil {
		if err := f.rl.Wait(ctx); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	conn, err := f.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req := Request{TradingTimes: date, ReqID: uuid.NewString()}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
		conn.SetReadDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Time{})
		conn.SetReadDeadline(time.Time{})
	}

	if err := conn.WriteJSON(req); err != nil {
		f.drop()
		return nil, fmt.Errorf("%w: writing request: %v", ErrUnavailable, err)
	}

	for skipped := 0; skipped < maxSkippedFrames; skipped++ {
		var resp Response
		if err := conn.ReadJSON(&resp); err != nil {
			f.drop()
			return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
		}
		if resp.ReqID != "" && resp.ReqID != req.ReqID {
			f.log.Debug("skipping unrelated frame", "req_id", resp.ReqID)
			continue
		}
		return &resp, nil
	}

	f.drop()
	return nil, fmt.Errorf("%w: no response after %d frames", ErrUnavailable, maxSkippedFrames)
}

// Close shuts down the underlying connection if one is open.
func (f *WSFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	return err
}

// connect returns the live connection, dialing with retry if needed.
// Callers must hold f.mu.
func (f *WSFeed) connect(ctx context.Context) (*websocket.Conn, error) {
	if f.conn != nil {
		return f.conn, nil
	}

	var conn *websocket.Conn
	err := util.Retry(ctx, defaultDialAttempts, defaultDialBackoff, func() error {
		c, _, derr := f.dialer.DialContext(ctx, f.url, nil)
		if derr != nil {
			f.log.Warn("feed dial failed", "url", f.url, "error", derr)
			return derr
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.log.Info("connected to schedule feed", "url", f.url)
	f.conn = conn
	return conn, nil
}

// drop discards the connection after a transport error so the next call
// redials. Callers must hold f.mu.
func (f *WSFeed) drop() {
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}
