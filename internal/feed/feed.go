package feed

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the feed could not be reached at the transport
// level. Callers treat it the same as an explicit feed error: degrade, do
// not propagate.
var ErrUnavailable = errors.New("schedule feed unavailable")

// Feed requests the session schedule for a reference date (YYYY-MM-DD).
//
// A nil error means a response was decoded; the response may still carry an
// Error field or a missing TradingTimes payload, which the caller must treat
// as a failed fetch.
type Feed interface {
	TradingTimes(ctx context.Context, date string) (*Response, error)
}
