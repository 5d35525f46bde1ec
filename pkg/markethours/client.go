// Package markethours provides a Go client for the markethours HTTP API.
package markethours

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Instrument mirrors the server's instrument schedule representation.
type Instrument struct {
	Symbol       string    `json:"symbol"`
	DisplayName  string    `json:"display_name"`
	OpenAllDay   bool      `json:"open_all_day"`
	ClosedAllDay bool      `json:"closed_all_day"`
	Sessions     []Session `json:"sessions,omitempty"`
	IsOpen       bool      `json:"is_open"`
}

// Session is one trading window, half-open [Open, Close).
type Session struct {
	Open  time.Time `json:"open"`
	Close time.Time `json:"close"`
}

// StatusChange is one recorded open/closed transition.
type StatusChange struct {
	Symbol string    `json:"symbol"`
	IsOpen bool      `json:"is_open"`
	At     time.Time `json:"at"`
}

// InstrumentsResult is the payload of the instrument listing endpoint.
type InstrumentsResult struct {
	Source      string       `json:"source"`
	Instruments []Instrument `json:"instruments"`
}

type instrumentResult struct {
	Source     string      `json:"source"`
	Instrument *Instrument `json:"instrument"`
}

type nextWakeResult struct {
	NextWake time.Time `json:"next_wake"`
}

type historyResult struct {
	Symbol  string         `json:"symbol"`
	Changes []StatusChange `json:"changes"`
}

type errorResult struct {
	Error string `json:"error"`
}

// Client talks to a markethours server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Instruments lists every tracked instrument with its current status.
func (c *Client) Instruments(ctx context.Context) (*InstrumentsResult, error) {
	var out InstrumentsResult
	if err := c.get(ctx, "/api/instruments", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Instrument returns the schedule for one symbol.
func (c *Client) Instrument(ctx context.Context, symbol string) (*Instrument, error) {
	var out instrumentResult
	if err := c.get(ctx, "/api/instruments/"+url.PathEscape(symbol), &out); err != nil {
		return nil, err
	}
	return out.Instrument, nil
}

// NextWake returns the instant of the tracker's next scheduled tick.
func (c *Client) NextWake(ctx context.Context) (time.Time, error) {
	var out nextWakeResult
	if err := c.get(ctx, "/api/next-wake", &out); err != nil {
		return time.Time{}, err
	}
	return out.NextWake, nil
}

// History returns up to limit recorded status changes for symbol, newest
// first. limit <= 0 uses the server default.
func (c *Client) History(ctx context.Context, symbol string, limit int) ([]StatusChange, error) {
	path := "/api/history/" + url.PathEscape(symbol)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out historyResult
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Changes, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResult
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("GET %s: %s (status %d)", path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
