// Package feed implements the schedule-feed client: wire types for the
// trading-times request/response exchange and a WebSocket transport.
package feed

import "fmt"

// Request asks the feed for all instrument session windows on one reference
// date. ReqID correlates the response on a shared connection.
type Request struct {
	TradingTimes string `json:"trading_times"` // YYYY-MM-DD
	ReqID        string `json:"req_id,omitempty"`
}

// Response is the feed's answer: either an Error or a TradingTimes payload.
type Response struct {
	Error        *APIError     `json:"error,omitempty"`
	TradingTimes *TradingTimes `json:"trading_times,omitempty"`
	ReqID        string        `json:"req_id,omitempty"`
}

// APIError is an explicit error reported by the feed.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feed error %s: %s", e.Code, e.Message)
}

// TradingTimes holds the market → submarket → symbol schedule hierarchy.
type TradingTimes struct {
	Markets []Market `json:"markets"`
}

// Market groups submarkets under one market name.
type Market struct {
	Name       string      `json:"name"`
	Submarkets []Submarket `json:"submarkets"`
}

// Submarket groups symbols under one submarket name.
type Submarket struct {
	Name    string        `json:"name"`
	Symbols []SymbolTimes `json:"symbols"`
}

// SymbolTimes is one instrument's schedule for the reference date.
type SymbolTimes struct {
	Symbol      string `json:"underlying_symbol"`
	DisplayName string `json:"display_name"`
	Times       *Times `json:"times"`
}

// Times pairs open and close time-of-day strings by index. Each entry is
// HH:MM:SS (24h, UTC). The pair ["00:00:00"]/["23:59:59"] means open all
// day; ["--"]/["--"] means closed all day.
type Times struct {
	Open  []string `json:"open"`
	Close []string `json:"close"`
}
