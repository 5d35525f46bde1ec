// Package api serves the tracker's query surface over HTTP and pushes
// status changes to WebSocket subscribers.
package api

import (
	"time"

	"markethours/internal/domain"
)

// InstrumentsResponse lists every cached instrument schedule.
type InstrumentsResponse struct {
	Source      domain.Source                `json:"source"`
	Instruments []*domain.InstrumentSchedule `json:"instruments"`
}

// InstrumentResponse wraps one instrument schedule.
type InstrumentResponse struct {
	Source     domain.Source              `json:"source"`
	Instrument *domain.InstrumentSchedule `json:"instrument"`
}

// NextWakeResponse reports when the next tick is due.
type NextWakeResponse struct {
	NextWake time.Time `json:"next_wake"`
}

// HistoryResponse lists recorded status changes for one instrument.
type HistoryResponse struct {
	Symbol  string                `json:"symbol"`
	Changes []domain.StatusChange `json:"changes"`
}

// ChangeEvent is the WebSocket push sent when instrument statuses change.
type ChangeEvent struct {
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Changes map[string]bool `json:"changes"`
}

type errorResponse struct {
	Error string `json:"error"`
}
