// Package domain defines the core types shared across the markethours
// service: per-instrument trading schedules, session windows, and
// status-change records.
package domain

import "time"

// Source identifies where the current schedule data came from.
type Source string

const (
	// SourceLive means the cache was built from a successful feed response.
	SourceLive Source = "live"
	// SourceFallback means the cache was built from the static fallback
	// dataset because the feed was unreachable or returned invalid data.
	SourceFallback Source = "fallback"
	// SourceNone means no refresh has completed yet.
	SourceNone Source = "none"
)

// Session is one contiguous trading window on the reference date. The
// interval is half-open: an instrument is open at Open and closed at Close.
type Session struct {
	Open  time.Time `json:"open"`
	Close time.Time `json:"close"`
}

// Contains reports whether t falls within the session window [Open, Close).
func (s Session) Contains(t time.Time) bool {
	return !t.Before(s.Open) && t.Before(s.Close)
}

// InstrumentSchedule holds one instrument's trading schedule for the
// reference date, plus its last computed open/closed status.
//
// Exactly one of OpenAllDay, ClosedAllDay, or a non-empty Sessions slice is
// authoritative. Sessions are not guaranteed to be sorted or non-overlapping;
// consumers must check every entry.
type InstrumentSchedule struct {
	Symbol       string    `json:"symbol"`
	DisplayName  string    `json:"display_name"`
	OpenAllDay   bool      `json:"open_all_day"`
	ClosedAllDay bool      `json:"closed_all_day"`
	Sessions     []Session `json:"sessions,omitempty"`

	// IsOpen is the status computed on the most recent tick. It is carried
	// over across a full schedule refresh so the refresh itself never emits
	// a spurious status change.
	IsOpen bool `json:"is_open"`
}

// OpenAt computes the instrument's open/closed status at instant t.
func (is *InstrumentSchedule) OpenAt(t time.Time) bool {
	if is.ClosedAllDay {
		return false
	}
	if is.OpenAllDay {
		return true
	}
	for _, s := range is.Sessions {
		if s.Contains(t) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the schedule.
func (is *InstrumentSchedule) Clone() *InstrumentSchedule {
	c := *is
	if is.Sessions != nil {
		c.Sessions = make([]Session, len(is.Sessions))
		copy(c.Sessions, is.Sessions)
	}
	return &c
}

// StatusChange records a single open/closed transition for an instrument.
type StatusChange struct {
	Symbol string    `json:"symbol"`
	IsOpen bool      `json:"is_open"`
	At     time.Time `json:"at"`
}
