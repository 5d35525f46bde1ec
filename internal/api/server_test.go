package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"markethours/internal/clock"
	"markethours/internal/domain"
	"markethours/internal/feed"
	"markethours/internal/history"
	"markethours/internal/tracker"
)

type staticFeed struct{ resp *feed.Response }

func (s *staticFeed) TradingTimes(context.Context, string) (*feed.Response, error) {
	return s.resp, nil
}

func newTestServer(t *testing.T, journal *history.SQLiteJournal) (*Server, *tracker.Tracker) {
	t.Helper()

	f := &staticFeed{resp: &feed.Response{
		TradingTimes: &feed.TradingTimes{
			Markets: []feed.Market{{
				Submarkets: []feed.Submarket{{
					Symbols: []feed.SymbolTimes{
						{
							Symbol:      "FX1",
							DisplayName: "FX One",
							Times:       &feed.Times{Open: []string{"09:00:00"}, Close: []string{"17:00:00"}},
						},
						{
							Symbol: "SYN1",
							Times:  &feed.Times{Open: []string{"00:00:00"}, Close: []string{"23:59:59"}},
						},
					},
				}},
			}},
		},
	}}

	clk := clock.NewFixedClock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	tr := tracker.New(clk, f, tracker.Options{Supplementary: []string{}})
	tr.Initialise(context.Background())
	t.Cleanup(tr.Stop)

	return NewServer(tr, journal, slog.Default()), tr
}

func TestHandleInstruments(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/instruments", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp InstrumentsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Source != domain.SourceLive {
		t.Errorf("source = %v, want live", resp.Source)
	}
	if len(resp.Instruments) != 2 {
		t.Fatalf("got %d instruments, want 2", len(resp.Instruments))
	}
	// Sorted by symbol.
	if resp.Instruments[0].Symbol != "FX1" || resp.Instruments[1].Symbol != "SYN1" {
		t.Errorf("instruments out of order: %s, %s",
			resp.Instruments[0].Symbol, resp.Instruments[1].Symbol)
	}
	if !resp.Instruments[0].IsOpen {
		t.Error("FX1 should be open at 10:00")
	}
}

func TestHandleInstrument(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/instruments/FX1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp InstrumentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Instrument.Symbol != "FX1" || resp.Instrument.DisplayName != "FX One" {
		t.Errorf("unexpected instrument: %+v", resp.Instrument)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/instruments/NOPE", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown instrument status = %d, want 404", rec.Code)
	}
}

func TestHandleNextWake(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/next-wake", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp NextWakeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	want := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)
	if !resp.NextWake.Equal(want) {
		t.Errorf("next_wake = %v, want %v", resp.NextWake, want)
	}
}

func TestHandleHistory(t *testing.T) {
	journal, err := history.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("opening journal: %v", err)
	}
	defer journal.Close()

	at := time.Date(2024, 1, 1, 17, 0, 1, 0, time.UTC)
	if err := journal.Record(context.Background(), []domain.StatusChange{
		{Symbol: "FX1", IsOpen: false, At: at},
	}); err != nil {
		t.Fatalf("recording change: %v", err)
	}

	srv, _ := newTestServer(t, journal)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/history/FX1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Changes) != 1 || resp.Changes[0].IsOpen {
		t.Errorf("unexpected history: %+v", resp.Changes)
	}
}

func TestHandleHistoryWithoutJournal(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/history/FX1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when journal disabled", rec.Code)
	}
}

func TestWebSocketPush(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// Give the hub a moment to process the registration.
	time.Sleep(100 * time.Millisecond)

	at := time.Date(2024, 1, 1, 17, 0, 1, 0, time.UTC)
	srv.NotifyChanges(map[string]bool{"FX1": false}, at)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event ChangeEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if event.Type != "status_change" {
		t.Errorf("event type = %q, want status_change", event.Type)
	}
	if open, ok := event.Changes["FX1"]; !ok || open {
		t.Errorf("event changes = %v, want FX1 -> false", event.Changes)
	}
}
