package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"markethours/internal/domain"
	"markethours/internal/history"
	"markethours/internal/tracker"
)

// Server exposes the tracker over HTTP. A nil journal disables the history
// endpoint.
type Server struct {
	tracker *tracker.Tracker
	journal *history.SQLiteJournal
	hub     *Hub
	log     *slog.Logger
}

// NewServer creates a Server over the given tracker.
func NewServer(tr *tracker.Tracker, journal *history.SQLiteJournal, log *slog.Logger) *Server {
	return &Server{
		tracker: tr,
		journal: journal,
		hub:     NewHub(log),
		log:     log,
	}
}

// Run starts the WebSocket hub's broadcast loop and blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// NotifyChanges pushes a status-change map to all WebSocket subscribers.
// It is intended to be wired into the tracker's change notifier.
func (s *Server) NotifyChanges(changes map[string]bool, at time.Time) {
	payload, err := json.Marshal(ChangeEvent{Type: "status_change", At: at, Changes: changes})
	if err != nil {
		s.log.Error("marshalling change event", "error", err)
		return
	}
	s.hub.Broadcast(payload)
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/instruments", s.handleInstruments)
	mux.HandleFunc("GET /api/instruments/{symbol}", s.handleInstrument)
	mux.HandleFunc("GET /api/next-wake", s.handleNextWake)
	mux.HandleFunc("GET /api/history/{symbol}", s.handleHistory)
	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)
	return corsMiddleware(mux)
}

func (s *Server) handleInstruments(w http.ResponseWriter, _ *http.Request) {
	instruments := s.tracker.Snapshot()
	sort.Slice(instruments, func(i, j int) bool {
		return instruments[i].Symbol < instruments[j].Symbol
	})
	writeJSON(w, InstrumentsResponse{
		Source:      s.tracker.Source(),
		Instruments: instruments,
	})
}

func (s *Server) handleInstrument(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	var found *domain.InstrumentSchedule
	for _, sched := range s.tracker.Snapshot() {
		if sched.Symbol == symbol {
			found = sched
			break
		}
	}
	if found == nil {
		writeJSONStatus(w, http.StatusNotFound, errorResponse{Error: "unknown instrument: " + symbol})
		return
	}

	writeJSON(w, InstrumentResponse{Source: s.tracker.Source(), Instrument: found})
}

func (s *Server) handleNextWake(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, NextWakeResponse{NextWake: s.tracker.NextWakeInstant()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeJSONStatus(w, http.StatusNotFound, errorResponse{Error: "history journal is not configured"})
		return
	}

	symbol := r.PathValue("symbol")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONStatus(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	changes, err := s.journal.Recent(r.Context(), symbol, limit)
	if err != nil {
		s.log.Error("reading history", "symbol", symbol, "error", err)
		writeJSONStatus(w, http.StatusInternalServerError, errorResponse{Error: "reading history failed"})
		return
	}

	writeJSON(w, HistoryResponse{Symbol: symbol, Changes: changes})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing JSON response", "error", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing JSON response", "error", err)
	}
}
