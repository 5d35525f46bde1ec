// Package tracker maintains an eventually-consistent view of which
// instruments are currently tradable. It refreshes schedule data from the
// feed once per reference day, recomputes open/closed flags on every session
// boundary, and notifies a callback with status changes.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"markethours/internal/clock"
	"markethours/internal/domain"
	"markethours/internal/feed"
)

const dateLayout = "2006-01-02"
const timeOfDayLayout = "15:04:05"

// Notifier receives the set of instruments whose open/closed status changed
// on a tick, keyed by symbol. It is invoked synchronously from the tick, at
// most once per tick, and only with a non-empty map.
type Notifier func(changes map[string]bool)

// Options configures optional Tracker behavior.
type Options struct {
	// Notifier is called with status changes. Nil disables notifications.
	Notifier Notifier

	// Supplementary lists always-open instruments the feed omits; they are
	// injected after every refresh. Nil uses the built-in set.
	Supplementary []string

	Logger *slog.Logger
}

// Tracker owns the session cache. All mutation happens through Initialise,
// the periodic tick, and the daily refresh; readers get point-in-time
// answers through the query methods.
type Tracker struct {
	clk           clock.Clock
	feed          feed.Feed
	notify        Notifier
	supplementary []string
	log           *slog.Logger

	mu         sync.RWMutex
	cache      map[string]*domain.InstrumentSchedule
	source     domain.Source
	lastUpdate time.Time
	closed     bool

	initOnce sync.Once
	initDone chan struct{}

	loopCancel context.CancelFunc
	loopDone   chan struct{}
	stopOnce   sync.Once
}

// New creates a Tracker over the given clock and feed. The cache starts
// empty; call Initialise to populate it and start the periodic loop.
func New(clk clock.Clock, f feed.Feed, opts Options) *Tracker {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	supp := opts.Supplementary
	if supp == nil {
		supp = supplementarySymbols
	}
	return &Tracker{
		clk:           clk,
		feed:          f,
		notify:        opts.Notifier,
		supplementary: supp,
		log:           log,
		cache:         make(map[string]*domain.InstrumentSchedule),
		source:        domain.SourceNone,
		initDone:      make(chan struct{}),
		loopDone:      make(chan struct{}),
	}
}

// Initialise populates the cache and starts the periodic loop. It is
// idempotent: concurrent and repeated callers share the single in-flight
// initialisation and return once it has completed. Feed failures are
// absorbed; the returned Source reports whether live or fallback data is in
// use.
func (t *Tracker) Initialise(ctx context.Context) domain.Source {
	t.initOnce.Do(func() {
		t.mu.Lock()
		t.lastUpdate = t.clk.Now()
		empty := len(t.cache) == 0
		t.mu.Unlock()

		if empty {
			t.refresh(ctx)
		}

		wake := t.Tick(ctx)

		loopCtx, cancel := context.WithCancel(context.Background())
		t.loopCancel = cancel
		go t.run(loopCtx, wake)

		close(t.initDone)
	})
	<-t.initDone

	return t.Source()
}

// Stop cancels the periodic loop. Any in-flight feed request is allowed to
// complete but its result is discarded. Stop is idempotent and safe to call
// whether or not Initialise ran.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()

		if t.loopCancel != nil {
			t.loopCancel()
			<-t.loopDone
		}
	})
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// IsOpen returns the cached open/closed status for symbol. Unknown symbols
// report closed; IsOpen never fails.
func (t *Tracker) IsOpen(symbol string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sched, ok := t.cache[symbol]
	if !ok {
		return false
	}
	return sched.IsOpen
}

// DisplayName returns a human-readable name for symbol: the feed-provided
// name if cached, else the static table, else the raw symbol.
func (t *Tracker) DisplayName(symbol string) string {
	t.mu.RLock()
	sched, ok := t.cache[symbol]
	t.mu.RUnlock()
	if ok && sched.DisplayName != "" {
		return sched.DisplayName
	}
	if name, ok := displayNames[symbol]; ok {
		return name
	}
	return symbol
}

// Source reports where the current cache contents came from.
func (t *Tracker) Source() domain.Source {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.source
}

// Snapshot returns a deep copy of every cached schedule.
func (t *Tracker) Snapshot() []*domain.InstrumentSchedule {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*domain.InstrumentSchedule, 0, len(t.cache))
	for _, sched := range t.cache {
		out = append(out, sched.Clone())
	}
	return out
}

// NextWakeInstant returns the instant the next tick is due: the earliest
// future session boundary, or midnight UTC of the day after the last
// schedule update when no boundary remains, floored at "now" so the loop
// never stalls.
func (t *Tracker) NextWakeInstant() time.Time {
	now := t.clk.Now()

	t.mu.RLock()
	wake := nextBoundary(t.cache, now)
	lastUpdate := t.lastUpdate
	t.mu.RUnlock()

	if wake.IsZero() {
		wake = midnightAfter(lastUpdate)
	}
	if wake.Before(now) {
		return now
	}
	return wake
}

// ---------------------------------------------------------------------------
// Periodic loop
// ---------------------------------------------------------------------------

// Tick runs one recomputation pass: it updates every instrument's open flag
// against "now", notifies on changes, refreshes the schedule when the day
// rolls over, and returns the instant the next tick is due. The internal
// loop drives it; tests drive it directly with a fixed clock.
func (t *Tracker) Tick(ctx context.Context) time.Time {
	now := t.clk.Now()

	changes := t.recompute(now)
	if len(changes) > 0 && t.notify != nil {
		t.notify(changes)
	}

	t.mu.RLock()
	wake := nextBoundary(t.cache, now)
	t.mu.RUnlock()

	if wake.IsZero() {
		// No boundary remains today: roll the reference date forward and
		// refetch tomorrow's schedule, retaining current open flags so the
		// refresh itself emits no status change.
		t.mu.Lock()
		nextUpdate := midnightAfter(t.lastUpdate)
		if now.After(nextUpdate) {
			t.lastUpdate = now
		} else {
			t.lastUpdate = nextUpdate
		}
		t.mu.Unlock()

		t.refresh(ctx)

		wake = nextUpdate
	}

	if wake.Before(now) {
		wake = now
	}
	return wake
}

// run is the timer loop. Each iteration waits until the wake instant
// computed by the previous tick; ticks never overlap.
func (t *Tracker) run(ctx context.Context, wake time.Time) {
	defer close(t.loopDone)

	for {
		wait := wake.Sub(t.clk.Now())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		wake = t.Tick(ctx)
	}
}

// recompute updates the open flag of every cached instrument against now and
// returns the symbols whose status changed.
func (t *Tracker) recompute(now time.Time) map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	changes := make(map[string]bool)
	for sym, sched := range t.cache {
		open := sched.OpenAt(now)
		if open != sched.IsOpen {
			sched.IsOpen = open
			changes[sym] = open
		}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

// refresh replaces the cache with the feed's schedule for the current
// reference date, falling back to the static dataset on any failure. The
// previous open flag of each surviving instrument is carried over.
func (t *Tracker) refresh(ctx context.Context) {
	t.mu.RLock()
	refDate := t.lastUpdate
	t.mu.RUnlock()

	date := refDate.Format(dateLayout)

	built, source := t.fetch(ctx, date, refDate)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		// Disposed while the request was in flight; discard the result.
		return
	}

	for sym, sched := range built {
		if prev, ok := t.cache[sym]; ok {
			sched.IsOpen = prev.IsOpen
		}
	}
	t.cache = built
	t.source = source

	t.log.Info("schedule refreshed", "date", date, "source", source, "instruments", len(built))
}

// fetch requests and normalises one day's schedule. Every failure mode
// (transport error, explicit feed error, missing structure, zero usable
// symbols) degrades to the fallback dataset.
func (t *Tracker) fetch(ctx context.Context, date string, refDate time.Time) (map[string]*domain.InstrumentSchedule, domain.Source) {
	resp, err := t.feed.TradingTimes(ctx, date)
	if err != nil {
		t.log.Warn("schedule fetch failed, using fallback dataset", "date", date, "error", err)
		return fallbackSchedules(), domain.SourceFallback
	}
	if resp.Error != nil {
		t.log.Warn("feed rejected schedule request, using fallback dataset", "date", date, "error", resp.Error)
		return fallbackSchedules(), domain.SourceFallback
	}
	if resp.TradingTimes == nil || len(resp.TradingTimes.Markets) == 0 {
		t.log.Warn("malformed schedule response, using fallback dataset", "date", date)
		return fallbackSchedules(), domain.SourceFallback
	}

	built := t.buildSchedules(resp.TradingTimes, refDate)

	// Instruments the feed omits but which are always tradable.
	for _, sym := range t.supplementary {
		if _, ok := built[sym]; ok {
			continue
		}
		built[sym] = &domain.InstrumentSchedule{
			Symbol:      sym,
			DisplayName: displayNames[sym],
			OpenAllDay:  true,
			IsOpen:      true,
		}
	}

	if len(built) == 0 {
		t.log.Warn("no usable symbols in schedule response, using fallback dataset", "date", date)
		return fallbackSchedules(), domain.SourceFallback
	}
	return built, domain.SourceLive
}

// buildSchedules converts the feed payload into schedules keyed by symbol.
// Individual invalid entries are skipped and logged; they never abort the
// whole refresh.
func (t *Tracker) buildSchedules(tt *feed.TradingTimes, refDate time.Time) map[string]*domain.InstrumentSchedule {
	out := make(map[string]*domain.InstrumentSchedule)

	for _, market := range tt.Markets {
		for _, sub := range market.Submarkets {
			for _, sym := range sub.Symbols {
				sched, ok := t.buildSymbol(sym, refDate)
				if !ok {
					continue
				}
				out[sched.Symbol] = sched
			}
		}
	}
	return out
}

func (t *Tracker) buildSymbol(sym feed.SymbolTimes, refDate time.Time) (*domain.InstrumentSchedule, bool) {
	if sym.Symbol == "" {
		t.log.Warn("skipping symbol entry without an id", "display_name", sym.DisplayName)
		return nil, false
	}
	if sym.Times == nil || len(sym.Times.Open) == 0 || len(sym.Times.Close) == 0 {
		t.log.Warn("skipping symbol entry without session times", "symbol", sym.Symbol)
		return nil, false
	}

	opens, closes := sym.Times.Open, sym.Times.Close

	sched := &domain.InstrumentSchedule{
		Symbol:      sym.Symbol,
		DisplayName: sym.DisplayName,
	}

	switch {
	case len(opens) == 1 && opens[0] == "00:00:00" && closes[0] == "23:59:59":
		sched.OpenAllDay = true
	case len(opens) == 1 && opens[0] == "--" && closes[0] == "--":
		sched.ClosedAllDay = true
	default:
		if len(closes) < len(opens) {
			t.log.Warn("skipping symbol with mismatched open/close times", "symbol", sym.Symbol)
			return nil, false
		}
		sessions := make([]domain.Session, 0, len(opens))
		for i := range opens {
			openAt, err1 := atTimeOfDay(refDate, opens[i])
			closeAt, err2 := atTimeOfDay(refDate, closes[i])
			if err1 != nil || err2 != nil {
				t.log.Warn("skipping symbol with unparsable session times",
					"symbol", sym.Symbol, "open", opens[i], "close", closes[i])
				return nil, false
			}
			sessions = append(sessions, domain.Session{Open: openAt, Close: closeAt})
		}
		sched.Sessions = sessions
	}

	return sched, true
}

// ---------------------------------------------------------------------------
// Time helpers
// ---------------------------------------------------------------------------

// atTimeOfDay places an HH:MM:SS string on the given reference date, UTC.
func atTimeOfDay(refDate time.Time, hms string) (time.Time, error) {
	tod, err := time.Parse(timeOfDayLayout, hms)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := refDate.UTC().Date()
	return time.Date(y, m, d, tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC), nil
}

// nextBoundary returns the earliest session open or close strictly after
// now across all timed instruments, or the zero time if none remains.
func nextBoundary(cache map[string]*domain.InstrumentSchedule, now time.Time) time.Time {
	var next time.Time
	consider := func(t time.Time) {
		if t.After(now) && (next.IsZero() || t.Before(next)) {
			next = t
		}
	}
	for _, sched := range cache {
		if sched.OpenAllDay || sched.ClosedAllDay {
			continue
		}
		for _, s := range sched.Sessions {
			consider(s.Open)
			consider(s.Close)
		}
	}
	return next
}

// midnightAfter returns 00:00:00 UTC of the day following t.
func midnightAfter(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
