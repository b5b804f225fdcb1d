// Package cooldown tracks when each (symbol, signal) pair last fired, so
// repeated alerts inside the cooldown window can be suppressed. The tracker
// is the sole owner of deduplication state; it is loaded at the start of a
// run and saved once at the end.
package cooldown

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"signal-watcher/internal/signal"
)

// Key identifies one deduplication slot.
type Key struct {
	Symbol string
	Signal signal.Type
}

// Backend persists the record set between runs.
type Backend interface {
	LoadRecords(ctx context.Context) (map[Key]time.Time, error)
	SaveRecords(ctx context.Context, records map[Key]time.Time) error
}

// Tracker holds the in-memory cooldown records for one run. Not safe for
// concurrent use; the orchestrator owns it exclusively for the run's
// duration.
type Tracker struct {
	backend   Backend
	cooldown  time.Duration
	retention time.Duration
	records   map[Key]time.Time
	logger    zerolog.Logger
}

// NewTracker constructs a tracker. retention bounds how long stale records
// are kept across runs; it is a longer horizon than the cooldown window.
func NewTracker(backend Backend, cooldown, retention time.Duration, logger zerolog.Logger) *Tracker {
	return &Tracker{
		backend:   backend,
		cooldown:  cooldown,
		retention: retention,
		records:   make(map[Key]time.Time),
		logger:    logger.With().Str("component", "cooldown").Logger(),
	}
}

// Load pulls persisted records from the backend and prunes entries older
// than the retention horizon. A backend failure is non-fatal: the tracker
// falls back to an empty record set and every signal is treated as fresh.
func (t *Tracker) Load(ctx context.Context) {
	t.records = make(map[Key]time.Time)

	if t.backend == nil {
		return
	}

	loaded, err := t.backend.LoadRecords(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to load cooldown records; starting fresh")
		return
	}

	cutoff := time.Now().Add(-t.retention)
	kept := 0
	for key, firedAt := range loaded {
		if firedAt.After(cutoff) {
			t.records[key] = firedAt
			kept++
		}
	}
	t.logger.Info().Int("loaded", len(loaded)).Int("kept", kept).Msg("cooldown records loaded")
}

// IsDuplicate reports whether the pair fired within the cooldown window
// before now.
func (t *Tracker) IsDuplicate(symbol string, sig signal.Type, now time.Time) bool {
	firedAt, ok := t.records[Key{Symbol: symbol, Signal: sig}]
	if !ok {
		return false
	}
	return now.Sub(firedAt) < t.cooldown
}

// Record upserts the last-fired timestamp for the pair. It deliberately does
// not check duplication; callers check IsDuplicate first so classification
// can run speculatively before any state is mutated.
func (t *Tracker) Record(symbol string, sig signal.Type, now time.Time) {
	t.records[Key{Symbol: symbol, Signal: sig}] = now
}

// ActiveCooldowns counts pairs still inside the cooldown window at now.
func (t *Tracker) ActiveCooldowns(now time.Time) int {
	active := 0
	for _, firedAt := range t.records {
		if now.Sub(firedAt) < t.cooldown {
			active++
		}
	}
	return active
}

// Len returns the number of tracked records.
func (t *Tracker) Len() int { return len(t.records) }

// Save persists the full current record set through the backend. Called once
// per run; a failure is logged by the caller and does not roll back in-memory
// state, since the next run simply re-evaluates from the last persisted set.
func (t *Tracker) Save(ctx context.Context) error {
	if t.backend == nil {
		return nil
	}
	return t.backend.SaveRecords(ctx, t.records)
}
