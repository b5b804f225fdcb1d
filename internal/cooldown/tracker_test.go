package cooldown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"signal-watcher/internal/signal"
)

type fakeBackend struct {
	records map[Key]time.Time
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeBackend) LoadRecords(ctx context.Context) (map[Key]time.Time, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make(map[Key]time.Time, len(f.records))
	for k, v := range f.records {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBackend) SaveRecords(ctx context.Context, records map[Key]time.Time) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.records = make(map[Key]time.Time, len(records))
	for k, v := range records {
		f.records[k] = v
	}
	return nil
}

func newTestTracker(backend Backend) *Tracker {
	return NewTracker(backend, time.Hour, 24*time.Hour, zerolog.Nop())
}

func TestDuplicateWithinCooldown(t *testing.T) {
	tr := newTestTracker(nil)
	now := time.Now()

	if tr.IsDuplicate("BTCUSDT", signal.SuperSignal, now) {
		t.Fatal("fresh pair should not be a duplicate")
	}

	tr.Record("BTCUSDT", signal.SuperSignal, now)

	if !tr.IsDuplicate("BTCUSDT", signal.SuperSignal, now.Add(30*time.Minute)) {
		t.Fatal("pair should be a duplicate inside the cooldown window")
	}
	if tr.IsDuplicate("BTCUSDT", signal.StrongBuy, now.Add(30*time.Minute)) {
		t.Fatal("different signal type must not share a cooldown slot")
	}
	if tr.IsDuplicate("ETHUSDT", signal.SuperSignal, now.Add(30*time.Minute)) {
		t.Fatal("different symbol must not share a cooldown slot")
	}
	if tr.IsDuplicate("BTCUSDT", signal.SuperSignal, now.Add(61*time.Minute)) {
		t.Fatal("pair should be fresh after the cooldown elapses")
	}
}

func TestLoadPrunesRetention(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{records: map[Key]time.Time{
		{Symbol: "BTCUSDT", Signal: signal.SuperSignal}: now.Add(-30 * time.Minute),
		{Symbol: "ETHUSDT", Signal: signal.StrongBuy}:   now.Add(-25 * time.Hour),
	}}

	tr := newTestTracker(backend)
	tr.Load(context.Background())

	if tr.Len() != 1 {
		t.Fatalf("expected 1 record after retention prune, got %d", tr.Len())
	}
	if !tr.IsDuplicate("BTCUSDT", signal.SuperSignal, now) {
		t.Fatal("recent record should survive the prune")
	}
	if tr.IsDuplicate("ETHUSDT", signal.StrongBuy, now) {
		t.Fatal("stale record should have been pruned on load")
	}
}

func TestLoadFailureFallsBackToEmpty(t *testing.T) {
	backend := &fakeBackend{loadErr: errors.New("boom")}
	tr := newTestTracker(backend)
	tr.Load(context.Background())

	if tr.Len() != 0 {
		t.Fatalf("load failure should leave an empty tracker, got %d records", tr.Len())
	}
	if tr.IsDuplicate("BTCUSDT", signal.SuperSignal, time.Now()) {
		t.Fatal("after a failed load every signal is fresh")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	backend := &fakeBackend{records: map[Key]time.Time{
		{Symbol: "BTCUSDT", Signal: signal.SuperSignal}: now.Add(-10 * time.Minute),
		{Symbol: "SOLUSDT", Signal: signal.GoldenCross}: now.Add(-2 * time.Hour),
	}}

	tr := newTestTracker(backend)
	tr.Load(context.Background())
	if err := tr.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(backend.records) != 2 {
		t.Fatalf("round trip changed record count: %d", len(backend.records))
	}
	for key, want := range map[Key]time.Time{
		{Symbol: "BTCUSDT", Signal: signal.SuperSignal}: now.Add(-10 * time.Minute),
		{Symbol: "SOLUSDT", Signal: signal.GoldenCross}: now.Add(-2 * time.Hour),
	} {
		if got := backend.records[key]; !got.Equal(want) {
			t.Fatalf("record %v changed across round trip: got %v want %v", key, got, want)
		}
	}
}

func TestRecordUpserts(t *testing.T) {
	tr := newTestTracker(nil)
	now := time.Now()

	tr.Record("BTCUSDT", signal.SuperSignal, now.Add(-2*time.Hour))
	if tr.IsDuplicate("BTCUSDT", signal.SuperSignal, now) {
		t.Fatal("old record should be outside the cooldown")
	}

	tr.Record("BTCUSDT", signal.SuperSignal, now)
	if !tr.IsDuplicate("BTCUSDT", signal.SuperSignal, now.Add(time.Minute)) {
		t.Fatal("upserted record should renew the cooldown")
	}
	if tr.Len() != 1 {
		t.Fatalf("upsert must not add records, len = %d", tr.Len())
	}
}

func TestActiveCooldowns(t *testing.T) {
	tr := newTestTracker(nil)
	now := time.Now()
	tr.Record("BTCUSDT", signal.SuperSignal, now.Add(-10*time.Minute))
	tr.Record("ETHUSDT", signal.StrongBuy, now.Add(-3*time.Hour))

	if got := tr.ActiveCooldowns(now); got != 1 {
		t.Fatalf("active cooldowns = %d, want 1", got)
	}
}
