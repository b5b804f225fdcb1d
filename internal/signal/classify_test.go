package signal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"signal-watcher/internal/indicator"
)

func snap(symbol string, price, change float64) Snapshot {
	return Snapshot{
		Symbol:         symbol,
		LastPrice:      decimal.NewFromFloat(price),
		PriceChangePct: decimal.NewFromFloat(change),
	}
}

func classifyTypes(s Snapshot, ind indicator.Set) []Type {
	events := Classify(s, ind, time.Now())
	types := make([]Type, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func containsType(types []Type, want Type) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func TestClassifySuperSignal(t *testing.T) {
	base := indicator.Set{
		RSI:         20,
		MAShort:     110,
		MALong:      105,
		BollLower:   100,
		BollUpper:   130,
		BollMiddle:  115,
		VolumeRatio: 4,
	}
	s := snap("BTCUSDT", 100, -16)

	types := classifyTypes(s, base)
	if len(types) != 1 || types[0] != SuperSignal {
		t.Fatalf("expected exactly [SuperSignal], got %v", types)
	}

	// Flipping any single predicate must suppress the signal.
	cases := []struct {
		name string
		snap Snapshot
		ind  indicator.Set
	}{
		{"price above lower band", snap("BTCUSDT", 101, -16), base},
		{"rsi not oversold", s, func() indicator.Set { c := base; c.RSI = 26; return c }()},
		{"volume ratio too low", s, func() indicator.Set { c := base; c.VolumeRatio = 2.5; return c }()},
		{"ma short below ma long", s, func() indicator.Set { c := base; c.MAShort = 104; return c }()},
		{"24h change not crashed", snap("BTCUSDT", 100, -10), base},
	}
	for _, tc := range cases {
		if containsType(classifyTypes(tc.snap, tc.ind), SuperSignal) {
			t.Fatalf("%s: super signal should be suppressed", tc.name)
		}
	}
}

func TestClassifyStrongBuy(t *testing.T) {
	base := indicator.Set{
		RSI:         30,
		MAShort:     102,
		MALong:      110,
		BollLower:   99,
		BollUpper:   120,
		BollMiddle:  109,
		VolumeRatio: 2.5,
	}
	s := snap("ETHUSDT", 100, 0)

	types := classifyTypes(s, base)
	if len(types) != 1 || types[0] != StrongBuy {
		t.Fatalf("expected exactly [StrongBuy], got %v", types)
	}

	cases := []struct {
		name string
		snap Snapshot
		ind  indicator.Set
	}{
		{"price far above lower band", snap("ETHUSDT", 102, 0), base},
		{"rsi below range", s, func() indicator.Set { c := base; c.RSI = 19; return c }()},
		{"rsi above range", s, func() indicator.Set { c := base; c.RSI = 36; return c }()},
		{"volume ratio too low", s, func() indicator.Set { c := base; c.VolumeRatio = 1.5; return c }()},
		{"price away from ma short", s, func() indicator.Set { c := base; c.MAShort = 120; return c }()},
	}
	for _, tc := range cases {
		if containsType(classifyTypes(tc.snap, tc.ind), StrongBuy) {
			t.Fatalf("%s: strong buy should be suppressed", tc.name)
		}
	}
}

func TestClassifyStrongSell(t *testing.T) {
	base := indicator.Set{
		RSI:         80,
		MAShort:     100,
		MALong:      120,
		BollLower:   80,
		BollUpper:   100,
		BollMiddle:  90,
		VolumeRatio: 2,
	}
	s := snap("SOLUSDT", 120, 0)

	types := classifyTypes(s, base)
	if len(types) != 1 || types[0] != StrongSell {
		t.Fatalf("expected exactly [StrongSell], got %v", types)
	}

	cases := []struct {
		name string
		snap Snapshot
		ind  indicator.Set
	}{
		{"price below upper band", snap("SOLUSDT", 99, 0), base},
		{"rsi not overbought", s, func() indicator.Set { c := base; c.RSI = 74; return c }()},
		{"volume ratio too low", s, func() indicator.Set { c := base; c.VolumeRatio = 1.5; return c }()},
		{"price not extended above ma", snap("SOLUSDT", 105, 0), func() indicator.Set { c := base; c.BollUpper = 100; c.MAShort = 100; return c }()},
	}
	for _, tc := range cases {
		if containsType(classifyTypes(tc.snap, tc.ind), StrongSell) {
			t.Fatalf("%s: strong sell should be suppressed", tc.name)
		}
	}
}

func TestClassifyGoldenCross(t *testing.T) {
	base := indicator.Set{
		RSI:         55,
		MAShort:     100,
		MALong:      90,
		BollLower:   95,
		BollUpper:   115,
		BollMiddle:  105,
		VolumeRatio: 1.5,
	}
	s := snap("XRPUSDT", 105, 0)

	types := classifyTypes(s, base)
	if len(types) != 1 || types[0] != GoldenCross {
		t.Fatalf("expected exactly [GoldenCross], got %v", types)
	}

	cases := []struct {
		name string
		snap Snapshot
		ind  indicator.Set
	}{
		{"ma short below ma long", s, func() indicator.Set { c := base; c.MALong = 110; return c }()},
		{"rsi below range", s, func() indicator.Set { c := base; c.RSI = 40; return c }()},
		{"rsi above range", s, func() indicator.Set { c := base; c.RSI = 70; return c }()},
		{"volume ratio neutral", s, func() indicator.Set { c := base; c.VolumeRatio = 1.0; return c }()},
		{"price below ma short", snap("XRPUSDT", 99, 0), base},
	}
	for _, tc := range cases {
		if containsType(classifyTypes(tc.snap, tc.ind), GoldenCross) {
			t.Fatalf("%s: golden cross should be suppressed", tc.name)
		}
	}
}

func TestClassifyMultipleSignalsSameSymbol(t *testing.T) {
	// Strong buy and golden cross are not mutually exclusive in principle;
	// here strong sell plus nothing else fires from an overbought setup, but a
	// neutral setup fires none.
	quiet := indicator.Set{
		RSI:         50,
		MAShort:     90,
		MALong:      100,
		BollLower:   85,
		BollUpper:   115,
		BollMiddle:  100,
		VolumeRatio: 0.5,
	}
	if types := classifyTypes(snap("BNBUSDT", 100, 0), quiet); len(types) != 0 {
		t.Fatalf("quiet market should fire nothing, got %v", types)
	}
}

// TestClassifyFromComputedSeries drives the classifier end to end from a raw
// candle series: a long pump followed by a hard dump leaves RSI oversold with
// MA20 still above MA50, the last candle carries 4x average volume, and the
// ticker price sits below the lower Bollinger band with a -16% 24h change.
func TestClassifyFromComputedSeries(t *testing.T) {
	closes := make([]float64, 60)
	volumes := make([]float64, 60)
	for i := 0; i < 25; i++ {
		closes[i] = 100
	}
	for i := 25; i < 45; i++ {
		closes[i] = closes[i-1] + 10
	}
	for i := 45; i < 60; i++ {
		closes[i] = closes[i-1] - 14
	}
	for i := range volumes {
		volumes[i] = 1000
	}
	volumes[59] = 4000

	ind := indicator.Compute(closes, volumes, indicator.DefaultPeriods())
	if ind.RSI >= 25 {
		t.Fatalf("fixture must be oversold, RSI = %v", ind.RSI)
	}
	if ind.MAShort <= ind.MALong {
		t.Fatalf("fixture must keep MA20 (%v) above MA50 (%v)", ind.MAShort, ind.MALong)
	}
	if ind.VolumeRatio <= 3 {
		t.Fatalf("fixture must have a volume spike, ratio = %v", ind.VolumeRatio)
	}

	s := snap("BTCUSDT", 75, -16)
	events := Classify(s, ind, time.Now())
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Type != SuperSignal {
		t.Fatalf("expected super signal, got %v", events[0].Type)
	}
	if events[0].Priority() != 1 {
		t.Fatalf("super signal priority = %d, want 1", events[0].Priority())
	}
}

func TestTypeRoundTrip(t *testing.T) {
	for _, typ := range AllTypes {
		parsed, ok := ParseType(typ.String())
		if !ok || parsed != typ {
			t.Fatalf("type %v did not round-trip through its key %q", typ, typ.String())
		}
	}
	if _, ok := ParseType("bogus"); ok {
		t.Fatal("unknown key should not parse")
	}
}
