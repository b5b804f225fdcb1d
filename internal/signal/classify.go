package signal

import (
	"math"
	"time"

	"signal-watcher/internal/indicator"
)

// definition is one named rule: every predicate must hold for the signal to
// fire.
type definition struct {
	typ        Type
	predicates []func(price, change24h float64, ind indicator.Set) bool
}

// definitions are evaluated in order; output order follows it. The rules are
// fixed at build time, not configurable at runtime.
var definitions = []definition{
	{
		typ: SuperSignal,
		predicates: []func(price, change24h float64, ind indicator.Set) bool{
			func(price, _ float64, ind indicator.Set) bool {
				return price <= ind.BollLower && ind.RSI < 25
			},
			func(_, _ float64, ind indicator.Set) bool { return ind.VolumeRatio > 3.0 },
			func(_, _ float64, ind indicator.Set) bool { return ind.MAShort > ind.MALong },
			func(_, change24h float64, _ indicator.Set) bool { return change24h < -15 },
		},
	},
	{
		typ: StrongBuy,
		predicates: []func(price, change24h float64, ind indicator.Set) bool{
			func(price, _ float64, ind indicator.Set) bool {
				return price <= ind.BollLower*1.02 && ind.RSI >= 20 && ind.RSI <= 35
			},
			func(_, _ float64, ind indicator.Set) bool { return ind.VolumeRatio > 2.0 },
			func(price, _ float64, ind indicator.Set) bool {
				return ind.MAShort != 0 && math.Abs(price-ind.MAShort)/ind.MAShort < 0.05
			},
			func(_, _ float64, ind indicator.Set) bool { return ind.RSI < 40 },
		},
	},
	{
		typ: StrongSell,
		predicates: []func(price, change24h float64, ind indicator.Set) bool{
			func(price, _ float64, ind indicator.Set) bool {
				return price >= ind.BollUpper && ind.RSI > 75
			},
			func(_, _ float64, ind indicator.Set) bool { return ind.VolumeRatio > 1.8 },
			func(_, _ float64, ind indicator.Set) bool { return ind.RSI > 70 },
			func(price, _ float64, ind indicator.Set) bool { return price > ind.MAShort*1.1 },
		},
	},
	{
		typ: GoldenCross,
		predicates: []func(price, change24h float64, ind indicator.Set) bool{
			func(_, _ float64, ind indicator.Set) bool { return ind.MAShort > ind.MALong },
			func(_, _ float64, ind indicator.Set) bool { return ind.RSI >= 45 && ind.RSI <= 65 },
			func(_, _ float64, ind indicator.Set) bool { return ind.VolumeRatio > 1.0 },
			func(price, _ float64, ind indicator.Set) bool { return price > ind.MAShort },
		},
	},
}

// Classify evaluates every definition against the snapshot and indicator set
// and returns the candidates that fired, in definition order. Definitions are
// not mutually exclusive; a symbol may fire several at once. The result is
// unfiltered by cooldown.
func Classify(snap Snapshot, ind indicator.Set, now time.Time) []Event {
	price := snap.LastPrice.InexactFloat64()
	change := snap.PriceChangePct.InexactFloat64()

	var events []Event
	for _, def := range definitions {
		if def.matches(price, change, ind) {
			events = append(events, Event{
				Symbol:     snap.Symbol,
				Type:       def.typ,
				Snapshot:   snap,
				Indicators: ind,
				FiredAt:    now,
			})
		}
	}
	return events
}

func (d definition) matches(price, change24h float64, ind indicator.Set) bool {
	for _, pred := range d.predicates {
		if !pred(price, change24h, ind) {
			return false
		}
	}
	return true
}
