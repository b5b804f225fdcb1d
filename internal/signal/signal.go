// Package signal classifies market conditions into a closed set of
// rule-based trading signals. Classification is pure: cooldown filtering is
// the caller's concern.
package signal

import (
	"time"

	"github.com/shopspring/decimal"

	"signal-watcher/internal/indicator"
)

// Type enumerates the fixed signal definitions.
type Type int

const (
	SuperSignal Type = iota
	StrongBuy
	StrongSell
	GoldenCross
)

// AllTypes lists every signal type in definition evaluation order.
var AllTypes = []Type{SuperSignal, StrongBuy, StrongSell, GoldenCross}

// String returns the stable machine key used for cooldown records and
// persistence.
func (t Type) String() string {
	switch t {
	case SuperSignal:
		return "super_signal"
	case StrongBuy:
		return "strong_buy"
	case StrongSell:
		return "strong_sell"
	case GoldenCross:
		return "golden_cross"
	default:
		return "unknown"
	}
}

// Label returns the human-readable name used in notifications.
func (t Type) Label() string {
	switch t {
	case SuperSignal:
		return "👑 Super Signal"
	case StrongBuy:
		return "🟢 Strong Buy"
	case StrongSell:
		return "🔴 Strong Sell"
	case GoldenCross:
		return "⭐ Golden Cross"
	default:
		return "unknown"
	}
}

// Priority returns the tier of the signal, 1 being highest.
func (t Type) Priority() int {
	switch t {
	case SuperSignal:
		return 1
	case StrongBuy, StrongSell:
		return 2
	default:
		return 3
	}
}

// Confidence returns the advertised confidence label.
func (t Type) Confidence() string {
	switch t {
	case SuperSignal:
		return "95%+"
	case StrongBuy:
		return "85%"
	case StrongSell:
		return "80%"
	default:
		return "75%"
	}
}

// ExpectedReturn returns the advertised expected-return label.
func (t Type) ExpectedReturn() string {
	switch t {
	case SuperSignal:
		return "+15~30%"
	case StrongBuy:
		return "+8~20%"
	case StrongSell:
		return "+10~20% (short)"
	default:
		return "+15~40%"
	}
}

// ParseType resolves a machine key back to a Type.
func ParseType(s string) (Type, bool) {
	for _, t := range AllTypes {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Snapshot is the immutable 24h market view for one symbol within a pass.
type Snapshot struct {
	Symbol         string
	LastPrice      decimal.Decimal
	PriceChangePct decimal.Decimal
}

// Event is a classified signal candidate for one symbol. Events are consumed
// within the pass that produced them; only their cooldown record outlives it.
type Event struct {
	Symbol     string
	Type       Type
	Snapshot   Snapshot
	Indicators indicator.Set
	FiredAt    time.Time
}

// Priority is a convenience accessor for sorting and grouping.
func (e Event) Priority() int { return e.Type.Priority() }
