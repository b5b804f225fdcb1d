package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalRecord is the persisted audit row for one emitted signal.
type SignalRecord struct {
	ID           int64
	Symbol       string
	SignalType   string
	Priority     int
	Price        decimal.Decimal
	RSI          float64
	VolumeRatio  float64
	Change24hPct decimal.Decimal
	FiredAt      time.Time
	CreatedAt    time.Time
}
