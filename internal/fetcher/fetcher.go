package fetcher

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Ticker24h is the 24-hour rolling snapshot for one symbol.
type Ticker24h struct {
	Symbol         string
	LastPrice      decimal.Decimal
	PriceChangePct decimal.Decimal
}

// Candle is one closed interval of price/volume history.
type Candle struct {
	OpenTime time.Time
	Close    float64
	Volume   float64
}

// MarketDataFetcher retrieves market data for a symbol. Implementations own
// their request timeouts; any failure for one symbol is non-fatal to a run.
type MarketDataFetcher interface {
	FetchTicker(ctx context.Context, symbol string) (Ticker24h, error)
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

// Closes extracts the close series from candles, oldest first.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts the volume series from candles, oldest first.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
