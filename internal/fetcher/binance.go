package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	tickerPath = "/api/v3/ticker/24hr"
	klinesPath = "/api/v3/klines"
)

// BinanceOptions parameterise the Binance REST fetcher.
type BinanceOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Binance fetches tickers and klines from the Binance spot REST API.
type Binance struct {
	opts    BinanceOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewBinance constructs a Binance market data fetcher.
func NewBinance(opts BinanceOptions, logger zerolog.Logger) *Binance {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}

	return &Binance{
		opts:    opts,
		logger:  logger.With().Str("component", "binance_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type tickerResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// FetchTicker retrieves the 24h rolling ticker snapshot for a symbol.
func (b *Binance) FetchTicker(ctx context.Context, symbol string) (Ticker24h, error) {
	if symbol == "" {
		return Ticker24h{}, errors.New("symbol is required")
	}

	endpoint := b.baseURL + tickerPath + "?symbol=" + url.QueryEscape(symbol)
	payload, err := b.get(ctx, endpoint)
	if err != nil {
		return Ticker24h{}, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}

	var res tickerResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return Ticker24h{}, fmt.Errorf("parse ticker %s: %w", symbol, err)
	}

	last, err := decimal.NewFromString(res.LastPrice)
	if err != nil {
		return Ticker24h{}, fmt.Errorf("parse last price %q: %w", res.LastPrice, err)
	}
	change, err := decimal.NewFromString(res.PriceChangePercent)
	if err != nil {
		return Ticker24h{}, fmt.Errorf("parse price change %q: %w", res.PriceChangePercent, err)
	}

	return Ticker24h{Symbol: symbol, LastPrice: last, PriceChangePct: change}, nil
}

// FetchCandles retrieves up to `limit` most recent klines, oldest first.
// Binance encodes each kline as a mixed-type JSON array; close sits at index
// 4 and volume at index 5, both as strings.
func (b *Binance) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if interval == "" {
		interval = "15m"
	}
	if limit <= 0 {
		limit = 200
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("limit", strconv.Itoa(limit))

	endpoint := b.baseURL + klinesPath + "?" + query.Encode()
	payload, err := b.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s: %w", symbol, err)
	}

	var raw [][]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parse klines %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("klines %s: empty response", symbol)
	}

	candles := make([]Candle, 0, len(raw))
	for i, entry := range raw {
		if len(entry) < 6 {
			return nil, fmt.Errorf("klines %s: entry %d has %d fields", symbol, i, len(entry))
		}

		var openMillis int64
		if err := json.Unmarshal(entry[0], &openMillis); err != nil {
			return nil, fmt.Errorf("klines %s: parse open time: %w", symbol, err)
		}
		closePrice, err := parseStringFloat(entry[4])
		if err != nil {
			return nil, fmt.Errorf("klines %s: parse close: %w", symbol, err)
		}
		volume, err := parseStringFloat(entry[5])
		if err != nil {
			return nil, fmt.Errorf("klines %s: parse volume: %w", symbol, err)
		}

		candles = append(candles, Candle{
			OpenTime: time.UnixMilli(openMillis).UTC(),
			Close:    closePrice,
			Volume:   volume,
		})
	}

	return candles, nil
}

func (b *Binance) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, payload)
	}

	return payload, nil
}

func parseStringFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// Some mirrors return bare numbers instead of strings.
		var f float64
		if numErr := json.Unmarshal(raw, &f); numErr == nil {
			return f, nil
		}
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func parseAPIError(status int, payload []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("binance api error (%d): %s", status, apiErr.Message)
	}
	if len(payload) > 0 {
		return fmt.Errorf("binance api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("binance api error (%d)", status)
}

var _ MarketDataFetcher = (*Binance)(nil)
