// Package service orchestrates one scan pass: fetch market data per symbol,
// compute indicators, classify signals, filter through the cooldown tracker,
// and dispatch notifications.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"signal-watcher/internal/alerting"
	"signal-watcher/internal/config"
	"signal-watcher/internal/cooldown"
	"signal-watcher/internal/fetcher"
	"signal-watcher/internal/indicator"
	"signal-watcher/internal/scheduler"
	"signal-watcher/internal/signal"
	"signal-watcher/internal/storage"
)

// Service coordinates fetching, classification, deduplication, and alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	market    fetcher.MarketDataFetcher
	tracker   *cooldown.Tracker
	signalLog storage.SignalLog
	notifier  alerting.Notifier
	logger    zerolog.Logger

	symbols        []string
	timeframe      string
	candleLimit    int
	periods        indicator.Periods
	cooldownWindow time.Duration
	batchThreshold int
	maxPerRun      int
	sendDelay      time.Duration
}

// New constructs the scanning service. signalLog and notifier may be nil;
// the pass then skips auditing or delivery respectively.
func New(cfg *config.Config, sched *scheduler.Scheduler, market fetcher.MarketDataFetcher, tracker *cooldown.Tracker, signalLog storage.SignalLog, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		scheduler:      sched,
		market:         market,
		tracker:        tracker,
		signalLog:      signalLog,
		notifier:       notifier,
		logger:         logger.With().Str("component", "service").Logger(),
		symbols:        cfg.Symbols,
		timeframe:      cfg.Market.Timeframe,
		candleLimit:    cfg.Market.CandleLimit,
		periods:        indicator.DefaultPeriods(),
		cooldownWindow: cfg.Signals.Cooldown,
		batchThreshold: cfg.Signals.BatchThreshold,
		maxPerRun:      cfg.Signals.MaxPerRun,
		sendDelay:      cfg.Signals.SendDelay,
	}
}

// Run loads cooldown state once, then blocks executing aligned scan passes
// until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	s.tracker.Load(ctx)
	return s.scheduler.Run(ctx, s.RunPass)
}

// RunPass executes one full scan over all configured symbols. The pass never
// aborts on a single symbol's failure and always reaches the cooldown save.
func (s *Service) RunPass(ctx context.Context, passTime time.Time) error {
	var candidates []signal.Event

	for _, symbol := range s.symbols {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		events, err := s.evaluateSymbol(ctx, symbol, passTime)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("symbol skipped")
			continue
		}

		for _, ev := range events {
			if s.tracker.IsDuplicate(ev.Symbol, ev.Type, passTime) {
				s.logger.Debug().
					Str("symbol", ev.Symbol).
					Str("signal", ev.Type.String()).
					Msg("suppressed by cooldown")
				continue
			}
			candidates = append(candidates, ev)
		}
	}

	accepted := capEvents(candidates, s.maxPerRun)
	if dropped := len(candidates) - len(accepted); dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Int("cap", s.maxPerRun).Msg("per-run signal cap reached")
	}

	// Record before dispatch: a signal counts as fired even when delivery
	// fails, so deduplication stays correct across retries and passes.
	for _, ev := range accepted {
		s.tracker.Record(ev.Symbol, ev.Type, passTime)
	}

	s.dispatch(ctx, accepted, passTime)
	s.audit(ctx, accepted)

	if err := s.tracker.Save(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist cooldown records")
	}

	s.logger.Info().
		Int("signals", len(accepted)).
		Int("active_cooldowns", s.tracker.ActiveCooldowns(passTime)).
		Msg("scan pass complete")
	return nil
}

func (s *Service) evaluateSymbol(ctx context.Context, symbol string, passTime time.Time) ([]signal.Event, error) {
	ticker, err := s.market.FetchTicker(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("ticker: %w", err)
	}

	candles, err := s.market.FetchCandles(ctx, symbol, s.timeframe, s.candleLimit)
	if err != nil {
		return nil, fmt.Errorf("candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("candles: empty series")
	}

	ind := indicator.Compute(fetcher.Closes(candles), fetcher.Volumes(candles), s.periods)
	snap := signal.Snapshot{
		Symbol:         symbol,
		LastPrice:      ticker.LastPrice,
		PriceChangePct: ticker.PriceChangePct,
	}

	return signal.Classify(snap, ind, passTime), nil
}

// dispatch applies the batching policy: one event gets the detailed message,
// a batch at or above the threshold gets one digest, and the in-between
// counts get individual detailed messages spaced by the send delay so the
// downstream API rate limit is respected.
func (s *Service) dispatch(ctx context.Context, events []signal.Event, passTime time.Time) {
	if len(events) == 0 {
		s.logger.Info().Msg("no new signals")
		return
	}
	if s.notifier == nil {
		s.logger.Warn().Int("signals", len(events)).Msg("notifier not configured; signals not delivered")
		return
	}

	if len(events) >= s.batchThreshold {
		s.send(ctx, alerting.ComposeDigest(events, s.cooldownWindow, passTime))
		return
	}

	for i, ev := range events {
		if i > 0 && s.sendDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.sendDelay):
			}
		}
		s.send(ctx, alerting.ComposeSingle(ev, s.cooldownWindow))
	}
}

func (s *Service) send(ctx context.Context, text string) {
	if err := s.notifier.Notify(ctx, text); err != nil {
		// Cooldown records already written stay written; dedup correctness
		// wins over guaranteed delivery.
		s.logger.Error().Err(err).Msg("failed to deliver notification")
	}
}

func (s *Service) audit(ctx context.Context, events []signal.Event) {
	if s.signalLog == nil {
		return
	}
	for _, ev := range events {
		rec := storage.SignalRecord{
			Symbol:       ev.Symbol,
			SignalType:   ev.Type.String(),
			Priority:     ev.Type.Priority(),
			Price:        ev.Snapshot.LastPrice,
			RSI:          ev.Indicators.RSI,
			VolumeRatio:  ev.Indicators.VolumeRatio,
			Change24hPct: ev.Snapshot.PriceChangePct,
			FiredAt:      ev.FiredAt,
		}
		if _, err := s.signalLog.InsertSignal(ctx, rec); err != nil {
			s.logger.Error().Err(err).Str("symbol", ev.Symbol).Msg("failed to persist signal record")
		}
	}
}

// capEvents truncates the event list to the per-run cap, keeping the highest
// priority tiers. The sort is stable so accumulation order breaks ties.
func capEvents(events []signal.Event, max int) []signal.Event {
	if max <= 0 || len(events) <= max {
		return events
	}
	sorted := make([]signal.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return sorted[:max]
}
