package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"signal-watcher/internal/alerting"
	"signal-watcher/internal/indicator"
	"signal-watcher/internal/signal"
)

// SimulateOptions configure the simulate command.
type SimulateOptions struct {
	Symbol     string
	SignalType string
}

// Simulate composes a synthetic signal message and pushes it through the
// configured notifier, without touching market data or cooldown state. Used
// to verify bot credentials and message formatting end to end.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	sigType, ok := signal.ParseType(opts.SignalType)
	if !ok {
		return fmt.Errorf("unknown signal type %q", opts.SignalType)
	}

	ev := syntheticEvent(opts.Symbol, sigType, time.Now().UTC())
	text := alerting.ComposeSingle(ev, a.Config.Signals.Cooldown)

	notifier := a.newNotifier()
	if notifier == nil {
		fmt.Println(text)
		a.Logger.Info().Msg("telegram not enabled; printed message instead")
		return nil
	}

	if err := notifier.Notify(ctx, text); err != nil {
		return fmt.Errorf("send test message: %w", err)
	}

	a.Logger.Info().
		Str("symbol", ev.Symbol).
		Str("signal", ev.Type.String()).
		Msg("test message delivered")
	return nil
}

// syntheticEvent fabricates plausible indicator readings for each signal
// type so the rendered message looks like a real alert.
func syntheticEvent(symbol string, sigType signal.Type, now time.Time) signal.Event {
	ind := indicator.Set{
		RSI:         50,
		MAShort:     101.2,
		MALong:      100.4,
		BollUpper:   108,
		BollMiddle:  100,
		BollLower:   92,
		VolumeRatio: 1.2,
	}
	snap := signal.Snapshot{
		Symbol:         symbol,
		LastPrice:      decimal.NewFromFloat(100),
		PriceChangePct: decimal.NewFromFloat(1.5),
	}

	switch sigType {
	case signal.SuperSignal:
		ind.RSI = 22.4
		ind.VolumeRatio = 3.6
		snap.LastPrice = decimal.NewFromFloat(90.5)
		snap.PriceChangePct = decimal.NewFromFloat(-16.2)
	case signal.StrongBuy:
		ind.RSI = 28.1
		ind.VolumeRatio = 2.1
		snap.LastPrice = decimal.NewFromFloat(93.1)
		snap.PriceChangePct = decimal.NewFromFloat(-6.8)
	case signal.StrongSell:
		ind.RSI = 79.3
		ind.VolumeRatio = 2.4
		snap.LastPrice = decimal.NewFromFloat(109.2)
		snap.PriceChangePct = decimal.NewFromFloat(12.7)
	case signal.GoldenCross:
		ind.RSI = 55.8
		ind.VolumeRatio = 1.7
		snap.PriceChangePct = decimal.NewFromFloat(3.4)
	}

	return signal.Event{
		Symbol:     symbol,
		Type:       sigType,
		Snapshot:   snap,
		Indicators: ind,
		FiredAt:    now,
	}
}
