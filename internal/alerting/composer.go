package alerting

import (
	"fmt"
	"strings"
	"time"

	"signal-watcher/internal/signal"
)

// displaySymbol strips the quote asset for compact rendering: BTCUSDT -> BTC.
func displaySymbol(symbol string) string {
	return strings.TrimSuffix(symbol, "USDT")
}

// ComposeSingle renders the detailed Markdown message for exactly one fired
// signal.
func ComposeSingle(ev signal.Event, cooldown time.Duration) string {
	var b strings.Builder

	b.WriteString("🚨 *Trading signal!* 🚨\n\n")
	b.WriteString(fmt.Sprintf("📊 *Pair:* %s/USDT\n", displaySymbol(ev.Symbol)))
	b.WriteString(fmt.Sprintf("💰 *Price:* $%s\n", ev.Snapshot.LastPrice.StringFixed(2)))
	b.WriteString(fmt.Sprintf("🎯 *Signal:* %s\n", ev.Type.Label()))
	b.WriteString(fmt.Sprintf("📈 *RSI:* %.1f\n", ev.Indicators.RSI))
	b.WriteString(fmt.Sprintf("📊 *Volume:* %.1fx\n", ev.Indicators.VolumeRatio))
	b.WriteString(fmt.Sprintf("📉 *24h:* %s%%\n\n", ev.Snapshot.PriceChangePct.StringFixed(2)))
	b.WriteString(fmt.Sprintf("✨ *Confidence:* %s\n", ev.Type.Confidence()))
	b.WriteString(fmt.Sprintf("💎 *Expected return:* %s\n\n", ev.Type.ExpectedReturn()))
	b.WriteString(fmt.Sprintf("⏰ %s\n", ev.FiredAt.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("🚫 *Next alert:* in %d min", int(cooldown.Minutes())))

	return b.String()
}

// ComposeDigest renders one aggregated Markdown message for a batch of fired
// signals, grouped by priority tier. Tier 1 is rendered first and flagged;
// tier 2 splits into buy and sell sections; everything else lands in a
// trailing section.
func ComposeDigest(events []signal.Event, cooldown time.Duration, now time.Time) string {
	var supers, buys, sells, others []signal.Event
	for _, ev := range events {
		switch {
		case ev.Type.Priority() == 1:
			supers = append(supers, ev)
		case ev.Type == signal.StrongBuy:
			buys = append(buys, ev)
		case ev.Type == signal.StrongSell:
			sells = append(sells, ev)
		default:
			others = append(others, ev)
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 *%d signals fired at once!* 🚨\n\n", len(events)))

	if len(supers) > 0 {
		b.WriteString("👑 *Super Signals* (95%+ win rate)\n")
		for _, ev := range supers {
			b.WriteString(fmt.Sprintf("• *%s*: $%s (RSI: %.0f, %s%%)\n",
				displaySymbol(ev.Symbol),
				ev.Snapshot.LastPrice.StringFixed(0),
				ev.Indicators.RSI,
				ev.Snapshot.PriceChangePct.StringFixed(1)))
		}
		b.WriteString("\n")
	}

	if len(buys) > 0 {
		b.WriteString("🟢 *Strong Buys*\n")
		writeCompactLines(&b, buys)
		b.WriteString("\n")
	}
	if len(sells) > 0 {
		b.WriteString("🔴 *Strong Sells*\n")
		writeCompactLines(&b, sells)
		b.WriteString("\n")
	}

	if len(others) > 0 {
		b.WriteString("⭐ *Other Signals*\n")
		for _, ev := range others {
			b.WriteString(fmt.Sprintf("• *%s*: $%s\n",
				displaySymbol(ev.Symbol),
				ev.Snapshot.LastPrice.StringFixed(0)))
		}
		b.WriteString("\n")
	}

	if len(supers) > 0 {
		b.WriteString(fmt.Sprintf("🔥 *Includes %d super signal(s)!*\n", len(supers)))
	}
	b.WriteString(fmt.Sprintf("⏰ %s\n", now.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("🚫 Next alert: in %d min\n", int(cooldown.Minutes())))
	b.WriteString("⚠️ Trade carefully!")

	return b.String()
}

func writeCompactLines(b *strings.Builder, events []signal.Event) {
	for _, ev := range events {
		b.WriteString(fmt.Sprintf("• *%s*: $%s (RSI: %.0f)\n",
			displaySymbol(ev.Symbol),
			ev.Snapshot.LastPrice.StringFixed(0),
			ev.Indicators.RSI))
	}
}
