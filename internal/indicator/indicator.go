// Package indicator computes technical indicators from ordered price and
// volume series. All functions are pure and deterministic; insufficient
// history degrades to documented neutral values instead of returning errors.
package indicator

import "math"

// Set holds one pass worth of derived indicators. Recomputed every pass,
// never cached across passes.
type Set struct {
	RSI         float64
	MAShort     float64
	MALong      float64
	BollUpper   float64
	BollMiddle  float64
	BollLower   float64
	VolumeRatio float64
}

// Periods parameterises indicator lookbacks.
type Periods struct {
	RSI            int
	MAShort        int
	MALong         int
	Bollinger      int
	BollingerMult  float64
	VolumeLookback int
}

// DefaultPeriods returns the standard lookbacks: RSI 14, MA 20/50,
// Bollinger 20 with a 2x band, volume averaged over 20 candles.
func DefaultPeriods() Periods {
	return Periods{
		RSI:            14,
		MAShort:        20,
		MALong:         50,
		Bollinger:      20,
		BollingerMult:  2,
		VolumeLookback: 20,
	}
}

// Compute derives the full indicator set from close and volume series,
// most-recent-last.
func Compute(closes, volumes []float64, p Periods) Set {
	upper, lower, middle := Bollinger(closes, p.Bollinger, p.BollingerMult)
	return Set{
		RSI:         RSI(closes, p.RSI),
		MAShort:     SMA(closes, p.MAShort),
		MALong:      SMA(closes, p.MALong),
		BollUpper:   upper,
		BollMiddle:  middle,
		BollLower:   lower,
		VolumeRatio: VolumeRatio(volumes, p.VolumeLookback),
	}
}

// RSI computes the Wilder-smoothed relative strength index over the given
// period and returns the latest value. Fewer than period+1 prices yield the
// neutral value 50; a zero smoothed loss yields 100.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}

	// Seed averages: arithmetic mean of the first `period` deltas.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remaining deltas.
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// SMA computes the arithmetic mean of the last `period` prices. With fewer
// prices than the period it falls back to the last price (0 when empty);
// callers relying on the moving average near series start get the degraded
// value rather than an error.
func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

// Bollinger computes the Bollinger Bands: middle = SMA(period), upper/lower =
// middle ± mult * population standard deviation of the last `period` closes.
// With insufficient history all three collapse to the last price, matching
// the SMA fallback policy.
func Bollinger(prices []float64, period int, mult float64) (upper, lower, middle float64) {
	if len(prices) == 0 {
		return 0, 0, 0
	}
	if period <= 0 || len(prices) < period {
		last := prices[len(prices)-1]
		return last, last, last
	}

	middle = SMA(prices, period)

	variance := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		d := prices[i] - middle
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))

	return middle + std*mult, middle - std*mult, middle
}

// VolumeRatio divides the latest volume by the mean of the last `lookback`
// volumes. A zero mean yields the neutral ratio 1 to avoid division by zero.
func VolumeRatio(volumes []float64, lookback int) float64 {
	if len(volumes) == 0 {
		return 1
	}
	if lookback <= 0 || lookback > len(volumes) {
		lookback = len(volumes)
	}
	sum := 0.0
	for i := len(volumes) - lookback; i < len(volumes); i++ {
		sum += volumes[i]
	}
	mean := sum / float64(lookback)
	if mean == 0 {
		return 1
	}
	return volumes[len(volumes)-1] / mean
}
