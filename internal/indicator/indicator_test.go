package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestRSIInsufficientData(t *testing.T) {
	prices := []float64{100, 101, 102}
	if got := RSI(prices, 14); got != 50 {
		t.Fatalf("expected neutral RSI 50 for short series, got %v", got)
	}
	// Exactly period prices is still one delta short.
	exact := make([]float64, 14)
	for i := range exact {
		exact[i] = 100 + float64(i)
	}
	if got := RSI(exact, 14); got != 50 {
		t.Fatalf("expected neutral RSI 50 at len==period, got %v", got)
	}
}

func TestRSIAllGains(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	if got := RSI(prices, 14); got != 100 {
		t.Fatalf("monotonic rise should give RSI 100, got %v", got)
	}
}

func TestRSIAllLosses(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 - float64(i)
	}
	got := RSI(prices, 14)
	if got >= 1 {
		t.Fatalf("monotonic fall should give RSI near 0, got %v", got)
	}
}

func TestRSIMixedSeries(t *testing.T) {
	// Alternating equal gains and losses balance out near 50.
	prices := make([]float64, 40)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		if i%2 == 0 {
			prices[i] = prices[i-1] + 1
		} else {
			prices[i] = prices[i-1] - 1
		}
	}
	got := RSI(prices, 14)
	if got < 40 || got > 60 {
		t.Fatalf("balanced series should keep RSI near 50, got %v", got)
	}
}

func TestSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	if got := SMA(prices, 5); got != 3 {
		t.Fatalf("SMA(5) = %v, want 3", got)
	}
	if got := SMA(prices, 2); got != 4.5 {
		t.Fatalf("SMA(2) = %v, want 4.5", got)
	}
}

func TestSMAFallback(t *testing.T) {
	if got := SMA([]float64{7, 9}, 5); got != 9 {
		t.Fatalf("short series should fall back to last price, got %v", got)
	}
	if got := SMA(nil, 5); got != 0 {
		t.Fatalf("empty series should return 0, got %v", got)
	}
}

func TestBollinger(t *testing.T) {
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	// Population stddev of the series is exactly 2, mean 5.
	upper, lower, middle := Bollinger(prices, 8, 2)
	if !almostEqual(middle, 5, 1e-9) {
		t.Fatalf("middle = %v, want 5", middle)
	}
	if !almostEqual(upper, 9, 1e-9) || !almostEqual(lower, 1, 1e-9) {
		t.Fatalf("bands = (%v, %v), want (9, 1)", upper, lower)
	}
}

func TestBollingerFallback(t *testing.T) {
	upper, lower, middle := Bollinger([]float64{3, 8}, 20, 2)
	if upper != 8 || lower != 8 || middle != 8 {
		t.Fatalf("short series should collapse all bands to last price, got (%v, %v, %v)", upper, lower, middle)
	}
	upper, lower, middle = Bollinger(nil, 20, 2)
	if upper != 0 || lower != 0 || middle != 0 {
		t.Fatalf("empty series should collapse to 0, got (%v, %v, %v)", upper, lower, middle)
	}
}

func TestVolumeRatioConstantVolume(t *testing.T) {
	volumes := make([]float64, 25)
	for i := range volumes {
		volumes[i] = 1000
	}
	if got := VolumeRatio(volumes, 20); got != 1 {
		t.Fatalf("constant volume should give ratio 1, got %v", got)
	}
}

func TestVolumeRatioSpike(t *testing.T) {
	volumes := make([]float64, 20)
	for i := range volumes {
		volumes[i] = 100
	}
	volumes[len(volumes)-1] = 481 // mean becomes (19*100+481)/20 = 119.05
	got := VolumeRatio(volumes, 20)
	if !almostEqual(got, 481/119.05, 1e-9) {
		t.Fatalf("ratio = %v, want %v", got, 481/119.05)
	}
}

func TestVolumeRatioZeroMean(t *testing.T) {
	if got := VolumeRatio([]float64{0, 0, 0}, 20); got != 1 {
		t.Fatalf("zero mean should give neutral ratio 1, got %v", got)
	}
}

func TestComputeAggregatesAllIndicators(t *testing.T) {
	closes := make([]float64, 60)
	volumes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
		volumes[i] = 1000
	}
	set := Compute(closes, volumes, DefaultPeriods())
	if set.RSI != 100 {
		t.Fatalf("RSI = %v, want 100", set.RSI)
	}
	if set.MAShort <= set.MALong {
		t.Fatalf("rising series should have MAShort (%v) above MALong (%v)", set.MAShort, set.MALong)
	}
	if set.BollMiddle != set.MAShort {
		t.Fatalf("bollinger middle (%v) should equal SMA20 (%v)", set.BollMiddle, set.MAShort)
	}
	if set.BollUpper <= set.BollMiddle || set.BollLower >= set.BollMiddle {
		t.Fatalf("band ordering broken: %v %v %v", set.BollUpper, set.BollMiddle, set.BollLower)
	}
	if set.VolumeRatio != 1 {
		t.Fatalf("constant volume ratio = %v, want 1", set.VolumeRatio)
	}
}
