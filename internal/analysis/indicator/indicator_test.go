package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiff/internal/market"
)

func genCandles(n int, base float64) []market.Candle {
	out := make([]market.Candle, n)
	price := base
	for i := 0; i < n; i++ {
		drift := math.Sin(float64(i)/5) * base * 0.01
		price = base + drift
		out[i] = market.Candle{
			Open:   price * 0.999,
			High:   price * 1.002,
			Low:    price * 0.997,
			Close:  price,
			Volume: 100 + 10*math.Abs(drift),
		}
	}
	return out
}

func TestComputeAllBasics(t *testing.T) {
	rep, err := ComputeAll(genCandles(120, 50000), Settings{Symbol: "BTC-USDT", Interval: "15m"})
	require.NoError(t, err)

	assert.Equal(t, 120, rep.Count)
	for _, key := range []string{"ma_fast", "ma_mid", "ma_slow", "rsi", "macd", "bollinger", "volume_ratio", "atr"} {
		v, ok := rep.Values[key]
		require.True(t, ok, "missing %s", key)
		assert.False(t, math.IsNaN(v.Latest), "%s latest is NaN", key)
	}

	rsi := rep.Values["rsi"].Latest
	assert.GreaterOrEqual(t, rsi, 0.0)
	assert.LessOrEqual(t, rsi, 100.0)
}

func TestComputeAllShortSeriesSkipsSlowMA(t *testing.T) {
	rep, err := ComputeAll(genCandles(30, 50000), Settings{Symbol: "BTC-USDT", Interval: "1h"})
	require.NoError(t, err)

	_, ok := rep.Values["ma_slow"]
	assert.False(t, ok, "ma_slow should be skipped with 30 candles")
	_, ok = rep.Values["ma_fast"]
	assert.True(t, ok)
}

func TestComputeAllEmpty(t *testing.T) {
	_, err := ComputeAll(nil, Settings{})
	assert.Error(t, err)
}

func TestVolumeRatio(t *testing.T) {
	vols := make([]float64, 20)
	for i := range vols {
		vols[i] = 100
	}
	vols[19] = 300
	ratio := volumeRatio(vols, 20)
	assert.InDelta(t, 2.727, ratio, 0.01)
}

func TestSummaryRenders(t *testing.T) {
	rep, err := ComputeAll(genCandles(120, 50000), Settings{Symbol: "BTC-USDT", Interval: "15m"})
	require.NoError(t, err)

	text := rep.Summary()
	assert.Contains(t, text, "BTC-USDT 15m")
	assert.Contains(t, text, "rsi")
	assert.Contains(t, text, "macd")
}
