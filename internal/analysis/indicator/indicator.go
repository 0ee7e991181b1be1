package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"skiff/internal/market"
)

// Settings 描述计算指标所需的最小配置。
type Settings struct {
	Symbol   string
	Interval string
	MA       MASettings
	RSI      RSISettings
	BB       BBSettings
}

// MASettings 描述均线参数。
type MASettings struct {
	Fast int `json:"fast,omitempty"`
	Mid  int `json:"mid,omitempty"`
	Slow int `json:"slow,omitempty"`
}

// RSISettings 描述 RSI 指标参数。
type RSISettings struct {
	Period     int     `json:"period,omitempty"`
	Oversold   float64 `json:"oversold,omitempty"`
	Overbought float64 `json:"overbought,omitempty"`
}

// BBSettings 描述布林带参数。
type BBSettings struct {
	Period int     `json:"period,omitempty"`
	StdDev float64 `json:"std_dev,omitempty"`
}

// Value 保存单个指标的最新值、序列与状态。
type Value struct {
	Latest float64   `json:"latest"`
	Series []float64 `json:"series,omitempty"`
	State  string    `json:"state,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Report 汇总单个 symbol+interval 的指标输出。
type Report struct {
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Count    int              `json:"count"`
	Values   map[string]Value `json:"values"`
}

// ComputeAll 计算常用指标并返回结构化报告。
func ComputeAll(candles []market.Candle, cfg Settings) (Report, error) {
	rep := Report{
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
		Count:    len(candles),
		Values:   make(map[string]Value),
	}
	if len(candles) == 0 {
		return rep, fmt.Errorf("no candles")
	}
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		volumes[i] = c.Volume
	}
	lastClose := closes[len(closes)-1]

	// 均线
	if cfg.MA.Fast <= 0 {
		cfg.MA.Fast = 7
	}
	if cfg.MA.Mid <= 0 {
		cfg.MA.Mid = 25
	}
	if cfg.MA.Slow <= 0 {
		cfg.MA.Slow = 99
	}
	maFast := sanitizeSeries(talib.Sma(closes, cfg.MA.Fast))
	maMid := sanitizeSeries(talib.Sma(closes, cfg.MA.Mid))
	rep.Values["ma_fast"] = Value{
		Latest: lastValid(maFast),
		Series: maFast,
		State:  relativeState(lastClose, lastValid(maFast)),
		Note:   fmt.Sprintf("MA%d vs price", cfg.MA.Fast),
	}
	rep.Values["ma_mid"] = Value{
		Latest: lastValid(maMid),
		Series: maMid,
		State:  relativeState(lastClose, lastValid(maMid)),
		Note:   fmt.Sprintf("MA%d vs price", cfg.MA.Mid),
	}
	if len(closes) >= cfg.MA.Slow {
		maSlow := sanitizeSeries(talib.Sma(closes, cfg.MA.Slow))
		rep.Values["ma_slow"] = Value{
			Latest: lastValid(maSlow),
			Series: maSlow,
			State:  relativeState(lastClose, lastValid(maSlow)),
			Note:   fmt.Sprintf("MA%d vs price", cfg.MA.Slow),
		}
	}

	// RSI
	if cfg.RSI.Period <= 0 {
		cfg.RSI.Period = 14
	}
	if cfg.RSI.Overbought == 0 {
		cfg.RSI.Overbought = 70
	}
	if cfg.RSI.Oversold == 0 {
		cfg.RSI.Oversold = 30
	}
	rsiSeries := sanitizeSeries(talib.Rsi(closes, cfg.RSI.Period))
	rsiVal := lastValid(rsiSeries)
	rsiState := "neutral"
	switch {
	case rsiVal >= cfg.RSI.Overbought:
		rsiState = "overbought"
	case rsiVal <= cfg.RSI.Oversold:
		rsiState = "oversold"
	}
	rep.Values["rsi"] = Value{
		Latest: rsiVal,
		Series: rsiSeries,
		State:  rsiState,
		Note:   fmt.Sprintf("period=%d thresholds=%.1f/%.1f", cfg.RSI.Period, cfg.RSI.Oversold, cfg.RSI.Overbought),
	}

	// MACD
	macd, signal, hist := talib.Macd(closes, 12, 26, 9)
	macdSeries := sanitizeSeries(macd)
	signalSeries := sanitizeSeries(signal)
	histSeries := sanitizeSeries(hist)
	macdState := "flat"
	switch {
	case lastValid(histSeries) > 0:
		macdState = "bullish"
	case lastValid(histSeries) < 0:
		macdState = "bearish"
	}
	rep.Values["macd"] = Value{
		Latest: lastValid(macdSeries),
		Series: histSeries,
		State:  macdState,
		Note:   fmt.Sprintf("signal=%.4f hist=%.4f", lastValid(signalSeries), lastValid(histSeries)),
	}

	// 布林带
	if cfg.BB.Period <= 0 {
		cfg.BB.Period = 20
	}
	if cfg.BB.StdDev == 0 {
		cfg.BB.StdDev = 2
	}
	upper, middle, lower := talib.BBands(closes, cfg.BB.Period, cfg.BB.StdDev, cfg.BB.StdDev, talib.SMA)
	upperSeries := sanitizeSeries(upper)
	lowerSeries := sanitizeSeries(lower)
	bbState := "inside"
	switch {
	case lastClose >= lastValid(upperSeries) && lastValid(upperSeries) != 0:
		bbState = "upper_break"
	case lastClose <= lastValid(lowerSeries) && lastValid(lowerSeries) != 0:
		bbState = "lower_break"
	}
	rep.Values["bollinger"] = Value{
		Latest: lastValid(sanitizeSeries(middle)),
		Series: sanitizeSeries(middle),
		State:  bbState,
		Note:   fmt.Sprintf("upper=%.2f lower=%.2f", lastValid(upperSeries), lastValid(lowerSeries)),
	}

	// 量能：最新成交量相对近 20 根均量的比值
	volRatio := volumeRatio(volumes, 20)
	rep.Values["volume_ratio"] = Value{
		Latest: round4(volRatio),
		State:  volumeState(volRatio),
		Note:   "latest vs 20-bar average",
	}

	// ATR 波动率
	atrSeries := sanitizeSeries(talib.Atr(highs, lows, closes, 14))
	rep.Values["atr"] = Value{
		Latest: lastValid(atrSeries),
		Series: atrSeries,
		State:  "volatility",
		Note:   "period=14",
	}

	return rep, nil
}

func volumeRatio(volumes []float64, window int) float64 {
	if len(volumes) == 0 {
		return 0
	}
	if window > len(volumes) {
		window = len(volumes)
	}
	sum := 0.0
	for _, v := range volumes[len(volumes)-window:] {
		sum += v
	}
	avg := sum / float64(window)
	if avg == 0 {
		return 0
	}
	return volumes[len(volumes)-1] / avg
}

func volumeState(ratio float64) string {
	switch {
	case ratio >= 1.5:
		return "surge"
	case ratio > 0 && ratio <= 0.5:
		return "dry"
	default:
		return "normal"
	}
}

func sanitizeSeries(src []float64) []float64 {
	out := make([]float64, 0, len(src))
	for _, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, round4(v))
	}
	return out
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

func relativeState(price, ref float64) string {
	if ref == 0 {
		return "unknown"
	}
	switch {
	case price > ref*1.002:
		return "above"
	case price < ref*0.998:
		return "below"
	default:
		return "touch"
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
