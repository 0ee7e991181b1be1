package market

import (
	"fmt"
	"strings"
)

// Timeframe 单个周期的K线序列（从旧到新）。
type Timeframe struct {
	Interval string  `json:"interval"`
	Candles  Candles `json:"candles"`
}

// CurrentPrice 取最后一根K线收盘价。
func (tf Timeframe) CurrentPrice() float64 {
	if len(tf.Candles) == 0 {
		return 0
	}
	return tf.Candles[len(tf.Candles)-1].Close
}

// Snapshot 多周期行情：15m 与 1h 两档，主价格取最短周期。
type Snapshot struct {
	Symbol     string      `json:"symbol"`
	Price      float64     `json:"price"`
	Timeframes []Timeframe `json:"timeframes"`
}

// PriceOnly 构造仅含价格的降级快照（多周期拉取失败但 ticker 可用时）。
func PriceOnly(symbol string, price float64) Snapshot {
	return Snapshot{Symbol: symbol, Price: price}
}

func (s Snapshot) Degraded() bool { return len(s.Timeframes) == 0 }

// Render 将K线渲染为提示词片段：每行 `序号. [开,高,低,收,量]`，最新在最后。
func (s Snapshot) Render() string {
	if s.Degraded() {
		return ""
	}
	var b strings.Builder
	b.WriteString("K线数据（从旧到新排序）:")
	for _, tf := range s.Timeframes {
		if len(tf.Candles) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n\n%s周期（共%d根，最新在最后）:", tf.Interval, len(tf.Candles)))
		for i, c := range tf.Candles {
			b.WriteString(fmt.Sprintf("\n%2d. [%.0f,%.0f,%.0f,%.0f,%.2f]", i+1, c.Open, c.High, c.Low, c.Close, c.Volume))
		}
	}
	return b.String()
}
