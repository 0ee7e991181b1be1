package okx

import "time"

// Balance 是读取账户可用余额后的归一化结果。
type Balance struct {
	AvailableUSDT  float64
	AvailableAsset float64
	UpdatedAt      time.Time
}

// Ticker 是最新成交价的归一化结果。
type Ticker struct {
	InstID string
	Last   float64
	Ts     time.Time
}

// Fill 是成交明细的归一化结果，按交易所返回顺序（从新到旧）。
type Fill struct {
	InstID string
	Side   string // buy / sell
	Size   float64
	Price  float64
	Ts     time.Time
}

// OrderResult 是下单请求的归一化回执。
type OrderResult struct {
	OrderID string
}

// Order 是订单查询的归一化结果。
type Order struct {
	OrderID        string
	State          string // live / partially_filled / filled / canceled
	AvgPrice       float64
	FilledSize     float64
	FilledNotional float64
	Fee            float64
}

// Filled 报告订单是否已全部成交。
func (o Order) Filled() bool {
	return o.State == "filled"
}

// Instrument 是交易产品规格的归一化结果。
type Instrument struct {
	InstID   string
	MinSize  float64 // 最小下单数量（基础币）
	LotSize  float64
	TickSize float64
}
