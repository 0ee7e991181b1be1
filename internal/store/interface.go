package store

import (
	"context"

	"skiff/internal/store/model"
)

// DecisionRecord 是从状态表中还原出的一轮历史决策。
type DecisionRecord struct {
	Price      float64 `json:"price"`
	Action     string  `json:"action"`
	Confidence int     `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Performance 汇总最近 N 笔 SELL 的盈亏表现。
type Performance struct {
	TotalTrades int     `json:"total_trades"`
	WinCount    int     `json:"win_count"`
	LossCount   int     `json:"loss_count"`
	WinRate     float64 `json:"win_rate"`
	AvgProfit   float64 `json:"avg_profit"`
	TotalProfit float64 `json:"total_profit"`
}

// Statistics 汇总全量交易统计。Best/Worst 取自 SELL 的单笔盈亏极值。
type Statistics struct {
	TotalTrades int     `json:"total_trades"`
	BuyCount    int     `json:"buy_count"`
	SellCount   int     `json:"sell_count"`
	TotalProfit float64 `json:"total_profit"`
	AvgProfit   float64 `json:"avg_profit"`
	BestProfit  float64 `json:"best_profit"`
	WorstProfit float64 `json:"worst_profit"`
}

// Store 是交易持久化层的统一接口。
type Store interface {
	SaveTrade(ctx context.Context, trade *model.TradeModel) error
	SaveStatus(ctx context.Context, status *model.StatusModel) error
	RecentTrades(ctx context.Context, limit int) ([]model.TradeModel, error)
	LastBuyTrade(ctx context.Context) (*model.TradeModel, error)
	RecentDecisions(ctx context.Context, limit int) ([]DecisionRecord, error)
	LatestStatus(ctx context.Context) (*model.StatusModel, error)
	Performance(ctx context.Context, limit int) (Performance, error)
	Statistics(ctx context.Context) (Statistics, error)
	Close() error
}
