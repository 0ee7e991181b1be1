package agent

import (
	"context"
	"fmt"

	"skiff/internal/position"
)

// resolveCostBasis 按优先级解析持仓成本：
//  1. 交易所成交记录的 FIFO 回放（最准确）
//  2. 进程内最后买入价
//  3. 数据库最近一笔 BUY
//  4. 当前价（未知兜底，盈亏按 0 处理）
//
// 返回的 source 仅用于日志展示。
func (s *Service) resolveCostBasis(ctx context.Context, balance, price float64) (position.Result, string) {
	fills, err := s.fetchFills(ctx)
	if err == nil {
		res := position.Compute(balance, fills)
		if res.HasPosition && res.AvgPrice > 0 {
			return res, fmt.Sprintf("交易所成交记录(%d笔BUY)", res.FillCount)
		}
	} else {
		s.log.Warnf("拉取成交记录失败，使用本地成本兜底: %v", err)
	}

	if last := s.memory.LastBuyPrice(); last > 0 {
		return heldAt(balance, last), "本地记录"
	}

	if trade, derr := s.store.LastBuyTrade(ctx); derr == nil && trade != nil && trade.Price > 0 {
		return heldAt(balance, trade.Price), "数据库"
	}

	return heldAt(balance, price), "当前价(未知)"
}

// fetchFills 拉取成交明细并转换为仓位回放输入（保持从新到旧）。
func (s *Service) fetchFills(ctx context.Context) ([]position.Fill, error) {
	raw, err := s.exchange.GetFillHistory(ctx, s.cfg.Symbol, 100)
	if err != nil {
		return nil, err
	}
	out := make([]position.Fill, 0, len(raw))
	for _, f := range raw {
		side := position.SideBuy
		if f.Side == "sell" {
			side = position.SideSell
		}
		out = append(out, position.Fill{
			Side:  side,
			Size:  f.Size,
			Price: f.Price,
			Time:  f.Ts.UnixMilli(),
		})
	}
	return out, nil
}

func heldAt(balance, avgPrice float64) position.Result {
	return position.Result{
		HasPosition: balance > position.Epsilon,
		Amount:      balance,
		AvgPrice:    avgPrice,
	}
}
