package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"skiff/internal/guard"
)

// ExecResult 是一次市价单的执行结果（以实际成交为准）。
type ExecResult struct {
	OrderID string
	Price   float64
	Amount  float64
}

// settleDelay 市价单提交后等待片刻再查询成交。
const settleDelay = time.Second

// execute 将守卫层给出的订单提交交易所并回查实际成交。
func (s *Service) execute(ctx context.Context, order *guard.Order, price float64) (ExecResult, error) {
	switch {
	case order.SpendUSDT > 0:
		return s.executeBuy(ctx, order.SpendUSDT, price)
	case order.SellAmount > 0:
		return s.executeSell(ctx, order.SellAmount)
	default:
		return ExecResult{}, fmt.Errorf("订单规模为空")
	}
}

// executeBuy 市价买入：sz 为 USDT 金额（tgtCcy=quote_ccy）。
// 订单查询未返回成交数量时按当前价反推。
func (s *Service) executeBuy(ctx context.Context, spendUSDT, price float64) (ExecResult, error) {
	sz := decimal.NewFromFloat(spendUSDT).Round(2).String()
	placed, err := s.exchange.PlaceMarketOrder(ctx, s.cfg.Symbol, "buy", sz, "quote_ccy")
	if err != nil {
		return ExecResult{}, err
	}
	res := ExecResult{OrderID: placed.OrderID, Price: price, Amount: spendUSDT / price}

	s.sleep(ctx, settleDelay)
	order, err := s.exchange.GetOrder(ctx, s.cfg.Symbol, placed.OrderID)
	if err != nil {
		s.log.Warnf("查询买单成交失败，按当前价估算: %v", err)
		return res, nil
	}
	if order.AvgPrice > 0 {
		res.Price = order.AvgPrice
	}
	if order.FilledSize > 0 {
		res.Amount = order.FilledSize
	}
	return res, nil
}

// executeSell 市价卖出：sz 为基础币数量（tgtCcy=base_ccy），
// 截断到 8 位小数并去掉尾零，向下取整避免超卖。
func (s *Service) executeSell(ctx context.Context, amount float64) (ExecResult, error) {
	sz := formatSellSize(amount)
	placed, err := s.exchange.PlaceMarketOrder(ctx, s.cfg.Symbol, "sell", sz, "base_ccy")
	if err != nil {
		return ExecResult{}, err
	}
	res := ExecResult{OrderID: placed.OrderID, Amount: amount}

	s.sleep(ctx, settleDelay)
	order, err := s.exchange.GetOrder(ctx, s.cfg.Symbol, placed.OrderID)
	if err != nil {
		s.log.Warnf("查询卖单成交失败: %v", err)
		return res, nil
	}
	if order.AvgPrice > 0 {
		res.Price = order.AvgPrice
	}
	if order.FilledSize > 0 {
		res.Amount = order.FilledSize
	}
	return res, nil
}

// formatSellSize 按交易所精度格式化卖出数量（8 位小数，向下截断）。
func formatSellSize(amount float64) string {
	return decimal.NewFromFloat(amount).
		RoundDown(8).
		String()
}

func (s *Service) sleep(ctx context.Context, d time.Duration) {
	if s.sleepFn != nil {
		s.sleepFn(d)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
