package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"skiff/internal/decision"
	"skiff/internal/gateway/okx"
	"skiff/internal/gateway/provider"
	"skiff/internal/guard"
	"skiff/internal/logger"
	"skiff/internal/market"
	"skiff/internal/position"
	"skiff/internal/prompt"
	"skiff/internal/store/model"
)

// RunCycle 执行一轮完整决策：
// 行情与余额失败中止本轮；模型输出不合规落库后跳过；
// 执行失败只记日志，本轮照常结束。下一轮重新开始。
func (s *Service) RunCycle(ctx context.Context) {
	traceID := uuid.NewString()

	snapshot, ok := s.fetchSnapshot(ctx)
	if !ok {
		return
	}
	price := snapshot.Price

	balance, err := s.fetchBalance(ctx)
	if err != nil {
		s.log.Errorf("获取余额失败，中止本轮: %v", err)
		return
	}
	usdt, asset := balance.AvailableUSDT, balance.AvailableAsset
	totalValue := asset*price + usdt

	pos, costSource := s.resolveCostBasis(ctx, asset, price)
	s.log.Debugf("持仓成本: $%.2f 来源=%s", pos.AvgPrice, costSource)

	reply, err := s.askModel(ctx, snapshot, pos, usdt, asset)
	if err != nil {
		s.log.Errorf("AI分析失败，中止本轮: %v", err)
		return
	}

	d, parseErr := decision.Parse(reply.Content)
	if parseErr != nil {
		var rej *decision.RejectError
		if errors.As(parseErr, &rej) {
			// 不合规输出也要落库，面板上能看到模型到底说了什么。
			s.persistStatus(ctx, price, usdt, asset, totalValue, rejectPayload(rej), reply.Reasoning, traceID)
			s.log.Warnf("AI输出不合规，跳过本轮: %s", rej.Reason)
			return
		}
		s.log.Errorf("解析AI响应失败，中止本轮: %v", parseErr)
		return
	}
	d.Reasoning = reply.Reasoning

	s.log.LogDecision(logger.DecisionEntry{
		Action:     string(d.Action),
		Confidence: d.Confidence,
		RiskLevel:  string(d.RiskLevel),
		Reason:     d.Reason,
		Price:      price,
		USDT:       usdt,
		Asset:      asset,
		Reasoning:  d.Reasoning,
	})
	s.persistStatus(ctx, price, usdt, asset, totalValue, decisionPayload(d), d.Reasoning, traceID)

	verdict := guard.Evaluate(d, guard.Inputs{
		Price:          price,
		AvailableUSDT:  usdt,
		AvailableAsset: asset,
		MinConfidence:  s.cfg.MinConfidence,
		MinTradeUnit:   s.cfg.MinTradeUnit,
		ReserveRatio:   s.cfg.ReserveRatio,
		Symbol:         s.cfg.Symbol,
	})
	if verdict.Skipped() {
		if verdict.Skip != guard.SkipHold {
			s.log.Warnf("跳过执行(%s): %s", verdict.Skip, verdict.Note)
		}
		return
	}
	if verdict.Note != "" {
		s.log.Infof("订单调整: %s", verdict.Note)
	}

	s.executeAndRecord(ctx, verdict.Order, d, price, asset)
}

// fetchSnapshot 拉取多周期K线；失败时降级为仅 ticker，两者都失败则中止。
func (s *Service) fetchSnapshot(ctx context.Context) (market.Snapshot, bool) {
	var fast, slow market.Candles
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var ferr error
		fast, ferr = s.exchange.GetCandles(ctx, s.cfg.Symbol, s.cfg.Interval, s.cfg.CandleLimit)
		return ferr
	})
	if err == nil && len(fast) > 0 {
		if serr := s.retry.Do(ctx, func(ctx context.Context) error {
			var e error
			slow, e = s.exchange.GetCandles(ctx, s.cfg.Symbol, s.cfg.SlowInterval, s.cfg.SlowLimit)
			return e
		}); serr != nil {
			s.log.Warnf("拉取%s周期失败，仅用%s周期: %v", s.cfg.SlowInterval, s.cfg.Interval, serr)
		}
		snap := market.Snapshot{
			Symbol:     s.cfg.Symbol,
			Price:      fast[len(fast)-1].Close,
			Timeframes: []market.Timeframe{{Interval: s.cfg.Interval, Candles: fast}},
		}
		if len(slow) > 0 {
			snap.Timeframes = append(snap.Timeframes, market.Timeframe{Interval: s.cfg.SlowInterval, Candles: slow})
		}
		return snap, true
	}

	s.log.Warnf("获取K线失败，降级为仅价格模式: %v", err)
	var price float64
	terr := s.retry.Do(ctx, func(ctx context.Context) error {
		tk, e := s.exchange.GetTicker(ctx, s.cfg.Symbol)
		if e != nil {
			return e
		}
		price = tk.Last
		return nil
	})
	if terr != nil || price <= 0 {
		s.log.Errorf("获取价格失败，中止本轮: %v", terr)
		return market.Snapshot{}, false
	}
	return market.PriceOnly(s.cfg.Symbol, price), true
}

func (s *Service) fetchBalance(ctx context.Context) (okx.Balance, error) {
	var balance okx.Balance
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		b, e := s.exchange.GetBalance(ctx, s.cfg.BaseAsset, s.cfg.QuoteAsset)
		if e != nil {
			return e
		}
		balance = b
		return nil
	})
	return balance, err
}

// askModel 组装提示词并调用模型，完整请求与响应写入 LLM 日志。
func (s *Service) askModel(ctx context.Context, snapshot market.Snapshot, pos position.Result, usdt, asset float64) (provider.Reply, error) {
	user := prompt.BuildUser(prompt.Inputs{
		Account: prompt.Account{
			Price:          snapshot.Price,
			AvailableUSDT:  usdt,
			AvailableAsset: asset,
			BaseAsset:      s.cfg.BaseAsset,
		},
		Snapshot:    snapshot,
		Position:    pos,
		LastTrade:   s.loadLastTrade(ctx),
		Performance: s.loadPerformance(ctx),
		MinUnit:     s.cfg.MinTradeUnit,
	})
	system := s.system.System()
	messages := prompt.BuildMessages(system, user, s.loadHistory(ctx))

	s.log.LogLLMRequest(system, user)
	reply, err := s.model.CallWithMessages(ctx, messages)
	if err != nil {
		return provider.Reply{}, err
	}
	s.log.LogLLMResponse(reply.Content, reply.Reasoning)
	return reply, nil
}

func (s *Service) loadPerformance(ctx context.Context) *prompt.Performance {
	perf, err := s.store.Performance(ctx, 20)
	if err != nil {
		s.log.Warnf("读取历史表现失败: %v", err)
		return nil
	}
	if perf.TotalTrades == 0 {
		return nil
	}
	return &prompt.Performance{
		TotalTrades: perf.TotalTrades,
		WinRate:     perf.WinRate,
		TotalProfit: perf.TotalProfit,
	}
}

func (s *Service) loadLastTrade(ctx context.Context) *prompt.TradeBrief {
	trades, err := s.store.RecentTrades(ctx, 1)
	if err != nil || len(trades) == 0 {
		return nil
	}
	return &prompt.TradeBrief{
		Action: trades[0].Action,
		Price:  trades[0].Price,
		Profit: trades[0].Profit,
	}
}

func (s *Service) loadHistory(ctx context.Context) []prompt.DecisionBrief {
	records, err := s.store.RecentDecisions(ctx, s.cfg.HistoryRounds)
	if err != nil {
		s.log.Warnf("读取历史决策失败: %v", err)
		return nil
	}
	out := make([]prompt.DecisionBrief, 0, len(records))
	for _, r := range records {
		out = append(out, prompt.DecisionBrief{
			Price:      r.Price,
			Action:     r.Action,
			Confidence: r.Confidence,
			Reason:     r.Reason,
		})
	}
	return out
}

// executeAndRecord 提交订单并在成交后落库、更新本地成本记录。
func (s *Service) executeAndRecord(ctx context.Context, order *guard.Order, d *decision.Decision, price, assetBefore float64) {
	isSell := order.SellAmount > 0

	var res ExecResult
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var e error
		res, e = s.execute(ctx, order, price)
		return e
	})
	if err != nil {
		s.log.Errorf("下单失败: %v", err)
		return
	}

	profit := 0.0
	if isSell {
		// 卖出盈亏按成本链路计算，成本未知时记 0。
		if cost := s.sellCostBasis(ctx, assetBefore); cost > 0 {
			profit = (res.Price - cost) * res.Amount
		}
		s.log.LogTrade("SELL", res.Price, res.Amount, "SUCCESS")
		s.log.Infof("盈亏: $%+.2f", profit)
		s.memory.ClearPosition()
	} else {
		s.log.LogTrade("BUY", res.Price, res.Amount, "SUCCESS")
		s.memory.SetPosition(res.Price, res.Amount)
	}

	balanceAfter, berr := s.fetchBalance(ctx)
	if berr != nil {
		s.log.Warnf("成交后查询余额失败: %v", berr)
	}
	action := "BUY"
	if isSell {
		action = "SELL"
	}
	trade := &model.TradeModel{
		Action:       action,
		Price:        res.Price,
		Amount:       res.Amount,
		Reason:       d.Reason,
		Profit:       profit,
		BalanceUSDT:  balanceAfter.AvailableUSDT,
		BalanceAsset: balanceAfter.AvailableAsset,
	}
	if err := s.store.SaveTrade(ctx, trade); err != nil {
		s.log.Errorf("交易落库失败: %v", err)
	}
}

// sellCostBasis 卖出盈亏用的成本：成交记录 FIFO，退而求其次用内存最后买入价。
func (s *Service) sellCostBasis(ctx context.Context, balance float64) float64 {
	if fills, err := s.fetchFills(ctx); err == nil {
		if res := position.Compute(balance, fills); res.HasPosition && res.AvgPrice > 0 {
			return res.AvgPrice
		}
	}
	return s.memory.LastBuyPrice()
}

func (s *Service) persistStatus(ctx context.Context, price, usdt, asset, totalValue float64, payload []byte, reasoning, traceID string) {
	status := &model.StatusModel{
		Price:        price,
		BalanceUSDT:  usdt,
		BalanceAsset: asset,
		TotalValue:   totalValue,
		Decision:     datatypes.JSON(payload),
		Reasoning:    reasoning,
		TraceID:      traceID,
	}
	if err := s.store.SaveStatus(ctx, status); err != nil {
		s.log.Errorf("状态落库失败: %v", err)
	}
}

func decisionPayload(d *decision.Decision) []byte {
	payload := map[string]any{
		"action":     d.Action,
		"confidence": d.Confidence,
		"risk_level": d.RiskLevel,
		"reason":     d.Reason,
	}
	if d.SuggestedUSDT > 0 {
		payload["suggested_usdt"] = d.SuggestedUSDT
	}
	if d.SuggestedAmount > 0 {
		payload["suggested_amount"] = d.SuggestedAmount
	}
	buf, _ := json.Marshal(payload)
	return buf
}

func rejectPayload(rej *decision.RejectError) []byte {
	buf, _ := json.Marshal(map[string]any{"error": rej.Reason})
	return buf
}

func formatStatLine(label string, v int) string {
	return fmt.Sprintf("  %s: %d\n", label, v)
}

func formatMoneyLine(label string, v float64) string {
	return fmt.Sprintf("  %s: $%.2f\n", label, v)
}
