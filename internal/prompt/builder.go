package prompt

import (
	"fmt"
	"strings"

	"skiff/internal/gateway/provider"
	"skiff/internal/market"
	"skiff/internal/position"
)

// Account 是构建提示词所需的账户状态。
type Account struct {
	Price          float64
	AvailableUSDT  float64
	AvailableAsset float64
	BaseAsset      string
}

// TradeBrief 是上一笔交易的摘要。
type TradeBrief struct {
	Action string
	Price  float64
	Profit float64
}

// Performance 是近期交易表现统计。
type Performance struct {
	TotalTrades int
	WinRate     float64
	TotalProfit float64
}

// DecisionBrief 是一轮历史决策，用于组装多轮对话上下文。
type DecisionBrief struct {
	Price      float64
	Action     string
	Confidence int
	Reason     string
}

// Inputs 汇总一次决策请求的所有提示词素材。
type Inputs struct {
	Account     Account
	Snapshot    market.Snapshot
	Position    position.Result
	LastTrade   *TradeBrief
	Performance *Performance
	// Indicators 可选的技术指标摘要。实盘提示词刻意只发原始K线，
	// 留给诊断工具与离线实验注入。
	Indicators string
	MinUnit    float64
}

// BuildUser 构建用户提示词：账户状态、持仓成本、K线数据、近期表现。
func BuildUser(in Inputs) string {
	a := in.Account
	totalValue := a.AvailableAsset*a.Price + a.AvailableUSDT
	var b strings.Builder
	fmt.Fprintf(&b, "当前状态:\n价格: $%s\n余额: %.8f %s ($%s) | $%d USDT\n总值: $%s",
		comma(a.Price), a.AvailableAsset, a.BaseAsset, comma(a.AvailableAsset*a.Price),
		int64(a.AvailableUSDT), comma(totalValue))

	minUnit := in.MinUnit
	if minUnit <= 0 {
		minUnit = position.Epsilon
	}
	if in.Position.HasPosition && in.Position.Amount >= minUnit && in.Position.AvgPrice > 0 {
		pnl := (a.Price - in.Position.AvgPrice) / in.Position.AvgPrice * 100
		fmt.Fprintf(&b, "\n持仓: 成本$%s (%+.1f%%)", comma(in.Position.AvgPrice), pnl)
	}

	if kl := in.Snapshot.Render(); kl != "" {
		b.WriteString("\n\n")
		b.WriteString(kl)
	}
	if in.Indicators != "" {
		b.WriteString("\n\n")
		b.WriteString(in.Indicators)
	}

	if p := in.Performance; p != nil && p.TotalTrades >= 5 {
		fmt.Fprintf(&b, "\n\n最近%d笔: 胜率%.0f%% 累计%+.0f$", p.TotalTrades, p.WinRate, p.TotalProfit)
	}
	if t := in.LastTrade; t != nil {
		fmt.Fprintf(&b, "\n上次: %s $%s", t.Action, comma(t.Price))
		if t.Profit != 0 {
			fmt.Fprintf(&b, " (%+.0f$)", t.Profit)
		}
	}

	fmt.Fprintf(&b, "\n\n可用资金: $%d USDT | 可卖: %.8f %s", int64(a.AvailableUSDT), a.AvailableAsset, a.BaseAsset)
	return b.String()
}

// BuildMessages 组装完整消息序列：system + 历史决策对 + 当前请求。
// history 按从新到旧传入，这里翻转为时间顺序。
func BuildMessages(system, user string, history []DecisionBrief) []provider.Message {
	messages := make([]provider.Message, 0, 2+2*len(history))
	messages = append(messages, provider.Message{Role: "system", Content: system})
	for i := len(history) - 1; i >= 0; i-- {
		d := history[i]
		reason := d.Reason
		if len([]rune(reason)) > 100 {
			reason = string([]rune(reason)[:100])
		}
		messages = append(messages,
			provider.Message{Role: "user", Content: fmt.Sprintf("价格$%s", comma(d.Price))},
			provider.Message{Role: "assistant", Content: fmt.Sprintf("%s (信心%d%%): %s", d.Action, d.Confidence, reason)},
		)
	}
	messages = append(messages, provider.Message{Role: "user", Content: user})
	return messages
}

// comma 按千位分隔格式化金额，保留两位小数。
func comma(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.Index(s, ".")
	intPart, frac := s[:dot], s[dot:]
	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}
	var out []byte
	for i, ch := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}
	res := string(out) + frac
	if neg {
		res = "-" + res
	}
	return res
}
