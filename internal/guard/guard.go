// Package guard clamps validated AI instructions against the live account
// state before anything reaches the exchange.
package guard

import (
	"fmt"

	"skiff/internal/decision"
)

// 中文说明：
// 第二层校验：decision 包管"输出是否合规"，这里管"当下是否买得起/卖得出"。
// 纯函数，相同输入必得相同输出，跳过不是错误。

// SkipReason 机器可判定的跳过原因。
type SkipReason string

const (
	SkipLowConfidence       SkipReason = "low_confidence"
	SkipMissingParams       SkipReason = "missing_params"
	SkipBelowMinimum        SkipReason = "below_minimum"
	SkipInsufficientBalance SkipReason = "insufficient_balance"
	SkipHold                SkipReason = "hold"
)

// DefaultReserveRatio 买入时保留 5% USDT 余量，覆盖滑点与手续费。
const DefaultReserveRatio = 0.95

// Inputs 单次评估的账户与行情快照。
type Inputs struct {
	Price          float64
	AvailableUSDT  float64
	AvailableAsset float64
	MinConfidence  int
	MinTradeUnit   float64 // 最小可交易资产数量（BTC 为 1e-5）
	ReserveRatio   float64 // 买入可用比例，(0,1]，未设置时取 DefaultReserveRatio
	Symbol         string
}

// Order 可直接提交的市价单请求。
type Order struct {
	Symbol string
	Side   decision.Action
	// SpendUSDT BUY 规模（报价币），SELL 时为 0。
	SpendUSDT float64
	// SellAmount SELL 规模（基础币），BUY 时为 0。
	SellAmount float64
}

// Verdict 评估结论：要么给出订单，要么给出带原因的跳过。
type Verdict struct {
	Order *Order
	Skip  SkipReason
	// Note 人类可读说明（旧格式换算、收缩细节），仅供编排层记日志。
	Note string
}

func (v Verdict) Skipped() bool { return v.Order == nil }

// Evaluate 把通过校验的指令收缩成可执行订单或跳过结论。
func Evaluate(d *decision.Decision, in Inputs) Verdict {
	if d == nil {
		return Verdict{Skip: SkipMissingParams, Note: "空指令"}
	}
	if d.Action == decision.ActionHold {
		return Verdict{Skip: SkipHold}
	}
	if d.Confidence < in.MinConfidence {
		return Verdict{
			Skip: SkipLowConfidence,
			Note: fmt.Sprintf("信心不足(%d%% < %d%%)", d.Confidence, in.MinConfidence),
		}
	}

	switch d.Action {
	case decision.ActionBuy:
		return evaluateBuy(d, in)
	case decision.ActionSell:
		return evaluateSell(d, in)
	default:
		return Verdict{Skip: SkipMissingParams, Note: "未知动作"}
	}
}

func evaluateBuy(d *decision.Decision, in Inputs) Verdict {
	suggested := d.SuggestedUSDT
	note := ""
	if suggested <= 0 {
		// 旧格式：规模以资产数量给出，按现价换算为报价币金额。
		if d.LegacyAmount && d.SuggestedAmount > 0 && in.Price > 0 {
			suggested = d.SuggestedAmount * in.Price
			note = fmt.Sprintf("旧格式换算: %.8f → $%.2f", d.SuggestedAmount, suggested)
		} else {
			return Verdict{Skip: SkipMissingParams, Note: "BUY缺少规模参数"}
		}
	}

	ratio := in.ReserveRatio
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultReserveRatio
	}
	maxSpend := in.AvailableUSDT * ratio
	spend := suggested
	if spend > maxSpend {
		spend = maxSpend
	}

	minQuote := in.MinTradeUnit * in.Price
	if spend < minQuote {
		return Verdict{
			Skip: SkipBelowMinimum,
			Note: fmt.Sprintf("交易金额太小($%.2f < $%.2f)", spend, minQuote),
		}
	}
	// 95% 上限之后的兜底：可用余额仍小于支出则跳过。
	if in.AvailableUSDT < spend {
		return Verdict{
			Skip: SkipInsufficientBalance,
			Note: fmt.Sprintf("USDT余额不足: 需要$%.2f 实际$%.2f", spend, in.AvailableUSDT),
		}
	}
	return Verdict{
		Order: &Order{Symbol: in.Symbol, Side: decision.ActionBuy, SpendUSDT: spend},
		Note:  note,
	}
}

func evaluateSell(d *decision.Decision, in Inputs) Verdict {
	if d.SuggestedAmount <= 0 {
		return Verdict{Skip: SkipMissingParams, Note: "SELL缺少规模参数"}
	}
	amount := d.SuggestedAmount
	if amount > in.AvailableAsset {
		amount = in.AvailableAsset
	}
	if amount < in.MinTradeUnit {
		return Verdict{
			Skip: SkipBelowMinimum,
			Note: fmt.Sprintf("卖出数量太小(%.8f < %.8f)", amount, in.MinTradeUnit),
		}
	}
	return Verdict{
		Order: &Order{Symbol: in.Symbol, Side: decision.ActionSell, SellAmount: amount},
	}
}
