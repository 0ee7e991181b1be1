package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiff/internal/decision"
)

func baseInputs() Inputs {
	return Inputs{
		Price:          50000,
		AvailableUSDT:  1000,
		AvailableAsset: 0.5,
		MinConfidence:  60,
		MinTradeUnit:   0.00001,
		Symbol:         "BTC-USDT",
	}
}

func TestEvaluate_Hold(t *testing.T) {
	v := Evaluate(&decision.Decision{Action: decision.ActionHold, Confidence: 90}, baseInputs())
	assert.True(t, v.Skipped())
	assert.Equal(t, SkipHold, v.Skip)
}

func TestEvaluate_LowConfidence(t *testing.T) {
	d := &decision.Decision{Action: decision.ActionBuy, Confidence: 59, SuggestedUSDT: 100}
	v := Evaluate(d, baseInputs())
	assert.Equal(t, SkipLowConfidence, v.Skip)

	d = &decision.Decision{Action: decision.ActionSell, Confidence: 10, SuggestedAmount: 0.1}
	v = Evaluate(d, baseInputs())
	assert.Equal(t, SkipLowConfidence, v.Skip)
}

func TestEvaluate_BuyReserveCap(t *testing.T) {
	// 可用 100，建议 200 → 收缩到 95（95% 上限），而不是 200。
	in := baseInputs()
	in.AvailableUSDT = 100
	d := &decision.Decision{Action: decision.ActionBuy, Confidence: 80, SuggestedUSDT: 200}
	v := Evaluate(d, in)
	require.False(t, v.Skipped())
	assert.InDelta(t, 95.0, v.Order.SpendUSDT, 1e-9)
}

func TestEvaluate_BuyReserveRatioConfigurable(t *testing.T) {
	// 配置的保留比例必须生效：0.8 × 100 = 80。
	in := baseInputs()
	in.AvailableUSDT = 100
	in.ReserveRatio = 0.8
	d := &decision.Decision{Action: decision.ActionBuy, Confidence: 80, SuggestedUSDT: 200}
	v := Evaluate(d, in)
	require.False(t, v.Skipped())
	assert.InDelta(t, 80.0, v.Order.SpendUSDT, 1e-9)

	// 非法比例回落到缺省 0.95。
	in.ReserveRatio = 1.5
	v = Evaluate(d, in)
	require.False(t, v.Skipped())
	assert.InDelta(t, 95.0, v.Order.SpendUSDT, 1e-9)
}

func TestEvaluate_BuyWithinBalanceNotClamped(t *testing.T) {
	d := &decision.Decision{Action: decision.ActionBuy, Confidence: 80, SuggestedUSDT: 300}
	v := Evaluate(d, baseInputs())
	require.False(t, v.Skipped())
	assert.InDelta(t, 300.0, v.Order.SpendUSDT, 1e-9)
	assert.Equal(t, decision.ActionBuy, v.Order.Side)
	assert.Equal(t, "BTC-USDT", v.Order.Symbol)
}

func TestEvaluate_BuyBelowMinimum(t *testing.T) {
	// 最小可交易量对应的报价币价值：0.00001 × 50000 = 0.5
	in := baseInputs()
	in.AvailableUSDT = 0.4
	d := &decision.Decision{Action: decision.ActionBuy, Confidence: 80, SuggestedUSDT: 5}
	v := Evaluate(d, in)
	assert.Equal(t, SkipBelowMinimum, v.Skip)
}

func TestEvaluate_BuyLegacyAmountConverted(t *testing.T) {
	d := &decision.Decision{
		Action:          decision.ActionBuy,
		Confidence:      80,
		SuggestedAmount: 0.01,
		LegacyAmount:    true,
	}
	v := Evaluate(d, baseInputs())
	require.False(t, v.Skipped())
	// 0.01 × 50000 = 500
	assert.InDelta(t, 500.0, v.Order.SpendUSDT, 1e-9)
	assert.NotEmpty(t, v.Note)
}

func TestEvaluate_BuyMissingParams(t *testing.T) {
	d := &decision.Decision{Action: decision.ActionBuy, Confidence: 80}
	v := Evaluate(d, baseInputs())
	assert.Equal(t, SkipMissingParams, v.Skip)
}

func TestEvaluate_SellClampedToHoldings(t *testing.T) {
	d := &decision.Decision{Action: decision.ActionSell, Confidence: 80, SuggestedAmount: 2.0}
	v := Evaluate(d, baseInputs())
	require.False(t, v.Skipped())
	assert.InDelta(t, 0.5, v.Order.SellAmount, 1e-9, "绝不卖出超过持有量")
}

func TestEvaluate_SellBelowMinimum(t *testing.T) {
	in := baseInputs()
	in.AvailableAsset = 0.000001
	d := &decision.Decision{Action: decision.ActionSell, Confidence: 80, SuggestedAmount: 0.000001}
	v := Evaluate(d, in)
	assert.Equal(t, SkipBelowMinimum, v.Skip)
}

func TestEvaluate_Idempotent(t *testing.T) {
	d := &decision.Decision{Action: decision.ActionBuy, Confidence: 80, SuggestedUSDT: 200}
	in := baseInputs()
	v1 := Evaluate(d, in)
	v2 := Evaluate(d, in)
	require.False(t, v1.Skipped())
	require.False(t, v2.Skipped())
	assert.Equal(t, *v1.Order, *v2.Order)
	assert.Equal(t, v1.Note, v2.Note)
}

func TestEvaluate_NilDecision(t *testing.T) {
	v := Evaluate(nil, baseInputs())
	assert.Equal(t, SkipMissingParams, v.Skip)
}
