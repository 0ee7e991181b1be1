package decision

import (
	"strings"

	"github.com/tidwall/gjson"

	"skiff/internal/pkg/jsonutil"
)

// 中文说明：
// 解析策略：先按严格 JSON 解析；失败则从正文提取首个配平的 {...}
// （容忍模型把 JSON 包在解释性文字里）；仍找不到则拒绝。
// 本函数绝不 panic 出边界，任何异常输出都折叠为 *RejectError。

// Parse 把未可信的模型原文转成通过校验的指令或结构化拒绝。
func Parse(raw string) (*Decision, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, reject("模型返回空响应")
	}

	body := raw
	if !gjson.Valid(body) {
		extracted, ok := jsonutil.ExtractObject(raw)
		if !ok || !gjson.Valid(extracted) {
			return nil, reject("AI响应格式错误：未找到有效JSON对象")
		}
		body = extracted
	}
	parsed := gjson.Parse(body)
	if !parsed.IsObject() {
		extracted, ok := jsonutil.ExtractObject(body)
		if !ok {
			return nil, reject("AI响应格式错误：根节点不是JSON对象")
		}
		parsed = gjson.Parse(extracted)
		if !parsed.IsObject() {
			return nil, reject("AI响应格式错误：根节点不是JSON对象")
		}
		body = extracted
	}

	if err := validateShape(body); err != nil {
		return nil, err
	}
	return build(parsed)
}

func build(parsed gjson.Result) (*Decision, error) {
	for _, field := range []string{"action", "confidence", "reason", "risk_level"} {
		if !parsed.Get(field).Exists() {
			return nil, reject("AI响应缺少必要字段")
		}
	}

	action := Action(strings.ToUpper(strings.TrimSpace(parsed.Get("action").String())))

	// 动作相关规模参数：缺失即拒绝，无规模的指令不可执行，绝不默默补默认值。
	// BUY 兼容旧格式：没有 suggested_usdt 但给了 suggested_amount（资产数量），
	// 标记后由 guard 按现价换算。
	switch action {
	case ActionBuy:
		if !parsed.Get("suggested_usdt").Exists() && !parsed.Get("suggested_amount").Exists() {
			return nil, reject("AI建议BUY但缺少交易金额参数(suggested_usdt)")
		}
	case ActionSell:
		if !parsed.Get("suggested_amount").Exists() {
			return nil, reject("AI建议SELL但缺少交易数量参数(suggested_amount)")
		}
	}

	// 未知动作折叠为 HOLD：无法识别的指令当作"什么都不做"，不让整个周期报错。
	if action != ActionBuy && action != ActionSell && action != ActionHold {
		action = ActionHold
	}

	d := &Decision{
		Action:     action,
		Confidence: int(parsed.Get("confidence").Int()),
		Reason:     parsed.Get("reason").String(),
		RiskLevel:  RiskLevel(strings.ToUpper(strings.TrimSpace(parsed.Get("risk_level").String()))),
		Reasoning:  parsed.Get("reasoning").String(),
	}

	switch action {
	case ActionBuy:
		if !parsed.Get("suggested_usdt").Exists() {
			amount := parsed.Get("suggested_amount").Float()
			if amount <= 0 || amount > MaxSellAmount {
				return nil, reject("AI建议的数量不合理")
			}
			d.SuggestedAmount = amount
			d.LegacyAmount = true
			break
		}
		usdt := parsed.Get("suggested_usdt").Float()
		if usdt < MinBuyUSDT || usdt > MaxBuyUSDT {
			return nil, reject("AI建议的USDT金额不合理")
		}
		d.SuggestedUSDT = usdt
	case ActionSell:
		amount := parsed.Get("suggested_amount").Float()
		if amount <= 0 || amount > MaxSellAmount {
			return nil, reject("AI建议的数量不合理")
		}
		d.SuggestedAmount = amount
	}
	return d, nil
}
