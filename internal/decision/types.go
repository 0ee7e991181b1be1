package decision

// 中文说明：
// 本文件定义经过校验后的交易指令。字段按动作打标签：
// SuggestedUSDT 仅对 BUY 有意义，SuggestedAmount 仅对 SELL 有意义，
// 指令只由本包的解析器构造，此后不再修改。

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// 合理性硬边界：独立于账户状态，拦截模型幻觉出的离谱数量。
// 余额相关的收缩在 guard 层另行处理。
const (
	MinBuyUSDT    = 1.0
	MaxBuyUSDT    = 100000.0
	MaxSellAmount = 10.0
)

// Decision 单周期最终指令。构造一次，校验后按需收缩，之后只读。
type Decision struct {
	Action     Action    `json:"action"`
	Confidence int       `json:"confidence"`
	Reason     string    `json:"reason"`
	RiskLevel  RiskLevel `json:"risk_level"`

	// SuggestedUSDT BUY 的报价币金额。
	SuggestedUSDT float64 `json:"suggested_usdt,omitempty"`
	// SuggestedAmount SELL 的基础币数量；旧格式 BUY 也可能用它表示资产数量。
	SuggestedAmount float64 `json:"suggested_amount,omitempty"`
	// LegacyAmount BUY 指令用旧格式（资产数量）给出规模，guard 按现价换算。
	LegacyAmount bool `json:"-"`

	// Reasoning 模型思维链，未提供时为空串，保证下游日志/记忆形状稳定。
	Reasoning string `json:"reasoning,omitempty"`
}

// RejectError 结构化拒绝：模型输出格式错误或越界。
// 不是故障——编排层据此走 SKIP 分支并照常落库。
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string { return e.Reason }

func reject(reason string) *RejectError { return &RejectError{Reason: reason} }
