package logger

import (
	"fmt"
	"strings"
)

// 交易/决策专用的结构化追加。写入失败不反馈给调用方：
// 日志落盘问题绝不允许中断交易循环。

// DecisionEntry 描述一条将被记录的 AI 决策。
type DecisionEntry struct {
	Action     string
	Confidence int
	RiskLevel  string
	Reason     string
	Price      float64
	USDT       float64
	Asset      float64
	Reasoning  string
}

func (l *Logger) LogDecision(e DecisionEntry) {
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("AI决策: %s 信心=%d%% 风险=%s 价格=$%.2f\n", e.Action, e.Confidence, e.RiskLevel, e.Price))
	b.WriteString(fmt.Sprintf("账户: USDT $%.2f | 持仓 %.8f\n", e.USDT, e.Asset))
	if e.Reason != "" {
		b.WriteString("理由: " + e.Reason)
	}
	l.InfoBlock(b.String())
	if r := strings.TrimSpace(e.Reasoning); r != "" {
		l.Debugf("AI推理: %s", truncate(r, 500))
	}
}

func (l *Logger) LogTrade(action string, price, amount float64, result string) {
	if l == nil {
		return
	}
	l.Infof("交易执行 - %s %.8f @ $%.2f - %s", action, amount, price, result)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
