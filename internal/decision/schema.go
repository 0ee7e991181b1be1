package decision

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 形状预检：字段类型错误（如 confidence 给成字符串对象）在语义校验前拦下。
// 字段缺失不在这里处理，presence 检查在 build 里给出更友好的拒绝理由。
const decisionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "action":           {"type": "string"},
    "confidence":       {"type": ["number", "string"]},
    "reason":           {"type": "string"},
    "risk_level":       {"type": "string"},
    "suggested_usdt":   {"type": ["number", "string"]},
    "suggested_amount": {"type": ["number", "string"]},
    "reasoning":        {"type": "string"}
  }
}`

var compiledSchema = jsonschema.MustCompileString("decision.json", decisionSchema)

func validateShape(raw string) error {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return reject("AI响应格式错误：JSON解析失败")
	}
	if err := compiledSchema.Validate(doc); err != nil {
		msg := err.Error()
		if idx := strings.Index(msg, "\n"); idx > 0 {
			msg = msg[:idx]
		}
		return reject("AI响应字段类型错误: " + msg)
	}
	return nil
}
