package indicator

import (
	"fmt"
	"sort"
	"strings"
)

// Summary 将报告压缩为适合注入提示词的几行文本。
func (r Report) Summary() string {
	if len(r.Values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "技术指标（%s %s）:\n", r.Symbol, r.Interval)
	for _, k := range keys {
		v := r.Values[k]
		if v.Note != "" {
			fmt.Fprintf(&b, "- %s: %.4f [%s] (%s)\n", k, v.Latest, v.State, v.Note)
		} else {
			fmt.Fprintf(&b, "- %s: %.4f [%s]\n", k, v.Latest, v.State)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
