package intent

import "strings"

// Hint 根据正在输入的文本给出补充建议，没有建议时返回空串。
func Hint(text string) string {
	if text == "" {
		return ""
	}
	t := strings.ToLower(text)

	switch {
	case strings.Contains(t, "推荐") && !strings.Contains(t, "2024") && !strings.Contains(t, "最新"):
		return `💡 提示：加上"2024年最新"获得最新产品推荐，如"推荐2024年最新手机，预算3000元"`
	case strings.Contains(t, "价格") && !strings.Contains(t, "最新") && !strings.Contains(t, "实时"):
		return `💡 提示：加上"最新价格"获得实时价格信息，如"iPhone 15最新价格对比"`
	case strings.Contains(t, "买") && !strings.Contains(t, "2024"):
		return `💡 提示：询问2024年最新购买建议，如"2024年买什么手机好"`
	case strings.Contains(t, "推荐") && !strings.Contains(t, "预算"):
		return `💡 提示：加上预算和年份获得精准推荐，如"推荐2024年手机，预算3000元"`
	case strings.Contains(t, "recommend") && !strings.Contains(t, "budget") && !strings.Contains(t, "under"):
		return `💡 Tip: add a budget for sharper picks, e.g. "recommend a laptop under 3000"`
	}
	return ""
}
