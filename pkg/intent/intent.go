// Package intent 将用户输入映射为购物意图并提取槽位。
//
// 分类是纯函数：基于关键词的大小写无关子串匹配，不依赖模型或外部调用。
// 匹配规则为启发式，同时包含推荐与价格关键词时按规则顺序判定为推荐。
package intent

import (
	"regexp"
	"strings"
)

// Kind 是意图类型。
type Kind string

const (
	KindRecommendation  Kind = "recommendation"
	KindPriceComparison Kind = "price"
	KindGeneral         Kind = "general"
)

// Intent 是带标签的意图结果；只有与 Kind 对应的槽位字段有意义。
type Intent struct {
	Kind Kind

	// Recommendation 槽位
	Category string
	Budget   string

	// PriceComparison 槽位
	ProductName string
}

// Recommendation 构造推荐意图。
func Recommendation(category, budget string) Intent {
	return Intent{Kind: KindRecommendation, Category: category, Budget: budget}
}

// PriceComparison 构造比价意图。
func PriceComparison(productName string) Intent {
	return Intent{Kind: KindPriceComparison, ProductName: productName}
}

// General 构造通用意图。
func General() Intent {
	return Intent{Kind: KindGeneral}
}

var (
	recommendationKeywords = []string{"recommend", "what to buy", "which is better", "choose", "推荐", "买什么", "哪个好", "选择"}
	priceKeywords          = []string{"price", "how much", "compare", "cheap", "价格", "多少钱", "对比", "便宜"}

	// categoryVocabulary 的顺序决定多个类别同时出现时的取值。
	// 包含其他词的词条（headphones ⊃ phone）必须排在前面。
	categoryVocabulary = []string{
		"headphones", "phone", "computer", "laptop", "speaker", "camera", "tablet", "watch", "appliance", "electronics",
		"手机", "电脑", "笔记本", "耳机", "音响", "相机", "平板", "手表", "家电", "数码",
	}

	// budgetPattern 依次尝试：数字后紧跟货币单位；预算/上限词后跟数字；货币符号后跟数字。
	budgetPattern = regexp.MustCompile(
		`(\d+)\s*(?:元|块|yuan|rmb|dollars?|bucks|usd)` +
			`|(?:预算|budget|under|below|within|less than|up to|不超过|最多)\D*?(\d+)` +
			`|[$¥￥]\s*(\d+)`)
)

// Classify 对最新一条用户输入做意图识别。
//
// 判定顺序:
//
//	text ──> 含推荐关键词? ──是──> Recommendation{category, budget}
//	            │否
//	            v
//	         含价格关键词? ──是──> PriceComparison{productName}
//	            │否
//	            v
//	          General
func Classify(text string) Intent {
	lower := strings.ToLower(text)

	if containsAny(lower, recommendationKeywords) {
		return Recommendation(findCategory(lower), findBudget(lower))
	}
	if idx := firstIndex(lower, priceKeywords); idx >= 0 {
		return PriceComparison(productPrefix(text, lower, idx))
	}
	return General()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// firstIndex 返回任一关键词在 s 中最早出现的位置，没有时返回 -1。
func firstIndex(s string, words []string) int {
	best := -1
	for _, w := range words {
		if i := strings.Index(s, w); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}

func findCategory(lower string) string {
	for _, c := range categoryVocabulary {
		if strings.Contains(lower, c) {
			return c
		}
	}
	return ""
}

func findBudget(lower string) string {
	m := budgetPattern.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// productPrefix 取关键词之前的文本作为商品名。
// 小写化不改变字节长度时保留原文大小写。
func productPrefix(text, lower string, idx int) string {
	src := lower
	if len(text) == len(lower) {
		src = text
	}
	return strings.TrimSpace(src[:idx])
}
