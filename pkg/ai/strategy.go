package ai

import (
	"fmt"
	"strings"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/intent"
)

// DefaultMaxTokens 是各策略的默认最大输出长度。
const DefaultMaxTokens = 2000

const basePrompt = `你是电商购物助手"小购"，请用简短分点说明，先给结论再给理由。`

// Strategy 是按意图选择的系统提示词与采样参数。
type Strategy struct {
	Name         string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// StrategyFor 根据意图构造提示策略。
// 推荐与比价使用较低温度，输出更确定；通用对话温度最高。
func StrategyFor(in intent.Intent) Strategy {
	switch in.Kind {
	case intent.KindRecommendation:
		var b strings.Builder
		b.WriteString(basePrompt)
		b.WriteString("你擅长商品推荐：给出 2-3 款候选商品，说明适用人群、核心优缺点与购买渠道。")
		if in.Category != "" {
			fmt.Fprintf(&b, "用户关注的品类：%s。", in.Category)
		}
		if in.Budget != "" {
			fmt.Fprintf(&b, "用户预算：%s 以内，超出预算的商品不要推荐。", in.Budget)
		}
		return Strategy{
			Name:         string(intent.KindRecommendation),
			SystemPrompt: b.String(),
			Temperature:  0.5,
			MaxTokens:    DefaultMaxTokens,
		}
	case intent.KindPriceComparison:
		var b strings.Builder
		b.WriteString(basePrompt)
		b.WriteString("你擅长价格对比：列出主流渠道的价格区间与优惠方式，并指出最划算的购买时机。")
		if in.ProductName != "" {
			fmt.Fprintf(&b, "用户关注的商品：%s。", in.ProductName)
		}
		return Strategy{
			Name:         string(intent.KindPriceComparison),
			SystemPrompt: b.String(),
			Temperature:  0.3,
			MaxTokens:    DefaultMaxTokens,
		}
	default:
		return Strategy{
			Name:         string(intent.KindGeneral),
			SystemPrompt: basePrompt,
			Temperature:  0.7,
			MaxTokens:    DefaultMaxTokens,
		}
	}
}

// ApplyStrategy 在消息序列中没有 system 消息时前置策略的系统提示词。
// 返回新切片，不修改入参。
func ApplyStrategy(messages []ChatMessage, s Strategy) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages)+1)
	if s.SystemPrompt != "" && !hasSystem(messages) {
		out = append(out, ChatMessage{Role: chat.RoleSystem, Content: s.SystemPrompt})
	}
	return append(out, messages...)
}

func hasSystem(messages []ChatMessage) bool {
	for _, m := range messages {
		if m.Role == chat.RoleSystem {
			return true
		}
	}
	return false
}
