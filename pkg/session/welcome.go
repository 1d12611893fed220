package session

import (
	"fmt"
	"time"
)

const welcomeTemplate = `您好！我是您的AI购物助手"小购"，专注提供最新的购物资讯。

🔥 **今日服务（%s）**：
• 最新商品推荐
• 实时价格对比分析
• 最新购物趋势解读
• 新品发布信息更新

💡 **提示**：说明预算和用途可以获得更准确的推荐！

请问有什么可以帮助您的吗？`

// WelcomeText 返回新会话的欢迎语，包含当天日期。
func WelcomeText(now time.Time) string {
	return fmt.Sprintf(welcomeTemplate, now.Format("2006年1月2日"))
}

// QuickPrompt 是开启对话的快捷提问。
type QuickPrompt struct {
	Label  string
	Prompt string
}

// QuickPrompts 返回内置的快捷提问列表。
func QuickPrompts() []QuickPrompt {
	return []QuickPrompt{
		{Label: "📱 最新手机推荐", Prompt: "推荐最新手机，预算2000-4000元"},
		{Label: "💰 实时价格对比", Prompt: "iPhone 15最新价格对比"},
		{Label: "⚡ 新品分析", Prompt: "最近有哪些值得关注的新品？"},
		{Label: "📊 产品对比分析", Prompt: "对比分析不同品牌的产品优缺点"},
		{Label: "🎯 今日最优推荐", Prompt: "推荐当前性价比最高的数码产品，预算1000-3000元"},
	}
}
