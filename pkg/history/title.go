package history

import "github.com/IMBotPlatform/ShopAssistCore/pkg/chat"

const (
	// TitleMaxRunes 是标题保留的最大字符数。
	TitleMaxRunes = 20
	// TitleEllipsis 标记标题被截断。
	TitleEllipsis = "..."
	// PlaceholderTitle 用于没有用户消息的会话。
	PlaceholderTitle = "Untitled conversation"
)

// GenerateSessionTitle 以首条用户消息作为标题，超过 20 个字符时截断并追加省略号。
func GenerateSessionTitle(messages []chat.Message) string {
	for _, m := range messages {
		if m.Role != chat.RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > TitleMaxRunes {
			return string(runes[:TitleMaxRunes]) + TitleEllipsis
		}
		return m.Content
	}
	return PlaceholderTitle
}
