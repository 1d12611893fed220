package ai

import (
	"context"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
)

// ChatMessage 是发往补全服务的单条消息。
type ChatMessage struct {
	Role    chat.Role `json:"role"`
	Content string    `json:"content"`
}

// Usage 是可选的 token 计量信息。
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion 是一次成功补全的结果。
type Completion struct {
	Role    chat.Role
	Content string
	Usage   *Usage
}

// Gateway 是外部语言模型补全服务的边界抽象。
// 失败时返回的错误总是 *GatewayError，按 Kind 区分是否可重试。
type Gateway interface {
	Complete(ctx context.Context, messages []ChatMessage, strategy Strategy) (*Completion, error)
}

// GatewayFunc 允许直接以函数形式实现 Gateway。
type GatewayFunc func(ctx context.Context, messages []ChatMessage, strategy Strategy) (*Completion, error)

// Complete 实现 Gateway 接口。
func (f GatewayFunc) Complete(ctx context.Context, messages []ChatMessage, strategy Strategy) (*Completion, error) {
	return f(ctx, messages, strategy)
}

// FromMessages 将会话消息转换为网关消息，保持顺序。
func FromMessages(msgs []chat.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
