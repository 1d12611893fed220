package chat

import "time"

// Role 标识消息作者。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid 判断角色是否为已知取值。
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message 是会话中的一条消息，创建后不可修改。
// 字段的 JSON 名称与持久化键 ai-chat-storage 中的格式一致。
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
}

// Session 描述当前会话的快照。
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// CloneMessages 返回消息切片的独立副本。
func CloneMessages(src []Message) []Message {
	if src == nil {
		return nil
	}
	out := make([]Message, len(src))
	copy(out, src)
	return out
}

// CountByRole 统计指定角色的消息数量。
func CountByRole(msgs []Message, role Role) int {
	n := 0
	for _, m := range msgs {
		if m.Role == role {
			n++
		}
	}
	return n
}
