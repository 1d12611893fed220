package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store 是当前会话的追加式消息日志。
// 只允许追加，读取顺序即追加顺序；Reset 用于整体替换为新会话或历史快照。
type Store struct {
	mu        sync.RWMutex
	sessionID string
	messages  []Message
	now       func() time.Time
}

// StoreOption 自定义 Store 行为。
type StoreOption func(*Store)

// WithClock 注入时间源，便于测试。
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore 创建绑定到 sessionID 的空消息日志。
func NewStore(sessionID string, opts ...StoreOption) *Store {
	s := &Store{
		sessionID: sessionID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append 追加一条消息并返回带有 id、时间戳与 sessionId 的副本。
func (s *Store) Append(role Role, content string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
		SessionID: s.sessionID,
	}
	s.messages = append(s.messages, msg)
	return msg
}

// Messages 返回全部消息的副本。
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneMessages(s.messages)
}

// Len 返回消息数量。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// SessionID 返回当前绑定的会话 ID，空串表示没有当前会话。
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Last 返回最后一条消息。
func (s *Store) Last() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Reset 将日志整体替换为 sessionID 对应的快照。
// 快照被复制，调用方后续修改不会影响 Store。
func (s *Store) Reset(sessionID string, snapshot []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = sessionID
	s.messages = CloneMessages(snapshot)
}

// Snapshot 返回当前会话快照。
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var created time.Time
	if len(s.messages) > 0 {
		created = s.messages[0].Timestamp
	}
	return Session{
		ID:        s.sessionID,
		Messages:  CloneMessages(s.messages),
		CreatedAt: created,
	}
}
