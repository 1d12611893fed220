package session

import "errors"

var (
	// ErrNotFound 表示历史记录中不存在指定 ID。
	ErrNotFound = errors.New("history session not found")
	// ErrEmptyConversation 表示当前没有可导出的对话内容。
	ErrEmptyConversation = errors.New("no messages in current conversation")
)
