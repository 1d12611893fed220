package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/history"
)

// StateKey 是持久化状态使用的键名。
const StateKey = "ai-chat-storage"

// Preferences 是独立于会话数据的用户偏好，重启后保留。
type Preferences struct {
	QuickReplies bool `json:"quickReplies"`
	SoundEnabled bool `json:"soundEnabled"`
	AutoScroll   bool `json:"autoScroll"`
}

// DefaultPreferences 返回默认偏好。
func DefaultPreferences() Preferences {
	return Preferences{
		QuickReplies: true,
		SoundEnabled: false,
		AutoScroll:   true,
	}
}

// State 是持久化到 StateKey 的全部内容。
// 当前会话、消息与输入中状态不在此列，重启后重置。
type State struct {
	History         []history.Entry `json:"history"`
	UserPreferences Preferences     `json:"userPreferences"`
	LastActiveTime  *time.Time      `json:"lastActiveTime"`
}

// StateRepository 负责在 KV 上读写 State。
type StateRepository struct {
	kv  KV
	key string
}

// NewStateRepository 创建读写 StateKey 的仓库。
func NewStateRepository(kv KV) *StateRepository {
	return &StateRepository{kv: kv, key: StateKey}
}

// Load 读取状态；键不存在时返回带默认偏好的空状态。
func (r *StateRepository) Load(ctx context.Context) (State, error) {
	state := State{UserPreferences: DefaultPreferences()}
	data, err := r.kv.Get(ctx, r.key)
	if errors.Is(err, ErrNotFound) {
		return state, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load state: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	if state.History == nil {
		state.History = []history.Entry{}
	}
	return state, nil
}

// Save 覆盖写入状态。
func (r *StateRepository) Save(ctx context.Context, state State) error {
	if state.History == nil {
		state.History = []history.Entry{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close 关闭底层 KV。
func (r *StateRepository) Close() error {
	return r.kv.Close()
}
