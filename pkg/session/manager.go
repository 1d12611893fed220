// Package session 管理当前会话、历史归档与用户偏好，并负责它们的持久化。
package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/history"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/storage"
)

// Manager 是会话生命周期的唯一入口。
//
// 持久化范围: 历史归档 + 用户偏好 + 最后活跃时间（键 ai-chat-storage）。
// 当前会话、消息日志与输入中状态只存在于内存，重启后重置。
type Manager struct {
	repo    *storage.StateRepository
	store   *chat.Store
	archive *history.Archive
	now     func() time.Time
	logger  *zap.Logger

	mu         sync.Mutex
	prefs      storage.Preferences
	lastActive *time.Time

	composing atomic.Bool
}

// Option 自定义 Manager 行为。
type Option func(*options)

type options struct {
	now      func() time.Time
	logger   *zap.Logger
	capacity int
}

// WithClock 注入时间源。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger 注入日志记录器。
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithArchiveCapacity 设置历史归档容量，非正值使用默认的 20。
func WithArchiveCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// New 从仓库加载持久化状态并返回 Manager。
// 返回的 Manager 没有当前会话，调用方按需 StartNewSession。
func New(ctx context.Context, repo *storage.StateRepository, opts ...Option) (*Manager, error) {
	o := options{now: time.Now, logger: zap.NewNop(), capacity: history.DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}

	state, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	archive := history.NewArchive(o.capacity)
	archive.Replace(state.History)

	m := &Manager{
		repo:       repo,
		store:      chat.NewStore("", chat.WithClock(o.now)),
		archive:    archive,
		now:        o.now,
		logger:     o.logger,
		prefs:      state.UserPreferences,
		lastActive: state.LastActiveTime,
	}
	m.logger.Debug("session state loaded", zap.Int("history", archive.Len()))
	return m, nil
}

// Dispose 将内存中的持久化字段写回仓库。
func (m *Manager) Dispose(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistLocked(ctx)
}

// StartNewSession 开启新会话：生成 ID，消息日志仅包含一条欢迎语。历史归档不受影响。
func (m *Manager) StartNewSession() string {
	now := m.now()
	id := sessionIDs.next(now)

	m.store.Reset(id, nil)
	m.store.Append(chat.RoleAssistant, WelcomeText(now))

	m.mu.Lock()
	m.touchLocked(now)
	m.mu.Unlock()

	m.logger.Debug("session started", zap.String("session_id", id))
	return id
}

// NewSession 先归档当前对话（若有用户交流），再开启新会话。
func (m *Manager) NewSession(ctx context.Context) (string, error) {
	if err := m.ArchiveCurrent(ctx); err != nil {
		return "", err
	}
	return m.StartNewSession(), nil
}

// EnsureSession 在没有当前会话时开启一个新会话。
// Returns:
//   - id: 当前会话 ID
//   - started: 是否新建了会话
func (m *Manager) EnsureSession() (id string, started bool) {
	if id := m.store.SessionID(); id != "" {
		return id, false
	}
	return m.StartNewSession(), true
}

// AddMessage 以当前会话 ID 追加一条消息，并刷新最后活跃时间（不立即持久化）。
func (m *Manager) AddMessage(role chat.Role, content string) chat.Message {
	msg := m.store.Append(role, content)
	m.mu.Lock()
	m.touchLocked(msg.Timestamp)
	m.mu.Unlock()
	return msg
}

// Messages 返回当前会话消息的副本。
func (m *Manager) Messages() []chat.Message {
	return m.store.Messages()
}

// CurrentSessionID 返回当前会话 ID，已清空时为空串。
func (m *Manager) CurrentSessionID() string {
	return m.store.SessionID()
}

// SaveInput 描述一次归档请求。
type SaveInput struct {
	SessionID string // 为空时生成 history_<unix 毫秒>
	Title     string // 为空时由 GenerateSessionTitle 生成
	Messages  []chat.Message
	CreatedAt time.Time // 零值时取当前时间
}

// SaveHistory 按 ID 插入或覆盖归档条目并持久化。
func (m *Manager) SaveHistory(ctx context.Context, in SaveInput) (history.Entry, error) {
	now := m.now().UTC()
	entry := history.Entry{
		ID:        in.SessionID,
		Title:     in.Title,
		Messages:  chat.CloneMessages(in.Messages),
		CreatedAt: in.CreatedAt,
		UpdatedAt: now,
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("history_%d", now.UnixMilli())
	}
	if entry.Title == "" {
		entry.Title = history.GenerateSessionTitle(entry.Messages)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.Messages == nil {
		entry.Messages = []chat.Message{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if evicted := m.archive.Upsert(entry); evicted != "" {
		m.logger.Debug("history entry evicted", zap.String("id", evicted))
	}
	if err := m.persistLocked(ctx); err != nil {
		return history.Entry{}, err
	}
	return entry.Clone(), nil
}

// SaveCurrent 将当前会话快照写入归档；没有当前会话时不做任何事。
func (m *Manager) SaveCurrent(ctx context.Context) error {
	snap := m.store.Snapshot()
	if snap.ID == "" {
		return nil
	}
	_, err := m.SaveHistory(ctx, SaveInput{
		SessionID: snap.ID,
		Messages:  snap.Messages,
		CreatedAt: snap.CreatedAt,
	})
	return err
}

// ArchiveCurrent 当前会话除欢迎语外还有消息时，将其写入归档。
func (m *Manager) ArchiveCurrent(ctx context.Context) error {
	if m.store.Len() <= 1 {
		return nil
	}
	return m.SaveCurrent(ctx)
}

// LoadHistorySession 用归档快照替换当前会话。
func (m *Manager) LoadHistorySession(id string) error {
	entry, ok := m.archive.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.store.Reset(entry.ID, entry.Messages)
	return nil
}

// ClearMessages 清空当前会话，当前会话 ID 置空。历史归档不受影响。
func (m *Manager) ClearMessages() {
	m.store.Reset("", nil)
}

// DeleteHistory 删除归档条目；不存在时不做任何事。
func (m *Manager) DeleteHistory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.archive.Delete(id) {
		return nil
	}
	return m.persistLocked(ctx)
}

// ClearAllHistory 清空全部归档。
func (m *Manager) ClearAllHistory(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archive.Clear()
	return m.persistLocked(ctx)
}

// History 返回归档条目副本，按插入顺序排列。
func (m *Manager) History() []history.Entry {
	return m.archive.Entries()
}

// HistoryEntry 返回指定归档条目。
func (m *Manager) HistoryEntry(id string) (history.Entry, bool) {
	return m.archive.Get(id)
}

// PreferencesPatch 描述偏好的部分更新，nil 字段保持原值。
type PreferencesPatch struct {
	QuickReplies *bool
	SoundEnabled *bool
	AutoScroll   *bool
}

// UpdatePreferences 合并偏好更新并持久化。
func (m *Manager) UpdatePreferences(ctx context.Context, patch PreferencesPatch) (storage.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if patch.QuickReplies != nil {
		m.prefs.QuickReplies = *patch.QuickReplies
	}
	if patch.SoundEnabled != nil {
		m.prefs.SoundEnabled = *patch.SoundEnabled
	}
	if patch.AutoScroll != nil {
		m.prefs.AutoScroll = *patch.AutoScroll
	}
	if err := m.persistLocked(ctx); err != nil {
		return storage.Preferences{}, err
	}
	return m.prefs, nil
}

// Preferences 返回当前偏好。
func (m *Manager) Preferences() storage.Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

// SetComposing 设置"正在输入"指示。
func (m *Manager) SetComposing(v bool) {
	m.composing.Store(v)
}

// Composing 报告是否处于"正在输入"状态。
func (m *Manager) Composing() bool {
	return m.composing.Load()
}

// Stats 是当前会话与归档的统计信息。
type Stats struct {
	TotalMessages     int
	UserMessages      int
	AssistantMessages int
	TotalSessions     int
	LastActiveTime    *time.Time
}

// Stats 返回消息统计。
func (m *Manager) Stats() Stats {
	msgs := m.store.Messages()
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		TotalMessages:     len(msgs),
		UserMessages:      chat.CountByRole(msgs, chat.RoleUser),
		AssistantMessages: chat.CountByRole(msgs, chat.RoleAssistant),
		TotalSessions:     m.archive.Len(),
	}
	if m.lastActive != nil {
		t := *m.lastActive
		s.LastActiveTime = &t
	}
	return s
}

// Export 将当前会话写成纯文本记录，条目之间空一行。
func (m *Manager) Export(w io.Writer) error {
	msgs := m.store.Messages()
	if len(msgs) == 0 {
		return ErrEmptyConversation
	}

	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		speaker := "AI助手"
		if msg.Role == chat.RoleUser {
			speaker = "用户"
		}
		lines = append(lines, speaker+"："+msg.Content)
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n\n"))
	return err
}

// ExportFileName 返回导出文件的默认名称。
func (m *Manager) ExportFileName() string {
	return fmt.Sprintf("AI对话记录_%s.txt", m.now().Format("2006-01-02"))
}

func (m *Manager) touchLocked(t time.Time) {
	t = t.UTC()
	m.lastActive = &t
}

func (m *Manager) persistLocked(ctx context.Context) error {
	state := storage.State{
		History:         m.archive.Entries(),
		UserPreferences: m.prefs,
		LastActiveTime:  m.lastActive,
	}
	if err := m.repo.Save(ctx, state); err != nil {
		m.logger.Warn("persist session state failed", zap.Error(err))
		return fmt.Errorf("session: %w", err)
	}
	return nil
}
