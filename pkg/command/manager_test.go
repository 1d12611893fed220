package command

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/session"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/storage"
)

func newTestManager(t *testing.T) (*Manager, *session.Manager) {
	t.Helper()
	sessions, err := session.New(context.Background(), storage.NewStateRepository(storage.NewMemoryKV()))
	require.NoError(t, err)
	sessions.StartNewSession()
	return NewManager(NewRootCommand, sessions), sessions
}

// run 执行一条命令，返回拼接后的输出与最后一个片段。
func run(t *testing.T, m *Manager, text string) (string, botcore.Reply) {
	t.Helper()
	var b strings.Builder
	var last botcore.Reply
	for r := range m.Trigger(context.Background(), botcore.Update{Text: text}) {
		b.WriteString(r.Content)
		last = r
	}
	require.True(t, last.IsFinal, "last chunk must be final")
	return b.String(), last
}

func TestManagerNewAndHistory(t *testing.T) {
	m, sessions := newTestManager(t)
	first := sessions.CurrentSessionID()
	sessions.AddMessage(chat.RoleUser, "推荐一款降噪耳机")

	out, _ := run(t, m, "/new")
	assert.Contains(t, out, "已开启新对话")
	assert.NotEqual(t, first, sessions.CurrentSessionID())

	out, _ = run(t, m, "/history")
	assert.Contains(t, out, "推荐一款降噪耳机")
	assert.Contains(t, out, first)

	out, _ = run(t, m, "/load 1")
	assert.Contains(t, out, first)
	assert.Equal(t, first, sessions.CurrentSessionID())

	_, last := run(t, m, "/load nope")
	assert.Equal(t, botcore.ReplyNotice, last.Kind)
	assert.Contains(t, last.Content, "未找到")

	run(t, m, "/delete "+first)
	assert.Empty(t, sessions.History())
	out, _ = run(t, m, "/history")
	assert.Contains(t, out, "暂无历史记录")
}

func TestManagerClearCommands(t *testing.T) {
	m, sessions := newTestManager(t)
	sessions.AddMessage(chat.RoleUser, "hello")
	require.NoError(t, sessions.SaveCurrent(context.Background()))
	before := sessions.CurrentSessionID()

	run(t, m, "/clear")
	assert.NotEqual(t, before, sessions.CurrentSessionID())
	assert.Len(t, sessions.Messages(), 1)
	assert.Len(t, sessions.History(), 1)

	run(t, m, "/clear-history")
	assert.Empty(t, sessions.History())
}

func TestManagerExportAndStats(t *testing.T) {
	m, sessions := newTestManager(t)
	sessions.AddMessage(chat.RoleUser, "iPhone 15 价格")

	path := filepath.Join(t.TempDir(), "chat.txt")
	out, _ := run(t, m, "/export "+path)
	assert.Contains(t, out, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "用户：iPhone 15 价格")

	out, _ = run(t, m, "/stats")
	assert.Contains(t, out, "消息总数: 2")
	assert.Contains(t, out, "用户消息: 1")

	sessions.ClearMessages()
	_, last := run(t, m, "/export "+path)
	assert.Equal(t, "当前没有对话内容", last.Content)
}

func TestManagerPrefsAndQuick(t *testing.T) {
	m, sessions := newTestManager(t)

	out, _ := run(t, m, "/prefs --sound --quick-replies=false")
	assert.Contains(t, out, "提示音: 开")
	assert.Contains(t, out, "快捷提问: 关")
	assert.Equal(t, storage.Preferences{QuickReplies: false, SoundEnabled: true, AutoScroll: true}, sessions.Preferences())

	_, last := run(t, m, "/quick")
	assert.Equal(t, botcore.ReplyNotice, last.Kind)

	run(t, m, "/prefs --quick-replies")
	out, _ = run(t, m, "/quick")
	assert.Contains(t, out, "iPhone 15最新价格对比")
}

func TestManagerIntentAndErrors(t *testing.T) {
	m, _ := newTestManager(t)

	out, _ := run(t, m, "/intent recommend a laptop under 3000")
	assert.Contains(t, out, "品类: laptop")
	assert.Contains(t, out, "预算: 3000")

	_, last := run(t, m, "/teleport")
	assert.Equal(t, botcore.ReplyError, last.Kind)
	assert.Contains(t, last.Content, "unknown command")

	_, last = run(t, m, "hello")
	assert.Equal(t, botcore.ReplyNotice, last.Kind)
	assert.Contains(t, last.Content, "未识别的命令: hello")

	_, last = run(t, m, " / ")
	assert.Equal(t, botcore.ReplyNotice, last.Kind)
	assert.Equal(t, "请输入命令 (e.g. /help)", last.Content)

	out, _ = run(t, m, "/help")
	assert.Contains(t, out, "clear-history")
}
