package session

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/history"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/storage"
)

// tickingClock 每次调用前进一秒。
func tickingClock() func() time.Time {
	t := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newManager(t *testing.T, kv storage.KV) *Manager {
	t.Helper()
	m, err := New(context.Background(), storage.NewStateRepository(kv), WithClock(tickingClock()))
	require.NoError(t, err)
	return m
}

func TestStartNewSessionSeedsWelcome(t *testing.T) {
	m := newManager(t, storage.NewMemoryKV())
	assert.Empty(t, m.CurrentSessionID())

	id := m.StartNewSession()
	assert.True(t, strings.HasPrefix(id, "session_"))
	assert.Equal(t, id, m.CurrentSessionID())

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.RoleAssistant, msgs[0].Role)
	assert.Equal(t, id, msgs[0].SessionID)
	assert.Contains(t, msgs[0].Content, "2024年5月20日")
	assert.Empty(t, m.History())
}

func TestSessionIDsAreUnique(t *testing.T) {
	m, err := New(context.Background(), storage.NewStateRepository(storage.NewMemoryKV()),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }))
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		id := m.StartNewSession()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestSaveHistoryIsIdempotentAndPersists(t *testing.T) {
	kv := storage.NewMemoryKV()
	m := newManager(t, kv)
	ctx := context.Background()

	id := m.StartNewSession()
	m.AddMessage(chat.RoleUser, "recommend a laptop under 3000")
	require.NoError(t, m.SaveCurrent(ctx))
	require.NoError(t, m.SaveCurrent(ctx))

	entries := m.History()
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "recommend a laptop u...", entries[0].Title)

	reopened := newManager(t, kv)
	if diff := cmp.Diff(entries, reopened.History()); diff != "" {
		t.Fatalf("history mismatch after reload (-want +got):\n%s", diff)
	}
	assert.NotNil(t, reopened.Stats().LastActiveTime)
}

func TestSaveHistoryEvictsOldest(t *testing.T) {
	m := newManager(t, storage.NewMemoryKV())
	ctx := context.Background()

	for i := 0; i < history.DefaultCapacity+1; i++ {
		_, err := m.SaveHistory(ctx, SaveInput{SessionID: fmt.Sprintf("s%02d", i)})
		require.NoError(t, err)
	}

	entries := m.History()
	require.Len(t, entries, history.DefaultCapacity)
	assert.Equal(t, "s01", entries[0].ID)
	assert.Equal(t, "s20", entries[len(entries)-1].ID)
	assert.Equal(t, history.PlaceholderTitle, entries[0].Title)
}

func TestLoadHistorySession(t *testing.T) {
	m := newManager(t, storage.NewMemoryKV())
	ctx := context.Background()

	id := m.StartNewSession()
	m.AddMessage(chat.RoleUser, "iPhone 15 价格")
	require.NoError(t, m.SaveCurrent(ctx))
	want := m.Messages()

	m.StartNewSession()
	require.NoError(t, m.LoadHistorySession(id))
	assert.Equal(t, id, m.CurrentSessionID())
	assert.Equal(t, want, m.Messages())

	err := m.LoadHistorySession("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, id, m.CurrentSessionID(), "failed load keeps the current session")
}

func TestClearAndDelete(t *testing.T) {
	m := newManager(t, storage.NewMemoryKV())
	ctx := context.Background()

	id := m.StartNewSession()
	m.AddMessage(chat.RoleUser, "hello")
	require.NoError(t, m.SaveCurrent(ctx))

	m.ClearMessages()
	assert.Empty(t, m.Messages())
	assert.Empty(t, m.CurrentSessionID())
	assert.Len(t, m.History(), 1)

	require.NoError(t, m.DeleteHistory(ctx, "not-there"))
	require.NoError(t, m.DeleteHistory(ctx, id))
	assert.Empty(t, m.History())

	_, err := m.SaveHistory(ctx, SaveInput{SessionID: "a"})
	require.NoError(t, err)
	require.NoError(t, m.ClearAllHistory(ctx))
	assert.Empty(t, m.History())
}

func TestNewSessionArchivesOnlyRealConversations(t *testing.T) {
	m := newManager(t, storage.NewMemoryKV())
	ctx := context.Background()

	m.StartNewSession()
	_, err := m.NewSession(ctx)
	require.NoError(t, err)
	assert.Empty(t, m.History(), "welcome-only session is not archived")

	first := m.CurrentSessionID()
	m.AddMessage(chat.RoleUser, "推荐耳机")
	second, err := m.NewSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	entries := m.History()
	require.Len(t, entries, 1)
	assert.Equal(t, first, entries[0].ID)
}

func TestPreferencesPersistAcrossRestart(t *testing.T) {
	kv, err := storage.NewBoltKV(filepath.Join(t.TempDir(), "state.db"), "")
	require.NoError(t, err)
	m := newManager(t, kv)
	assert.Equal(t, storage.DefaultPreferences(), m.Preferences())

	on := true
	off := false
	prefs, err := m.UpdatePreferences(context.Background(), PreferencesPatch{SoundEnabled: &on, AutoScroll: &off})
	require.NoError(t, err)
	assert.Equal(t, storage.Preferences{QuickReplies: true, SoundEnabled: true, AutoScroll: false}, prefs)

	reopened := newManager(t, kv)
	assert.Equal(t, prefs, reopened.Preferences())
	require.NoError(t, kv.Close())
}

func TestStatsAndExport(t *testing.T) {
	m := newManager(t, storage.NewMemoryKV())

	var buf bytes.Buffer
	assert.ErrorIs(t, m.Export(&buf), ErrEmptyConversation)

	m.StartNewSession()
	m.AddMessage(chat.RoleUser, "推荐手机")
	m.AddMessage(chat.RoleAssistant, "结论：选 A")

	stats := m.Stats()
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, 1, stats.UserMessages)
	assert.Equal(t, 2, stats.AssistantMessages)
	assert.Equal(t, 0, stats.TotalSessions)
	require.NotNil(t, stats.LastActiveTime)

	require.NoError(t, m.Export(&buf))
	parts := strings.Split(buf.String(), "\n\n")
	assert.Equal(t, "用户：推荐手机", parts[len(parts)-2])
	assert.Equal(t, "AI助手：结论：选 A", parts[len(parts)-1])
	assert.True(t, strings.HasPrefix(buf.String(), "AI助手：您好"))
}

func TestComposingFlag(t *testing.T) {
	m := newManager(t, storage.NewMemoryKV())
	assert.False(t, m.Composing())
	m.SetComposing(true)
	assert.True(t, m.Composing())
	m.SetComposing(false)
	assert.False(t, m.Composing())
}
