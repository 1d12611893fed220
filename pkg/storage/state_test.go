package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/history"
)

func TestStateRepositoryDefaults(t *testing.T) {
	repo := NewStateRepository(NewMemoryKV())
	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), state.UserPreferences)
	assert.Empty(t, state.History)
	assert.Nil(t, state.LastActiveTime)
}

func TestStateRepositorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.bolt")

	ts := time.Date(2024, 6, 18, 10, 30, 0, 0, time.UTC)
	want := State{
		History: []history.Entry{{
			ID:    "session_1",
			Title: "iPhone 15最新价格对比",
			Messages: []chat.Message{
				{ID: "m1", Role: chat.RoleUser, Content: "iPhone 15最新价格对比", Timestamp: ts, SessionID: "session_1"},
			},
			CreatedAt: ts,
			UpdatedAt: ts,
		}},
		UserPreferences: Preferences{QuickReplies: false, SoundEnabled: true, AutoScroll: true},
		LastActiveTime:  &ts,
	}

	kv, err := NewBoltKV(path, "")
	require.NoError(t, err)
	require.NoError(t, NewStateRepository(kv).Save(ctx, want))
	require.NoError(t, kv.Close())

	kv, err = NewBoltKV(path, "")
	require.NoError(t, err)
	defer kv.Close()
	got, err := NewStateRepository(kv).Load(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestStateWireFormat(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, NewStateRepository(kv).Save(context.Background(), State{UserPreferences: DefaultPreferences()}))

	raw, err := kv.Get(context.Background(), StateKey)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.ElementsMatch(t, []string{"history", "userPreferences", "lastActiveTime"}, keys(doc))
	assert.JSONEq(t, `[]`, string(doc["history"]))
	assert.JSONEq(t, `null`, string(doc["lastActiveTime"]))
	assert.JSONEq(t, `{"quickReplies":true,"soundEnabled":false,"autoScroll":true}`, string(doc["userPreferences"]))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
