package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
)

func entry(id string) Entry {
	return Entry{ID: id, Title: id}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestArchiveEvictsOldestByInsertion(t *testing.T) {
	a := NewArchive(0)
	require.Equal(t, DefaultCapacity, a.Capacity())

	for i := 0; i < DefaultCapacity; i++ {
		assert.Empty(t, a.Upsert(entry(fmt.Sprintf("s%d", i))))
	}
	// 更新最早的条目不应改变其淘汰顺序
	assert.Empty(t, a.Upsert(Entry{ID: "s0", Title: "updated"}))

	evicted := a.Upsert(entry("s20"))
	assert.Equal(t, "s0", evicted)
	assert.Equal(t, DefaultCapacity, a.Len())

	got := ids(a.Entries())
	assert.Equal(t, "s1", got[0])
	assert.Equal(t, "s20", got[len(got)-1])
	_, ok := a.Get("s0")
	assert.False(t, ok)
}

func TestArchiveUpsertIsIdempotent(t *testing.T) {
	a := NewArchive(3)
	e := Entry{ID: "x", Title: "t", Messages: []chat.Message{{ID: "m1", Content: "hi"}}}
	for i := 0; i < 5; i++ {
		a.Upsert(e)
	}
	assert.Equal(t, 1, a.Len())

	got, ok := a.Get("x")
	require.True(t, ok)
	got.Messages[0].Content = "mutated"
	again, _ := a.Get("x")
	assert.Equal(t, "hi", again.Messages[0].Content)
}

func TestArchiveDeleteAndClear(t *testing.T) {
	a := NewArchive(5)
	a.Upsert(entry("a"))
	a.Upsert(entry("b"))
	a.Upsert(entry("c"))

	assert.True(t, a.Delete("b"))
	assert.False(t, a.Delete("missing"))
	assert.Equal(t, []string{"a", "c"}, ids(a.Entries()))

	a.Clear()
	assert.Zero(t, a.Len())
}

func TestArchiveReplaceKeepsNewest(t *testing.T) {
	a := NewArchive(2)
	a.Replace([]Entry{entry("a"), entry("b"), entry("c")})
	assert.Equal(t, []string{"b", "c"}, ids(a.Entries()))
}

func TestGenerateSessionTitle(t *testing.T) {
	tests := []struct {
		name string
		msgs []chat.Message
		want string
	}{
		{
			name: "long message truncated",
			msgs: []chat.Message{{Role: chat.RoleUser, Content: "hello world this is a very long user message"}},
			want: "hello world this is " + TitleEllipsis,
		},
		{
			name: "short message kept",
			msgs: []chat.Message{{Role: chat.RoleAssistant, Content: "welcome"}, {Role: chat.RoleUser, Content: "hi"}},
			want: "hi",
		},
		{
			name: "exactly twenty",
			msgs: []chat.Message{{Role: chat.RoleUser, Content: "12345678901234567890"}},
			want: "12345678901234567890",
		},
		{
			name: "counts characters not bytes",
			msgs: []chat.Message{{Role: chat.RoleUser, Content: "推荐2024年最新热门商品，预算3000元以内"}},
			want: "推荐2024年最新热门商品，预算3000" + TitleEllipsis,
		},
		{
			name: "no user message",
			msgs: []chat.Message{{Role: chat.RoleAssistant, Content: "welcome"}},
			want: PlaceholderTitle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSessionTitle(tt.msgs))
		})
	}
}
