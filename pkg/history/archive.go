package history

import (
	"sync"
	"time"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
)

// DefaultCapacity 是历史记录的默认容量。
const DefaultCapacity = 20

// Entry 是一次会话的归档快照，ID 等于来源会话 ID。
type Entry struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Messages  []chat.Message `json:"messages"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Clone 返回 Entry 的深拷贝。
func (e Entry) Clone() Entry {
	e.Messages = chat.CloneMessages(e.Messages)
	return e
}

// Archive 是按插入顺序排列的定长历史记录集合。
// 写满后插入新条目会淘汰最早插入的条目（FIFO，与访问时间无关）。
// 对已存在的 ID 执行 Upsert 会原地覆盖，不改变其位置。
type Archive struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
}

// NewArchive 创建容量为 capacity 的归档；非正值回退为 DefaultCapacity。
func NewArchive(capacity int) *Archive {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Archive{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
	}
}

// Capacity 返回容量上限。
func (a *Archive) Capacity() int {
	return a.capacity
}

// Upsert 按 ID 插入或覆盖条目。
// Returns:
//   - evicted: 因容量淘汰的条目 ID，未淘汰时为空串
func (a *Archive) Upsert(entry Entry) (evicted string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry = entry.Clone()
	if idx := a.indexOf(entry.ID); idx >= 0 {
		a.entries[idx] = entry
		return ""
	}

	if len(a.entries) >= a.capacity {
		evicted = a.entries[0].ID
		copy(a.entries, a.entries[1:])
		a.entries = a.entries[:len(a.entries)-1]
	}
	a.entries = append(a.entries, entry)
	return evicted
}

// Get 按 ID 查找条目。
func (a *Archive) Get(id string) (Entry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if idx := a.indexOf(id); idx >= 0 {
		return a.entries[idx].Clone(), true
	}
	return Entry{}, false
}

// Delete 删除条目，返回是否存在。
func (a *Archive) Delete(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.indexOf(id)
	if idx < 0 {
		return false
	}
	a.entries = append(a.entries[:idx], a.entries[idx+1:]...)
	return true
}

// Clear 清空全部条目。
func (a *Archive) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = a.entries[:0]
}

// Len 返回条目数量。
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// Entries 按插入顺序返回全部条目的副本。
func (a *Archive) Entries() []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Entry, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Clone()
	}
	return out
}

// Replace 用 entries 重建归档（用于从持久化存储恢复）。
// 超出容量时仅保留最后 capacity 条，重复 ID 以后出现者为准。
func (a *Archive) Replace(entries []Entry) {
	a.mu.Lock()
	a.entries = a.entries[:0]
	a.mu.Unlock()
	for _, e := range entries {
		a.Upsert(e)
	}
}

func (a *Archive) indexOf(id string) int {
	for i := range a.entries {
		if a.entries[i].ID == id {
			return i
		}
	}
	return -1
}
