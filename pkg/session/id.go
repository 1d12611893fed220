package session

import (
	"strconv"
	"sync"
	"time"
)

// idGenerator 生成 session_<unix 毫秒> 形式的会话 ID。
// 同一毫秒内的多次调用追加单调递增的后缀，保证进程内唯一。
type idGenerator struct {
	mu     sync.Mutex
	lastMS int64
	seq    int
}

var sessionIDs idGenerator

func (g *idGenerator) next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := now.UnixMilli()
	if ms <= g.lastMS {
		g.seq++
		return "session_" + strconv.FormatInt(g.lastMS, 10) + "_" + strconv.Itoa(g.seq)
	}
	g.lastMS = ms
	g.seq = 0
	return "session_" + strconv.FormatInt(ms, 10)
}
