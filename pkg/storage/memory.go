package storage

import (
	"context"
	"sync"
)

// MemoryKV 提供基于内存的键值存储。
// 进程重启即丢失，适用于测试与不需要持久化的场景。
type MemoryKV struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryKV 创建内存存储实例。
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get 返回指定 key 的值副本。
func (s *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	val, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(val), nil
}

// Set 存储值副本，同名键按最新值覆盖。
func (s *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data[key] = cloneBytes(value)
	return nil
}

// Delete 删除键。
func (s *MemoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.data, key)
	return nil
}

// Close 标记存储关闭。
func (s *MemoryKV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
