package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileKV 实现了基于文件系统的 KV。
// 每个键对应 baseDir 下的一个 .json 文件，写入时先写临时文件再 rename，保证原子替换。
type FileKV struct {
	baseDir string
	mu      sync.RWMutex // 全局锁，保护文件系统操作并发安全
}

// NewFileKV 创建一个新的 FileKV。
// baseDir: 存储目录路径，不存在时自动创建。
func NewFileKV(baseDir string) (*FileKV, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileKV{baseDir: baseDir}, nil
}

// getFilePath 返回指定 key 的文件路径。
// 对 key 进行简单的清理以防路径遍历。
func (s *FileKV) getFilePath(key string) string {
	safeKey := filepath.Base(key)
	return filepath.Join(s.baseDir, safeKey+".json")
}

// Get 读取整个文件内容。
func (s *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.getFilePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Set 原子写入文件。
func (s *FileKV) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.getFilePath(key)
	tmp, err := os.CreateTemp(s.baseDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Delete 删除文件；文件不存在时忽略。
func (s *FileKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.getFilePath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close 对文件存储无操作。
func (s *FileKV) Close() error {
	return nil
}
