// Package storage 定义持久化键值存储的读写契约及其后端实现。
//
// 会话核心只依赖 KV 接口；具体落盘方式（内存、文件、bbolt、Redis、SQLite）由配置决定。
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound 表示键不存在。
	ErrNotFound = errors.New("storage: key not found")
	// ErrClosed 表示存储已关闭。
	ErrClosed = errors.New("storage: closed")
	// ErrEmptyKey 表示调用方传入了空键。
	ErrEmptyKey = errors.New("storage: empty key")
)

// KV 是持久化键值存储的最小契约，值为 JSON 编码后的字节。
// 写入语义为 last-writer-wins，不提供事务隔离。
type KV interface {
	// Get 读取键值；键不存在时返回 ErrNotFound。
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入（覆盖）键值。
	Set(ctx context.Context, key string, value []byte) error

	// Delete 删除键；键不存在时不报错。
	Delete(ctx context.Context, key string) error

	// Close 释放底层资源。
	Close() error
}

func cloneBytes(src []byte) []byte {
	if src == nil {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}
