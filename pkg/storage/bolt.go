package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const defaultBoltBucket = "shopassist"

// BoltKV 使用单个 bbolt 文件中的一个 bucket 保存键值。
type BoltKV struct {
	db     *bolt.DB
	bucket []byte
}

// NewBoltKV 打开（必要时创建）path 处的 bbolt 数据库。
func NewBoltKV(path, bucket string) (*BoltKV, error) {
	if bucket == "" {
		bucket = defaultBoltBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltKV{db: db, bucket: []byte(bucket)}, nil
}

// Get 读取键值。bbolt 返回的切片只在事务内有效，因此需要复制。
func (s *BoltKV) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		out = cloneBytes(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set 写入键值。
func (s *BoltKV) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
}

// Delete 删除键。
func (s *BoltKV) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Close 关闭数据库文件。
func (s *BoltKV) Close() error {
	return s.db.Close()
}
