package storage

import (
	"fmt"
	"path/filepath"
)

// Backend 名称。
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config 描述持久化后端的选择。
type Config struct {
	Backend string      `yaml:"backend"` // memory | file | bolt | redis | sqlite
	Dir     string      `yaml:"dir"`     // file 后端目录
	Path    string      `yaml:"path"`    // bolt / sqlite 数据库文件
	Bucket  string      `yaml:"bucket"`  // bolt bucket
	Redis   RedisConfig `yaml:"redis"`
}

// Open 根据配置创建 KV 后端。
//
// 逻辑流程:
//
//	Backend ──┬─ memory ─> MemoryKV
//	          ├─ file   ─> FileKV(Dir)
//	          ├─ bolt   ─> BoltKV(Path, Bucket)
//	          ├─ redis  ─> RedisKV(Redis)
//	          └─ sqlite ─> SQLiteKV(Path)
func Open(cfg Config) (KV, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryKV(), nil
	case BackendFile:
		dir := cfg.Dir
		if dir == "" {
			dir = "data"
		}
		return NewFileKV(dir)
	case BackendBolt:
		path := cfg.Path
		if path == "" {
			path = filepath.Join("data", "shopassist.bolt")
		}
		return NewBoltKV(path, cfg.Bucket)
	case BackendRedis:
		return NewRedisKV(cfg.Redis)
	case BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join("data", "shopassist.db")
		}
		return NewSQLiteKV(path)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
