// Package config 读取应用的 YAML 配置文件。
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/ai"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/history"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/observability"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/storage"
)

// RetryConfig 控制补全失败后的重试。
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"` // 总尝试次数（含首次）
	BaseDelay   time.Duration `yaml:"base_delay"`   // 第 n 次重试前等待 n × BaseDelay
}

// RateLimitConfig 限制向补全服务发起请求的速率，RequestsPerSecond 为 0 表示不限速。
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Config 是应用的完整配置。
// 模型相关字段（default_model / models）位于顶层。
type Config struct {
	ai.Config       `yaml:",inline"`
	Retry           RetryConfig                 `yaml:"retry"`
	RateLimit       RateLimitConfig             `yaml:"rate_limit"`
	Storage         storage.Config              `yaml:"storage"`
	Logging         observability.LoggingConfig `yaml:"logging"`
	ArchiveCapacity int                         `yaml:"archive_capacity"`
}

// DefaultPath 是未指定 --config 时读取的配置文件。
const DefaultPath = "config.yaml"

// DefaultDataDir 是默认 file 后端的数据目录。
const DefaultDataDir = "data"

// Default 返回未提供配置文件时使用的配置。
func Default() *Config {
	cfg := &Config{Config: ai.DefaultConfig()}
	cfg.ApplyDefaults()
	return cfg
}

// Load 读取并解析 YAML 配置文件，随后补齐默认值。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault 在 path 为空或文件不存在时返回默认配置。
// 仅用于隐式的默认路径；用户显式指定的路径应使用 Load，缺失即报错。
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyDefaults 为未设置的字段填充默认值。
func (c *Config) ApplyDefaults() {
	if len(c.Models) == 0 {
		c.Config = ai.DefaultConfig()
	}
	if c.DefaultModel == "" {
		c.DefaultModel = c.Models[0].Name
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = time.Second
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 1
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = storage.BackendFile
	}
	if c.Storage.Backend == storage.BackendFile && c.Storage.Dir == "" {
		c.Storage.Dir = DefaultDataDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.ArchiveCapacity <= 0 {
		c.ArchiveCapacity = history.DefaultCapacity
	}
}

// Validate 检查配置的一致性。
func (c *Config) Validate() error {
	if _, ok := c.Find(c.DefaultModel); !ok {
		return fmt.Errorf("default_model %q is not defined in models", c.DefaultModel)
	}
	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.Name == "" {
			return errors.New("model entry without name")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate model name %q", m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}
