// Package observability 集中构建日志、指标与链路追踪组件。
package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig 是日志配置。
type LoggingConfig struct {
	Level       string   `yaml:"level"`        // debug / info / warn / error
	Development bool     `yaml:"development"`  // 开发模式使用彩色控制台格式
	Encoding    string   `yaml:"encoding"`     // json / console，空值随模式而定
	OutputPaths []string `yaml:"output_paths"` // 默认 stderr
}

// NewLogger 按配置构建 zap.Logger。
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}
	return zc.Build()
}
