package ai

import (
	"os"
	"strings"
	"time"
)

// Provider 名称。
const (
	ProviderOpenAI          = "openai"           // OpenAI 兼容接口（Moonshot 等），go-openai 直连
	ProviderLangChainOpenAI = "langchain-openai" // 经 langchaingo 调用 OpenAI 兼容接口
	ProviderGoogle          = "google"
	ProviderAnthropic       = "anthropic"
)

const (
	// DefaultBaseURL 是默认的 OpenAI 兼容接口地址（Moonshot）。
	DefaultBaseURL = "https://api.moonshot.cn/v1"
	// DefaultModelName 是默认模型。
	DefaultModelName = "moonshot-v1-auto"
	// placeholderAPIKey 是示例配置中的占位密钥，视同未配置。
	placeholderAPIKey = "your_kimi_api_key_here"

	defaultTimeout = 60 * time.Second
)

// ModelConfig defines the configuration for a single LLM.
type ModelConfig struct {
	Name      string        `json:"name" yaml:"name"`                             // e.g., "kimi", "gpt-4o"
	Provider  string        `json:"provider" yaml:"provider"`                     // e.g., "openai", "google", "anthropic"
	APIKey    string        `json:"api_key" yaml:"api_key"`                       // Environment variable reference or direct key
	BaseURL   string        `json:"base_url,omitempty" yaml:"base_url,omitempty"` // Optional: for custom endpoints
	ModelName string        `json:"model_name" yaml:"model_name"`                 // The specific model ID (e.g., "moonshot-v1-auto")
	MaxTokens int           `json:"max_tokens" yaml:"max_tokens"`                 // Overrides the strategy's max output tokens when > 0
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`                       // HTTP timeout per request
}

// Config holds the model section of the application configuration.
type Config struct {
	DefaultModel string        `json:"default_model" yaml:"default_model"`
	Models       []ModelConfig `json:"models" yaml:"models"`
}

// DefaultConfig 返回只包含 Moonshot 模型的默认配置，密钥取自环境变量 KIMI_API_KEY。
func DefaultConfig() Config {
	return Config{
		DefaultModel: "kimi",
		Models: []ModelConfig{{
			Name:      "kimi",
			Provider:  ProviderOpenAI,
			APIKey:    "env:KIMI_API_KEY",
			BaseURL:   DefaultBaseURL,
			ModelName: DefaultModelName,
		}},
	}
}

// Find 按名称查找模型配置；name 为空时使用 DefaultModel。
func (c *Config) Find(name string) (ModelConfig, bool) {
	if name == "" {
		name = c.DefaultModel
	}
	for _, m := range c.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// resolveAPIKey 解析 API 密钥。
// 如果密钥以 "env:" 开头，则从环境变量中获取实际值。
func resolveAPIKey(key string) string {
	if strings.HasPrefix(key, "env:") {
		return os.Getenv(strings.TrimPrefix(key, "env:"))
	}
	return key
}

// usableKey 判断密钥是否可用：非空且不是示例占位符。
func usableKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != placeholderAPIKey
}

// tune 用模型级覆盖值调整策略参数；温度由意图决定，不允许覆盖。
func (m ModelConfig) tune(s Strategy) Strategy {
	if m.MaxTokens > 0 {
		s.MaxTokens = m.MaxTokens
	}
	return s
}

func (m ModelConfig) timeout() time.Duration {
	if m.Timeout > 0 {
		return m.Timeout
	}
	return defaultTimeout
}
