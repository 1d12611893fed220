package ai

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Registry 按配置名称创建并缓存网关实例。
type Registry struct {
	config *Config
	opts   []GatewayOption
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]Gateway
}

// NewRegistry 创建网关注册表。
func NewRegistry(config *Config, opts ...GatewayOption) *Registry {
	o := buildGatewayOptions(ModelConfig{}, opts)
	return &Registry{
		config: config,
		opts:   opts,
		logger: o.logger,
		cache:  make(map[string]Gateway),
	}
}

// Gateway 获取网关实例。
// 如果缓存中存在则直接返回，否则按配置初始化并缓存。
//
// 逻辑流程:
// Check Cache -> (Hit) -> Return
//
//	  |
//	(Miss)
//	  v
//
// Find ModelConfig -> Init Provider (go-openai / langchaingo) -> Update Cache -> Return
func (r *Registry) Gateway(ctx context.Context, name string) (Gateway, error) {
	if name == "" {
		name = r.config.DefaultModel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if gw, ok := r.cache[name]; ok {
		return gw, nil
	}

	cfg, ok := r.config.Find(name)
	if !ok {
		return nil, NewConfigError(fmt.Sprintf("model '%s' not found in configuration", name))
	}

	gw, err := r.build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r.cache[name] = gw
	r.logger.Info("completion gateway ready",
		zap.String("name", cfg.Name),
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.ModelName))
	return gw, nil
}

func (r *Registry) build(ctx context.Context, cfg ModelConfig) (Gateway, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIGateway(cfg, r.opts...), nil
	case ProviderLangChainOpenAI, ProviderGoogle, ProviderAnthropic:
		apiKey := resolveAPIKey(cfg.APIKey)
		if !usableKey(apiKey) {
			// 与 OpenAIGateway 一致：未配置密钥时在调用时报告 KindConfig
			return unconfigured(cfg.Name), nil
		}
		llm, err := newLangChainModel(ctx, cfg, apiKey)
		if err != nil {
			return nil, NewConfigError(fmt.Sprintf("failed to create model provider: %v", err))
		}
		return NewLangChainGateway(llm, cfg), nil
	default:
		return nil, NewConfigError("unsupported provider: " + cfg.Provider)
	}
}

func unconfigured(name string) Gateway {
	return GatewayFunc(func(context.Context, []ChatMessage, Strategy) (*Completion, error) {
		return nil, NewConfigError("API key is not configured for model " + name)
	})
}

// NewGateway 是不需要缓存时的便捷入口。
func NewGateway(ctx context.Context, config *Config, name string, opts ...GatewayOption) (Gateway, error) {
	return NewRegistry(config, opts...).Gateway(ctx, name)
}
