package ai

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
)

// LangChainGateway 基于 langchaingo 的 llms.Model 实现 Gateway，
// 用于 google / anthropic 等非 OpenAI 兼容的提供方。
type LangChainGateway struct {
	llm   llms.Model
	model ModelConfig
}

// NewLangChainGateway 用已初始化的模型构造网关。
func NewLangChainGateway(llm llms.Model, m ModelConfig) *LangChainGateway {
	return &LangChainGateway{llm: llm, model: m}
}

// newLangChainModel 按提供方初始化 langchaingo 模型。
func newLangChainModel(ctx context.Context, m ModelConfig, apiKey string) (llms.Model, error) {
	switch m.Provider {
	case ProviderLangChainOpenAI:
		opts := []openai.Option{
			openai.WithToken(apiKey),
			openai.WithModel(m.ModelName),
		}
		if m.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(m.BaseURL))
		}
		return openai.New(opts...)
	case ProviderGoogle:
		return googleai.New(ctx,
			googleai.WithAPIKey(apiKey),
			googleai.WithDefaultModel(m.ModelName),
		)
	case ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithToken(apiKey),
			anthropic.WithModel(m.ModelName),
		}
		if m.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(m.BaseURL))
		}
		return anthropic.New(opts...)
	default:
		return nil, NewConfigError("unsupported provider: " + m.Provider)
	}
}

// Complete 实现 Gateway 接口。
func (g *LangChainGateway) Complete(ctx context.Context, messages []ChatMessage, strategy Strategy) (*Completion, error) {
	strategy = g.model.tune(strategy)

	var contents []llms.MessageContent
	for _, m := range ApplyStrategy(messages, strategy) {
		contents = append(contents, llms.TextParts(toLangChainRole(m.Role), m.Content))
	}

	resp, err := g.llm.GenerateContent(ctx, contents,
		llms.WithTemperature(strategy.Temperature),
		llms.WithMaxTokens(strategy.MaxTokens),
	)
	if err != nil {
		return nil, classifyLangChainError(err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return nil, NewMalformedResponse("response has no choices", nil)
	}

	choice := resp.Choices[0]
	return &Completion{
		Role:    chat.RoleAssistant,
		Content: strings.TrimSpace(choice.Content),
		Usage:   usageFromGenerationInfo(choice.GenerationInfo),
	}, nil
}

func toLangChainRole(r chat.Role) schema.ChatMessageType {
	switch r {
	case chat.RoleUser:
		return schema.ChatMessageTypeHuman
	case chat.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeSystem
	}
}

// classifyLangChainError 区分网络错误与远端拒绝；langchaingo 不暴露统一的状态码类型。
func classifyLangChainError(err error) *GatewayError {
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewTransportError(err)
	}
	return NewServiceError(0, err.Error(), err)
}

func usageFromGenerationInfo(info map[string]any) *Usage {
	if len(info) == 0 {
		return nil
	}
	u := &Usage{
		PromptTokens:     intField(info, "PromptTokens"),
		CompletionTokens: intField(info, "CompletionTokens"),
		TotalTokens:      intField(info, "TotalTokens"),
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	if u.TotalTokens == 0 {
		return nil
	}
	return u
}

func intField(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
