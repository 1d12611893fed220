package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
)

// OpenAIGateway 通过 OpenAI 兼容的 /chat/completions 接口完成补全（非流式）。
//
// 请求体: {model, messages, temperature, max_tokens}，Authorization: Bearer <key>。
// stream 字段为 false，go-openai 按 omitempty 省略，服务端默认即非流式。
type OpenAIGateway struct {
	client *openai.Client
	model  ModelConfig
	apiKey string
	logger *zap.Logger
}

// GatewayOption 自定义网关行为。
type GatewayOption func(*gatewayOptions)

type gatewayOptions struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// WithHTTPClient 注入自定义 HTTP 客户端。
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(o *gatewayOptions) {
		o.httpClient = c
	}
}

// WithGatewayLogger 注入日志记录器。
func WithGatewayLogger(l *zap.Logger) GatewayOption {
	return func(o *gatewayOptions) {
		o.logger = l
	}
}

func buildGatewayOptions(m ModelConfig, opts []GatewayOption) gatewayOptions {
	o := gatewayOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: m.timeout()}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// NewOpenAIGateway 创建网关。
// 密钥缺失或为占位符时仍返回实例，每次调用都以 KindConfig 失败，由调用方提示用户先完成配置。
func NewOpenAIGateway(m ModelConfig, opts ...GatewayOption) *OpenAIGateway {
	o := buildGatewayOptions(m, opts)
	apiKey := resolveAPIKey(m.APIKey)

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DefaultBaseURL
	if m.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(m.BaseURL, "/")
	}
	cfg.HTTPClient = o.httpClient

	if m.ModelName == "" {
		m.ModelName = DefaultModelName
	}

	return &OpenAIGateway{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
		apiKey: apiKey,
		logger: o.logger.With(zap.String("model", m.ModelName)),
	}
}

// Complete 实现 Gateway 接口。
func (g *OpenAIGateway) Complete(ctx context.Context, messages []ChatMessage, strategy Strategy) (*Completion, error) {
	if !usableKey(g.apiKey) {
		return nil, NewConfigError("API key is not configured for model " + g.model.Name)
	}

	strategy = g.model.tune(strategy)
	req := openai.ChatCompletionRequest{
		Model:       g.model.ModelName,
		Messages:    toOpenAIMessages(ApplyStrategy(messages, strategy)),
		Stream:      false,
		Temperature: float32(strategy.Temperature),
		MaxTokens:   strategy.MaxTokens,
	}

	g.logger.Debug("chat completion request",
		zap.String("strategy", strategy.Name),
		zap.Int("messages", len(req.Messages)))

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewMalformedResponse("response has no choices", nil)
	}
	msg := resp.Choices[0].Message
	if msg.Role == "" && msg.Content == "" {
		return nil, NewMalformedResponse("choices[0].message is missing", nil)
	}

	out := &Completion{
		Role:    chat.RoleAssistant,
		Content: strings.TrimSpace(msg.Content),
	}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

func toOpenAIMessages(msgs []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// classifyOpenAIError 将 go-openai 的错误映射到网关错误分类。
//
//	*url.Error / net.Error ─> Transport（连接被断开、超时、取消）
//	*openai.APIError       ─> Service（远端给出的 error.message）
//	*openai.RequestError   ─> Service（错误体无法解析，仅有状态码）
//	JSON 解码失败/空响应体    ─> MalformedResponse
//	其他                    ─> Transport
func classifyOpenAIError(err error) *GatewayError {
	// HTTP 客户端的错误可能包装 io.EOF，必须先于解码错误判断
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return NewTransportError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewServiceError(apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return NewServiceError(reqErr.HTTPStatusCode, msg, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF) {
		return NewMalformedResponse("response body is not valid JSON", err)
	}

	return NewTransportError(err)
}
