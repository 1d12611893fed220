// Package assistant 串联意图识别、提示策略与补全网关，完成一次带重试的发送。
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/ai"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/intent"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/observability"
)

const (
	// DefaultMaxAttempts 是默认总尝试次数（首次 + 2 次重试）。
	DefaultMaxAttempts = 3
	// DefaultBaseDelay 是默认重试基准延迟，第 n 次重试前等待 n × DefaultBaseDelay。
	DefaultBaseDelay = time.Second
)

// Sessions 是编排器依赖的会话能力，由 session.Manager 实现。
type Sessions interface {
	EnsureSession() (id string, started bool)
	AddMessage(role chat.Role, content string) chat.Message
	Messages() []chat.Message
	SetComposing(v bool)
	SaveCurrent(ctx context.Context) error
}

// Sleeper 在重试之间等待 d，ctx 取消时提前返回其错误。
type Sleeper func(ctx context.Context, d time.Duration) error

// Reply 是一次成功发送的结果。
type Reply struct {
	Message  chat.Message // 已追加到会话的助手消息
	Intent   intent.Intent
	Attempts int
	Usage    *ai.Usage
}

// Orchestrator 负责单用户的发送流程。同一时刻只允许一次发送。
type Orchestrator struct {
	sessions    Sessions
	gateway     ai.Gateway
	maxAttempts int
	baseDelay   time.Duration
	sleep       Sleeper
	limiter     *rate.Limiter
	hook        StateHook
	logger      *zap.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
	now         func() time.Time

	busy       *semaphore.Weighted
	mu         sync.Mutex
	state      State
	outcome    State
	retryCount atomic.Int32
}

// Option 自定义 Orchestrator 行为。
type Option func(*Orchestrator)

// WithMaxAttempts 设置总尝试次数，非正值忽略。
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithBaseDelay 设置重试基准延迟。
func WithBaseDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.baseDelay = d
		}
	}
}

// WithSleeper 替换重试等待函数，测试中用于消除真实延迟。
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithRateLimiter 在每次调用网关前等待令牌。
func WithRateLimiter(l *rate.Limiter) Option {
	return func(o *Orchestrator) {
		o.limiter = l
	}
}

// WithStateHook 订阅状态迁移。
func WithStateHook(h StateHook) Option {
	return func(o *Orchestrator) {
		o.hook = h
	}
}

// WithLogger 注入日志记录器。
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics 注入指标采集器。
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithRegisterer 在 reg 上创建并注册指标。注册失败时不采集指标。
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *Orchestrator) {
		m, err := observability.NewMetrics(reg)
		if err != nil {
			o.logger.Warn("metrics disabled", zap.Error(err))
			return
		}
		o.metrics = m
	}
}

// WithTracer 替换 tracer，默认使用全局 TracerProvider。
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// New 创建编排器。
func New(sessions Sessions, gateway ai.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions:    sessions,
		gateway:     gateway,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       sleepContext,
		logger:      zap.NewNop(),
		tracer:      observability.Tracer(),
		now:         time.Now,
		busy:        semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State 返回当前状态。发送结束后回到 StateIdle。
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastOutcome 返回最近一次发送的终态（StateSucceeded / StateFailed），尚未发送时为 StateIdle。
func (o *Orchestrator) LastOutcome() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome
}

// RetryCount 返回最近一次失败发送的重试次数，成功后归零。
func (o *Orchestrator) RetryCount() int {
	return int(o.retryCount.Load())
}

// Send 发送一条用户消息并等待助手回复。
//
// 逻辑流程:
//
//	校验/占用 ─> 确保会话 ─> 追加用户消息 ─> 识别意图 ─> 选择策略
//	   ─> [等待限流] ─> 调用网关 ──┬─ 成功 ─> 追加助手消息 ─> 归档
//	                             ├─ 可重试且未耗尽 ─> 等待 n × base ─> 再次调用
//	                             └─ 其他 ─> *SendError
//
// ctx 取消时丢弃迟到的结果，会话中只保留用户消息。
func (o *Orchestrator) Send(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !o.busy.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer o.busy.Release(1)
	defer o.transition(Event{State: StateIdle})

	ctx, span := o.tracer.Start(ctx, "assistant.send")
	defer span.End()
	start := o.now()

	sessionID, started := o.sessions.EnsureSession()
	if started {
		o.logger.Debug("session started before send", zap.String("session_id", sessionID))
	}
	o.sessions.AddMessage(chat.RoleUser, text)

	o.sessions.SetComposing(true)
	defer o.sessions.SetComposing(false)

	o.transition(Event{State: StateClassifying})
	in := intent.Classify(text)
	strategy := ai.StrategyFor(in)
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("intent.kind", string(in.Kind)),
	)
	logger := o.logger.With(zap.String("session_id", sessionID), zap.String("intent", string(in.Kind)))

	history := ai.FromMessages(o.sessions.Messages())
	reply, attempts, err := o.dispatch(ctx, logger, history, strategy)
	span.SetAttributes(attribute.Int("attempts", attempts))

	if err != nil {
		o.retryCount.Store(int32(max(attempts-1, 0)))
		o.metrics.RecordSend(string(in.Kind), outcomeOf(err), o.now().Sub(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.transition(Event{State: StateFailed, Attempt: attempts, MaxAttempts: o.maxAttempts, Err: err})
		return nil, err
	}

	msg := o.sessions.AddMessage(chat.RoleAssistant, reply.Content)
	o.retryCount.Store(0)
	if err := o.sessions.SaveCurrent(ctx); err != nil {
		logger.Warn("archive current session failed", zap.Error(err))
	}

	o.metrics.RecordSend(string(in.Kind), "ok", o.now().Sub(start))
	o.transition(Event{State: StateSucceeded, Attempt: attempts, MaxAttempts: o.maxAttempts})
	logger.Info("reply delivered", zap.Int("attempts", attempts))

	return &Reply{
		Message:  msg,
		Intent:   in,
		Attempts: attempts,
		Usage:    reply.Usage,
	}, nil
}

// dispatch 在重试预算内调用网关。
// 返回的 error 为 ctx 错误、ErrInterrupted 或 *SendError。
func (o *Orchestrator) dispatch(ctx context.Context, logger *zap.Logger, history []ai.ChatMessage, strategy ai.Strategy) (*ai.Completion, int, error) {
	var lastErr error
	attempts := 0

	for attempts < o.maxAttempts {
		if attempts > 0 {
			o.metrics.RecordRetry()
			o.transition(Event{State: StateRetrying, Attempt: attempts, MaxAttempts: o.maxAttempts, Err: lastErr})
			if err := o.sleep(ctx, time.Duration(attempts)*o.baseDelay); err != nil {
				return nil, attempts, cancelled(ctx, err)
			}
		}
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return nil, attempts, cancelled(ctx, err)
			}
		}

		attempts++
		o.transition(Event{State: StateDispatching, Attempt: attempts, MaxAttempts: o.maxAttempts})
		completion, err := o.gateway.Complete(ctx, history, strategy)
		if ctxErr := ctx.Err(); ctxErr != nil {
			// 迟到的结果一律丢弃
			return nil, attempts, fmt.Errorf("send cancelled: %w", ctxErr)
		}
		if err == nil {
			o.metrics.RecordAttempt("ok")
			return completion, attempts, nil
		}

		lastErr = err
		o.metrics.RecordAttempt(kindLabel(err))
		logger.Warn("completion attempt failed",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", o.maxAttempts),
			zap.Error(err))

		if !retryable(err) {
			break
		}
	}

	return nil, attempts, &SendError{Attempts: attempts, Err: lastErr}
}

func (o *Orchestrator) transition(ev Event) {
	o.mu.Lock()
	o.state = ev.State
	if ev.State == StateSucceeded || ev.State == StateFailed {
		o.outcome = ev.State
	}
	o.mu.Unlock()
	if o.hook != nil {
		o.hook(ev)
	}
}

// retryable 未分类的错误按网络错误处理。
func retryable(err error) bool {
	var gwErr *ai.GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Retryable()
	}
	return true
}

func kindLabel(err error) string {
	if kind, ok := ai.KindOf(err); ok {
		return kind.String()
	}
	return ai.KindTransport.String()
}

func outcomeOf(err error) string {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return kindLabel(sendErr.Err)
	}
	return "cancelled"
}

func cancelled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("send cancelled: %w", ctxErr)
	}
	return fmt.Errorf("%w: %w", ErrInterrupted, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
