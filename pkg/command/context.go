package command

import (
	"context"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/session"
)

// keyExecutionContext 是 context.Context 中存储 ExecutionContext 的键。
type keyExecutionContext struct{}

// ExecutionContext 为命令 handler 提供必要的环境信息。
type ExecutionContext struct {
	Update   botcore.Update
	Sessions *session.Manager
	Args     ParseResult

	// sendSignal 允许命令立即向流水线发送一个终结片段
	sendSignal func(reply botcore.Reply)
}

// Notify 立即发送终结提示，之后的默认结束片段不再发送。
func (ctx *ExecutionContext) Notify(kind botcore.ReplyKind, content string) {
	if ctx.sendSignal != nil {
		ctx.sendSignal(botcore.Reply{Kind: kind, Content: content, IsFinal: true})
	}
}

// WithExecutionContext 将 ExecutionContext 注入到标准 context.Context 中。
func WithExecutionContext(ctx context.Context, execCtx *ExecutionContext) context.Context {
	return context.WithValue(ctx, keyExecutionContext{}, execCtx)
}

// FromContext 从标准 context.Context 中提取 ExecutionContext。
func FromContext(ctx context.Context) *ExecutionContext {
	if ctx == nil {
		return nil
	}
	val, _ := ctx.Value(keyExecutionContext{}).(*ExecutionContext)
	return val
}
