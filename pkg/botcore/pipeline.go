package botcore

import "context"

// ReplyKind 区分回复片段的呈现方式。
type ReplyKind int

const (
	// ReplyText 是普通文本，原样输出。
	ReplyText ReplyKind = iota
	// ReplyMarkdown 是助手回答，终端按 Markdown 渲染。
	ReplyMarkdown
	// ReplyNotice 是一次性的提示（重试中、网络不稳定等）。
	ReplyNotice
	// ReplyError 是失败提示。
	ReplyError
)

// Reply 描述一段输出。
type Reply struct {
	Kind    ReplyKind
	Content string
	IsFinal bool
}

// PipelineInvoker 抽象命令/业务执行器。
// 返回的通道在处理完成后关闭，最后一个片段的 IsFinal 为 true。
type PipelineInvoker interface {
	Trigger(ctx context.Context, update Update) <-chan Reply
}

// PipelineFunc 便于直接以函数充当 PipelineInvoker。
type PipelineFunc func(ctx context.Context, update Update) <-chan Reply

// Trigger 实现 PipelineInvoker 接口。
func (f PipelineFunc) Trigger(ctx context.Context, update Update) <-chan Reply {
	if f == nil {
		return nil
	}
	return f(ctx, update)
}

// Emitter 将回复片段输出到具体终端。
type Emitter interface {
	Emit(update Update, reply Reply) error
}

// EmitterFunc 允许直接用函数实现。
type EmitterFunc func(update Update, reply Reply) error

// Emit 实现 Emitter 接口。
func (f EmitterFunc) Emit(update Update, reply Reply) error {
	if f == nil {
		return nil
	}
	return f(update, reply)
}

// Drain 读取通道中的全部片段并交给 Emitter，返回第一个输出错误。
func Drain(update Update, ch <-chan Reply, emitter Emitter) error {
	var firstErr error
	for reply := range ch {
		if err := emitter.Emit(update, reply); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
