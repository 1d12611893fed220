package assistant

import (
	"context"
	"errors"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
)

// NetworkHint 在发送经历过重试后失败时附加显示。
const NetworkHint = "💡 网络不稳定？试试重新发送或检查网络连接"

// Trigger 满足 botcore.PipelineInvoker：发送 update.Text 并以回复片段返回结果。
func (o *Orchestrator) Trigger(ctx context.Context, update botcore.Update) <-chan botcore.Reply {
	out := make(chan botcore.Reply, 2)
	go func() {
		defer close(out)

		reply, err := o.Send(ctx, update.Text)
		if err == nil {
			out <- botcore.Reply{Kind: botcore.ReplyMarkdown, Content: reply.Message.Content, IsFinal: true}
			return
		}

		var sendErr *SendError
		switch {
		case errors.Is(err, ErrEmptyMessage):
			out <- botcore.Reply{Kind: botcore.ReplyNotice, Content: "请输入消息内容", IsFinal: true}
		case errors.Is(err, ErrBusy):
			out <- botcore.Reply{Kind: botcore.ReplyNotice, Content: "小购正在为您分析中，请稍候...", IsFinal: true}
		case errors.As(err, &sendErr):
			if sendErr.Attempts > 1 {
				out <- botcore.Reply{Kind: botcore.ReplyNotice, Content: NetworkHint}
			}
			out <- botcore.Reply{Kind: botcore.ReplyError, Content: sendErr.Notice(), IsFinal: true}
		case errors.Is(err, ErrInterrupted):
			out <- botcore.Reply{Kind: botcore.ReplyError, Content: "发送被中断，请稍后重试", IsFinal: true}
		default:
			out <- botcore.Reply{Kind: botcore.ReplyNotice, Content: "已取消发送", IsFinal: true}
		}
	}()
	return out
}
