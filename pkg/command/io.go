package command

import (
	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
)

// StreamWriter 实现 io.Writer 接口，将输出重定向到 Reply 通道。
// Cobra 命令像操作 stdout 一样打印，结果逐段传给调用方。
type StreamWriter struct {
	Ch chan<- botcore.Reply
}

// NewStreamWriter 创建一个新的 StreamWriter。
func NewStreamWriter(ch chan<- botcore.Reply) *StreamWriter {
	return &StreamWriter{Ch: ch}
}

// Write 将字节切片转换为 Reply 发送。
func (w *StreamWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.Ch <- botcore.Reply{
		Kind:    botcore.ReplyText,
		Content: string(p),
	}
	return len(p), nil
}
