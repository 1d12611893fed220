package assistant

import (
	"errors"
	"fmt"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/ai"
)

var (
	// ErrEmptyMessage 表示输入为空或仅包含空白。
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy 表示已有一次发送在进行中。
	ErrBusy = errors.New("another send is in flight")
	// ErrInterrupted 表示发送在调用网关之前被非取消原因中断（如限流器拒绝）。
	ErrInterrupted = errors.New("send interrupted")
)

// SendError 表示一次发送最终失败（重试耗尽或遇到不可重试错误）。
// 用户消息仍保留在当前会话中。
type SendError struct {
	Attempts int   // 实际调用网关的次数
	Err      error // 最后一次网关错误
}

// Error 实现 error 接口。
func (e *SendError) Error() string {
	return fmt.Sprintf("send failed after %d attempt(s): %v", e.Attempts, e.Err)
}

// Unwrap 暴露最后一次网关错误，支持 errors.Is(err, ai.ErrConfig) 等判断。
func (e *SendError) Unwrap() error {
	return e.Err
}

// Notice 返回面向用户的提示文案。
func (e *SendError) Notice() string {
	var gwErr *ai.GatewayError
	if !errors.As(e.Err, &gwErr) {
		return "网络连接错误，请检查网络后重试"
	}
	switch gwErr.Kind {
	case ai.KindConfig:
		return "请先配置 API Key（models[].api_key）"
	case ai.KindService:
		msg := gwErr.Message
		if msg == "" {
			msg = "未知错误"
		}
		return "API调用失败: " + msg
	case ai.KindMalformedResponse:
		return "AI服务返回了无法识别的响应，请稍后重试"
	default:
		return "网络连接错误，请检查网络后重试"
	}
}
