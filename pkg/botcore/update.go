// Package botcore 定义输入事件、回复片段与路由链。
//
// 每行输入被规范化为 Update，经 Chain 路由到斜杠命令或购物助手流水线，
// 处理结果以 Reply 片段的形式写回。
package botcore

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Update 描述一次标准化的用户输入。
type Update struct {
	ID         string            // 输入事件 ID
	Source     string            // 输入来源，示例：repl / ask
	Text       string            // 去除首尾空白后的文本
	ReceivedAt time.Time         // 接收时间
	Metadata   map[string]string // 扩展键值
}

// CloneMetadata 返回一份 Metadata 拷贝，防止 Handler 意外修改底层数据。
func (u Update) CloneMetadata() map[string]string {
	if len(u.Metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(u.Metadata))
	for k, v := range u.Metadata {
		out[k] = v
	}
	return out
}

// Adapter 将原始输入映射为标准 Update。
type Adapter interface {
	Normalize(raw string) (Update, error)
}

// AdapterFunc 允许直接以函数形式实现 Adapter。
type AdapterFunc func(raw string) (Update, error)

// Normalize 实现 Adapter 接口。
func (f AdapterFunc) Normalize(raw string) (Update, error) {
	if f == nil {
		return Update{}, nil
	}
	return f(raw)
}

// LineAdapter 把一行终端输入转换为 Update。
func LineAdapter(source string) Adapter {
	return AdapterFunc(func(raw string) (Update, error) {
		return Update{
			ID:         uuid.NewString(),
			Source:     source,
			Text:       strings.TrimSpace(raw),
			ReceivedAt: time.Now(),
		}, nil
	})
}
