package command

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/session"
)

const commandLogSnippet = 256

// Manager 实现 PipelineInvoker，负责串联解析、构建 Cobra 命令树并执行。
type Manager struct {
	factory  CommandFactory
	parser   Parser
	sessions *session.Manager
	logger   *zap.Logger
}

// ManagerOption 自定义 Manager 行为。
type ManagerOption func(*Manager)

// WithLogger 注入自定义日志记录器。
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithParser 替换命令解析器。
func WithParser(p Parser) ManagerOption {
	return func(m *Manager) {
		m.parser = p
	}
}

// NewManager 绑定命令工厂与会话管理器，返回实现 PipelineInvoker 的管理器。
func NewManager(factory CommandFactory, sessions *session.Manager, opts ...ManagerOption) *Manager {
	mgr := &Manager{
		factory:  factory,
		parser:   NewParser(),
		sessions: sessions,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Trigger 满足 botcore.PipelineInvoker，为每次输入构建独立的命令树并执行。
func (m *Manager) Trigger(ctx context.Context, update botcore.Update) <-chan botcore.Reply {
	out := make(chan botcore.Reply, 1)
	go func() {
		defer close(out)

		if m == nil || m.factory == nil {
			out <- botcore.Reply{Kind: botcore.ReplyError, Content: "Error: Command Manager not initialized", IsFinal: true}
			return
		}

		// 1. 初步解析
		parsed, err := m.parser.ParseCommand(update.Text)
		if err != nil {
			m.logger.Debug("no command in input", zap.Error(err))
			out <- botcore.Reply{Kind: botcore.ReplyNotice, Content: commandRequiredNotice(update.Text, m.parser), IsFinal: true}
			return
		}

		// 2. 创建 Cobra 命令树
		rootCmd := m.factory()

		// 3. 配置 IO 重定向
		writer := NewStreamWriter(out)
		rootCmd.SetOut(writer)
		rootCmd.SetErr(writer)
		rootCmd.CompletionOptions.DisableDefaultCmd = true

		// 4. 准备上下文，终结片段只发送一次
		var signalOnce sync.Once
		sendSignal := func(reply botcore.Reply) {
			signalOnce.Do(func() {
				out <- reply
			})
		}

		execCtx := &ExecutionContext{
			Update:     update,
			Sessions:   m.sessions,
			Args:       parsed,
			sendSignal: sendSignal,
		}
		cmdCtx := WithExecutionContext(ctx, execCtx)

		// 5. 设置参数并执行
		args := parsed.Tokens
		// 如果第一个 token 匹配 root command 的 name，移除它以避免 "unknown command X for X" 错误
		if len(args) > 0 && strings.EqualFold(args[0], rootCmd.Name()) {
			args = args[1:]
		}
		rootCmd.SetArgs(args)
		m.logger.Debug("executing command",
			zap.Strings("args", args),
			zap.String("raw", truncateForLog(parsed.Raw, commandLogSnippet)))

		if err := rootCmd.ExecuteContext(cmdCtx); err != nil {
			m.logger.Warn("command execution error", zap.Error(err))
			sendSignal(botcore.Reply{Kind: botcore.ReplyError, Content: fmt.Sprintf("❌ 执行出错: %v", err), IsFinal: true})
			return
		}

		sendSignal(botcore.Reply{IsFinal: true})
	}()
	return out
}

// commandRequiredNotice 区分空输入（含单独的前缀）与非命令文本。
func commandRequiredNotice(text string, p Parser) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == p.Prefix {
		return "请输入命令 (e.g. /help)"
	}
	return fmt.Sprintf("未识别的命令: %s\n请尝试 /help", trimmed)
}

// truncateForLog 限制日志中输出的文本长度。
func truncateForLog(src string, limit int) string {
	if limit <= 0 || len(src) <= limit {
		return src
	}
	return fmt.Sprintf("%s...(truncated)", src[:limit])
}
