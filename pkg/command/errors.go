package command

import "errors"

// 定义命令解析与分发阶段的通用错误，便于统一处理提示文案。
var (
	// ErrCommandRequired 表示未提供任何命令关键字。
	ErrCommandRequired = errors.New("command required")
	// ErrNoExecutionContext 表示命令在 Manager 之外被直接执行。
	ErrNoExecutionContext = errors.New("command executed without execution context")
)
