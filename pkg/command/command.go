package command

import "github.com/spf13/cobra"

// CommandFactory 定义创建 Cobra 命令树的工厂函数类型。
// 每次输入都构建新的命令树，避免上一次解析留下的 Flag 状态影响本次执行。
type CommandFactory func() *cobra.Command
