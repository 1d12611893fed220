package command

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/history"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/intent"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/session"
)

const timeLayout = "2006-01-02 15:04"

// NewRootCommand 构建会话操作的斜杠命令树，可直接作为 CommandFactory 使用。
//
//	/new /history /load /delete /clear /clear-history
//	/export /stats /prefs /quick /intent /help
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopassist",
		Short:         "购物助手会话命令",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSessionCmd(),
		historyCmd(),
		loadCmd(),
		deleteCmd(),
		clearCmd(),
		clearHistoryCmd(),
		exportCmd(),
		statsCmd(),
		prefsCmd(),
		quickCmd(),
		intentCmd(),
	)
	return root
}

// mustExec 取出 ExecutionContext，缺失时返回 ErrNoExecutionContext。
func mustExec(cmd *cobra.Command) (*ExecutionContext, error) {
	execCtx := FromContext(cmd.Context())
	if execCtx == nil || execCtx.Sessions == nil {
		return nil, ErrNoExecutionContext
	}
	return execCtx, nil
}

// resolveHistoryID 支持直接输入 ID，或 /history 列表中的序号（从 1 开始）。
func resolveHistoryID(sessions *session.Manager, ref string) string {
	if n, err := strconv.Atoi(ref); err == nil {
		entries := sessions.History()
		if n >= 1 && n <= len(entries) {
			return entries[n-1].ID
		}
	}
	return ref
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "新建对话（当前对话自动归档）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			id, err := execCtx.Sessions.NewSession(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("已开启新对话 %s\n", id)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "列出历史对话",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			cmd.Print(FormatHistory(execCtx.Sessions.History(), execCtx.Sessions.CurrentSessionID()))
			return nil
		},
	}
}

// FormatHistory 将历史记录格式化为列表，当前会话以 * 标记。
func FormatHistory(entries []history.Entry, currentID string) string {
	if len(entries) == 0 {
		return "暂无历史记录\n"
	}
	var b strings.Builder
	for i, e := range entries {
		marker := " "
		if e.ID == currentID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s%2d. %s  %s（%d 条消息，%s）\n",
			marker, i+1, e.Title, e.ID, len(e.Messages), e.UpdatedAt.Local().Format(timeLayout))
	}
	return b.String()
}

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <id|序号>",
		Short: "加载历史对话",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			id := resolveHistoryID(execCtx.Sessions, args[0])
			if err := execCtx.Sessions.LoadHistorySession(id); err != nil {
				if errors.Is(err, session.ErrNotFound) {
					execCtx.Notify(botcore.ReplyNotice, "未找到历史记录: "+args[0])
					return nil
				}
				return err
			}
			cmd.Printf("已加载对话 %s（%d 条消息）\n", id, len(execCtx.Sessions.Messages()))
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|序号>",
		Short: "删除历史对话",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			id := resolveHistoryID(execCtx.Sessions, args[0])
			if err := execCtx.Sessions.DeleteHistory(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("已删除 %s\n", id)
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "清空当前对话并重新开始",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			execCtx.Sessions.ClearMessages()
			execCtx.Sessions.StartNewSession()
			cmd.Println("已清空对话")
			return nil
		},
	}
}

func clearHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-history",
		Short: "清空全部历史记录",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			if err := execCtx.Sessions.ClearAllHistory(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("已清空历史记录")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "导出当前对话为文本文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := execCtx.Sessions.Export(&buf); err != nil {
				if errors.Is(err, session.ErrEmptyConversation) {
					execCtx.Notify(botcore.ReplyNotice, "当前没有对话内容")
					return nil
				}
				return err
			}

			path := execCtx.Sessions.ExportFileName()
			if len(args) == 1 {
				path = args[0]
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			cmd.Printf("对话已导出: %s\n", path)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "查看消息统计",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			s := execCtx.Sessions.Stats()
			last := "-"
			if s.LastActiveTime != nil {
				last = s.LastActiveTime.Local().Format(timeLayout)
			}
			cmd.Printf("消息总数: %d\n用户消息: %d\n助手消息: %d\n历史会话: %d\n最后活跃: %s\n",
				s.TotalMessages, s.UserMessages, s.AssistantMessages, s.TotalSessions, last)
			return nil
		},
	}
}

func prefsCmd() *cobra.Command {
	var quickReplies, sound, autoScroll bool
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "查看或修改偏好设置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}

			var patch session.PreferencesPatch
			if cmd.Flags().Changed("quick-replies") {
				patch.QuickReplies = &quickReplies
			}
			if cmd.Flags().Changed("sound") {
				patch.SoundEnabled = &sound
			}
			if cmd.Flags().Changed("auto-scroll") {
				patch.AutoScroll = &autoScroll
			}

			prefs := execCtx.Sessions.Preferences()
			if patch != (session.PreferencesPatch{}) {
				if prefs, err = execCtx.Sessions.UpdatePreferences(cmd.Context(), patch); err != nil {
					return err
				}
			}
			cmd.Printf("快捷提问: %s\n提示音: %s\n自动滚动: %s\n",
				onOff(prefs.QuickReplies), onOff(prefs.SoundEnabled), onOff(prefs.AutoScroll))
			return nil
		},
	}
	cmd.Flags().BoolVar(&quickReplies, "quick-replies", true, "显示快捷提问")
	cmd.Flags().BoolVar(&sound, "sound", false, "启用提示音")
	cmd.Flags().BoolVar(&autoScroll, "auto-scroll", true, "自动滚动到最新消息")
	return cmd
}

func onOff(v bool) string {
	if v {
		return "开"
	}
	return "关"
}

func quickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quick",
		Short: "列出快捷提问",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			if !execCtx.Sessions.Preferences().QuickReplies {
				execCtx.Notify(botcore.ReplyNotice, "快捷提问已关闭，可用 /prefs --quick-replies 开启")
				return nil
			}
			for _, q := range session.QuickPrompts() {
				cmd.Printf("%s: %s\n", q.Label, q.Prompt)
			}
			return nil
		},
	}
}

func intentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intent <text>",
		Short: "查看一句话的意图识别结果",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, _ []string) error {
			execCtx, err := mustExec(cmd)
			if err != nil {
				return err
			}
			text := execCtx.Args.ArgumentRaw
			in := intent.Classify(text)
			switch in.Kind {
			case intent.KindRecommendation:
				cmd.Printf("意图: 商品推荐\n品类: %s\n预算: %s\n", orDash(in.Category), orDash(in.Budget))
			case intent.KindPriceComparison:
				cmd.Printf("意图: 价格对比\n商品: %s\n", orDash(in.ProductName))
			default:
				cmd.Println("意图: 通用咨询")
			}
			if hint := intent.Hint(text); hint != "" {
				cmd.Println(hint)
			}
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
