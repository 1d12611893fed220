package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/chat"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/command"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/session"
)

func historyCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "管理历史对话",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "列出历史对话",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				cmd.Print(command.FormatHistory(a.sessions.History(), ""))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "显示一段历史对话",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				entry, ok := a.sessions.HistoryEntry(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", session.ErrNotFound, args[0])
				}
				cmd.Printf("# %s\n\n", entry.Title)
				for _, m := range entry.Messages {
					speaker := "AI助手"
					if m.Role == chat.RoleUser {
						speaker = "用户"
					}
					cmd.Printf("[%s] %s：%s\n\n", m.Timestamp.Local().Format("01-02 15:04"), speaker, m.Content)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "删除一段历史对话",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.sessions.DeleteHistory(ctx, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "清空全部历史对话",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return a.sessions.ClearAllHistory(ctx)
			})
		},
	})
	return cmd
}

func prefsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "查看或修改偏好设置",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "显示当前偏好",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(_ context.Context, a *app) error {
				p := a.sessions.Preferences()
				cmd.Printf("quick_replies: %t\nsound_enabled: %t\nauto_scroll: %t\n", p.QuickReplies, p.SoundEnabled, p.AutoScroll)
				return nil
			})
		},
	})

	var quickReplies, sound, autoScroll bool
	set := &cobra.Command{
		Use:   "set",
		Short: "修改偏好（仅修改指定的 Flag）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				p, err := a.sessions.UpdatePreferences(ctx, patch)
				if err != nil {
					return err
				}
				cmd.Printf("quick_replies: %t\nsound_enabled: %t\nauto_scroll: %t\n", p.QuickReplies, p.SoundEnabled, p.AutoScroll)
				return nil
			})
		},
	}
	set.Flags().BoolVar(&quickReplies, "quick-replies", true, "显示快捷提问")
	set.Flags().BoolVar(&sound, "sound", false, "启用提示音")
	set.Flags().BoolVar(&autoScroll, "auto-scroll", true, "自动滚动到最新消息")
	cmd.AddCommand(set)
	return cmd
}
