package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/assistant"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/config"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/session"
)

// newRootCmd 构建 CLI 命令树。
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "shopassist",
		Short:         "AI 购物助手",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "配置文件路径")
	root.PersistentFlags().StringVarP(&opts.model, "model", "m", "", "使用的模型名称（默认 default_model）")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "输出调试日志")
	root.PersistentFlags().BoolVar(&opts.trace, "trace", false, "将链路追踪输出到 stderr")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Prometheus 指标监听地址，例如 :9090")

	root.AddCommand(chatCmd(opts), askCmd(opts), historyCmd(opts), prefsCmd(opts))
	return root
}

// withApp 装配 app 执行 fn，结束后释放资源。
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := cmd.Context()
	opts.configSet = cmd.Flags().Changed("config")
	a, err := newApp(ctx, opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close(context.WithoutCancel(ctx)))
	}()
	return fn(ctx, a)
}

func chatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "进入交互式对话（/help 查看会话命令，/exit 退出）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return runREPL(ctx, a, cmd.InOrStdin())
			})
		},
	}
}

// runREPL 逐行读取输入并路由，直到 EOF、/exit 或 ctx 取消。
func runREPL(ctx context.Context, a *app, in io.Reader) error {
	a.sessions.StartNewSession()
	welcome := a.sessions.Messages()[0]
	_ = a.emitter.Emit(botcore.Update{}, botcore.Reply{Kind: botcore.ReplyMarkdown, Content: welcome.Content})
	if a.sessions.Preferences().QuickReplies {
		for _, q := range session.QuickPrompts() {
			fmt.Fprintf(a.out, "  %s: %s\n", q.Label, q.Prompt)
		}
	}

	adapter := botcore.LineAdapter("repl")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "\n你> ")
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		update, err := adapter.Normalize(scanner.Text())
		if err != nil {
			return err
		}
		switch update.Text {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		}
		if err := a.handle(ctx, update); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func askCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "单次提问并输出回答",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				reply, err := a.orchestrator.Send(ctx, strings.Join(args, " "))
				if err != nil {
					var sendErr *assistant.SendError
					if errors.As(err, &sendErr) {
						return errors.New(sendErr.Notice())
					}
					return err
				}
				return a.emitter.Emit(botcore.Update{}, botcore.Reply{Kind: botcore.ReplyMarkdown, Content: reply.Message.Content, IsFinal: true})
			})
		},
	}
}
