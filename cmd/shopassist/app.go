package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/ai"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/assistant"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/botcore"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/command"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/config"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/observability"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/session"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/storage"
)

// rootOptions 是全局 Flag。
type rootOptions struct {
	configPath  string
	configSet   bool // --config 是否由用户显式指定
	model       string
	verbose     bool
	trace       bool
	metricsAddr string
}

// app 持有一次进程运行所需的全部组件。
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	out          io.Writer
	repo         *storage.StateRepository
	sessions     *session.Manager
	orchestrator *assistant.Orchestrator
	chain        *botcore.Chain
	emitter      botcore.Emitter

	closers []func(context.Context) error
}

// newApp 按配置装配组件。
//
// 装配顺序:
//
//	config ─> logger ─> [tracing] ─> storage ─> session
//	       ─> gateway ─> orchestrator ─> command manager ─> chain
func newApp(ctx context.Context, opts *rootOptions, out io.Writer) (*app, error) {
	load := config.LoadOrDefault
	if opts.configSet {
		load = config.Load
	}
	cfg, err := load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, out: out}
	a.closers = append(a.closers, func(context.Context) error {
		_ = logger.Sync()
		return nil
	})

	if opts.trace {
		shutdown, err := observability.InitStdoutTracing("shopassist", os.Stderr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, shutdown)
	}

	kv, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.repo = storage.NewStateRepository(kv)
	a.closers = append(a.closers, func(context.Context) error { return a.repo.Close() })

	a.sessions, err = session.New(ctx, a.repo,
		session.WithLogger(logger.Named("session")),
		session.WithArchiveCapacity(cfg.ArchiveCapacity))
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	// Dispose 需要在关闭仓库之前执行
	a.closers = append(a.closers, a.sessions.Dispose)

	registry := ai.NewRegistry(&cfg.Config, ai.WithGatewayLogger(logger.Named("gateway")))
	gateway, err := registry.Gateway(ctx, opts.model)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	reg := prometheus.NewRegistry()
	orchestratorOpts := []assistant.Option{
		assistant.WithLogger(logger.Named("assistant")),
		assistant.WithMaxAttempts(cfg.Retry.MaxAttempts),
		assistant.WithBaseDelay(cfg.Retry.BaseDelay),
		assistant.WithRegisterer(reg),
		assistant.WithStateHook(a.progress),
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		orchestratorOpts = append(orchestratorOpts, assistant.WithRateLimiter(
			rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)))
	}
	a.orchestrator = assistant.New(a.sessions, gateway, orchestratorOpts...)

	if opts.metricsAddr != "" {
		if err := a.serveMetrics(opts.metricsAddr, reg); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}

	manager := command.NewManager(command.NewRootCommand, a.sessions, command.WithLogger(logger.Named("command")))
	a.chain = botcore.NewChain(a.orchestrator)
	a.chain.AddRoute("command", botcore.MatchPrefix("/"), manager)

	a.emitter = newRenderer(out)
	return a, nil
}

// progress 将编排状态转换为终端提示。
func (a *app) progress(ev assistant.Event) {
	switch ev.State {
	case assistant.StateClassifying:
		fmt.Fprintln(a.out, "小购正在为您分析中...")
	case assistant.StateRetrying:
		fmt.Fprintf(a.out, "发送失败，正在重试... (%d/%d)\n", ev.Attempt, ev.MaxAttempts-1)
	}
}

// handle 路由一行输入并输出全部回复片段。
func (a *app) handle(ctx context.Context, update botcore.Update) error {
	return botcore.Drain(update, a.chain.Trigger(ctx, update), a.emitter)
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	a.closers = append(a.closers, srv.Shutdown)
	a.logger.Info("metrics listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Close 按注册的逆序释放资源。
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
