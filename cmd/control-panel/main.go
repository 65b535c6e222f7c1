package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/betbot/controlpanel/internal/api"
	"github.com/betbot/controlpanel/internal/domain"
	"github.com/betbot/controlpanel/internal/metrics"
	"github.com/betbot/controlpanel/internal/panel"
	"github.com/betbot/controlpanel/internal/tui"
	"github.com/betbot/controlpanel/internal/view"
	"github.com/betbot/controlpanel/internal/web"
	"github.com/betbot/controlpanel/pkg/config"
	"github.com/betbot/controlpanel/pkg/logger"
	"github.com/betbot/controlpanel/pkg/shutdown"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const (
	modeTUI  = "tui"
	modeWeb  = "web"
	modeOnce = "once"
)

func main() {
	// .env 可选，缺失时直接使用真实环境变量
	_ = godotenv.Load()

	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	mode := flag.String("mode", "", "运行模式: tui | web | once（默认：终端下为 tui，否则 web）")
	baseURL := flag.String("api", "", "策略后端地址，覆盖配置")
	listen := flag.String("listen", "", "web 模式监听地址，覆盖配置")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.APIBaseURL = *baseURL
	}
	if *listen != "" {
		cfg.WebListen = *listen
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "配置无效: %v\n", err)
		os.Exit(1)
	}

	runMode := *mode
	if runMode == "" {
		runMode = modeWeb
		if term.IsTerminal(int(os.Stdout.Fd())) {
			runMode = modeTUI
		}
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    100, // 100MB
		MaxBackups: 3,
		MaxAge:     7, // 7天
		Compress:   true,
		// once 模式 stdout 留给渲染结果
		DisableConsole: runMode == modeOnce,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	loc, _ := cfg.Location()
	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if runMode == modeOnce {
		os.Exit(runOnce(rootCtx, client, loc))
	}

	probeHealth(rootCtx, client)

	ctrl := panel.NewController(client, panel.Options{
		BaseInterval: cfg.PollBase,
		FastInterval: cfg.PollFast,
	})
	shutdownManager := shutdown.NewManager()
	shutdownManager.OnShutdown("controller", func(context.Context) error {
		ctrl.Stop()
		return nil
	})

	if err := ctrl.Start(rootCtx); err != nil {
		logrus.Errorf("启动控制面板失败: %v", err)
		os.Exit(1)
	}

	if cfg.MetricsListen != "" {
		srv, err := metrics.StartAsync(rootCtx, cfg.MetricsListen)
		if err != nil {
			logrus.Warnf("metrics 服务启动失败: %v", err)
		} else {
			shutdownManager.OnShutdown("metrics", func(ctx context.Context) error {
				if err := srv.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
		}
	}

	var runErr error
	switch runMode {
	case modeTUI:
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			runErr = fmt.Errorf("tui 模式需要交互终端，可改用 -mode web")
			break
		}
		runErr = tui.Run(rootCtx, ctrl, tui.Options{
			LogFile:   cfg.TUILogFile,
			Location:  loc,
			AltScreen: true,
		})
	case modeWeb:
		srv, err := web.New(web.Config{
			Listen:        cfg.WebListen,
			Location:      loc,
			ActionTimeout: cfg.ActionTimeout,
			BaseInterval:  cfg.PollBase,
			FastInterval:  cfg.PollFast,
		}, ctrl)
		if err != nil {
			runErr = err
			break
		}
		logrus.Infof("✅ Web 控制面板已启动: http://%s （按 Ctrl+C 停止）", displayAddr(cfg.WebListen))
		runErr = srv.Run(rootCtx)
	default:
		runErr = fmt.Errorf("未知运行模式: %s", runMode)
	}

	rootCancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	shutdownManager.Shutdown(shutdownCtx)
	_ = logger.Close()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "运行失败: %v\n", runErr)
		os.Exit(1)
	}
}

// runOnce 拉取一次并把视图树打印到 stdout；拉取失败返回非零
func runOnce(ctx context.Context, client *api.Client, loc *time.Location) int {
	snap, err := panel.NewFetcher(client).Fetch(ctx)
	st := domain.State{Snapshot: snap, HasData: err == nil}
	if err != nil {
		st.Err = err.Error()
	}

	width := 120
	if w, _, sizeErr := term.GetSize(int(os.Stdout.Fd())); sizeErr == nil && w > 0 {
		width = w
	}
	fmt.Println(tui.RenderTree(view.Render(st, loc), width, ""))
	if err != nil {
		return 1
	}
	return 0
}

// probeHealth 启动时探测后端，失败只告警
func probeHealth(ctx context.Context, client *api.Client) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		logrus.Warnf("⚠️ 策略后端不可达 %s: %v（继续运行，轮询会持续重试）", client.BaseURL(), err)
		return
	}
	logrus.Infof("策略后端可达: %s", client.BaseURL())
}

func displayAddr(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "localhost" + listen
	}
	return listen
}
