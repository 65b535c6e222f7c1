// Package web 浏览器版控制面板：服务端渲染同一棵视图树，按钮走表单 POST。
package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/betbot/controlpanel/internal/domain"
	"github.com/betbot/controlpanel/internal/metrics"
	"github.com/betbot/controlpanel/internal/panel"
	"github.com/betbot/controlpanel/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "web")

// Controller web 需要的控制器能力（*panel.Controller 满足）
type Controller interface {
	State() domain.State
	StartStrategy(ctx context.Context) error
	StopStrategy(ctx context.Context) error
	ClosePosition(ctx context.Context, symbol string) error
	RequestRefresh()
}

type Config struct {
	Listen   string
	Location *time.Location
	// ActionTimeout 单个动作（含随后的刷新）的超时
	ActionTimeout time.Duration
	// 页面自动刷新间隔，与轮询节奏一致
	BaseInterval time.Duration
	FastInterval time.Duration
}

type Server struct {
	cfg  Config
	ctrl Controller
	tmpl *template.Template
}

func New(cfg Config, ctrl Controller) (*Server, error) {
	if ctrl == nil {
		return nil, errors.New("controller is required")
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8090"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 15 * time.Second
	}
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = panel.DefaultBaseInterval
	}
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = panel.DefaultFastInterval
	}
	tmpl, err := template.New("index").Funcs(templateFuncs).Parse(indexHTML)
	if err != nil {
		return nil, errors.Wrap(err, "parse template")
	}
	return &Server{cfg: cfg, ctrl: ctrl, tmpl: tmpl}, nil
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(s.tmpl)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/", s.handleIndex)
	r.GET("/api/state", s.handleState)
	r.POST("/api/refresh", s.handleRefresh)

	actions := r.Group("/actions")
	actions.POST("/start", s.handleAction(view.ActionStart))
	actions.POST("/stop", s.handleAction(view.ActionStop))
	// 通配：代码里可能带 "/"，如 BRK/B
	actions.POST("/close/*symbol", s.handleAction(view.ActionClose))

	return r
}

// Run 阻塞服务直到 ctx 结束，然后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Web 控制面板监听: %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	log.Info("Web 控制面板已关闭")
	return nil
}

// requestLogger 用 logrus 记录请求，替代 gin 默认的 stdout 日志
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Debug("http")
	}
}
