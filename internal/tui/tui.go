// Package tui 终端控制面板（bubbletea）
package tui

import (
	"context"
	"time"

	"github.com/betbot/controlpanel/pkg/logger"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "tui")

// Options TUI 启动参数
type Options struct {
	// LogFile TUI 运行期间日志改写到该文件；为空时沿用 logger 已配置的文件
	LogFile  string
	Location *time.Location
	// AltScreen 使用全屏模式
	AltScreen bool
}

// Run 阻塞运行 TUI，直到用户退出或 ctx 结束
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	restore, err := logger.RedirectToFile(opts.LogFile)
	if err != nil {
		return errors.Wrap(err, "redirect logs")
	}
	defer restore()

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newModel(ctx, ctrl, loc), progOpts...)

	log.Info("TUI 启动")
	_, err = p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// ctx 结束属于正常退出
		err = nil
	}
	log.Info("TUI 退出")
	return err
}
