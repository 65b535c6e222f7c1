package panel

import (
	"context"

	"github.com/betbot/controlpanel/internal/api"
	"github.com/betbot/controlpanel/internal/metrics"
	"github.com/pkg/errors"
)

// 动作名，用于日志与指标
const (
	ActionStart = "start"
	ActionStop  = "stop"
	ActionClose = "close"
)

// StartStrategy 启动策略：成功后先乐观地把 strategy_running 置为 true，
// 再立刻拉取一次以后端为准。失败只写错误，不改运行状态。
func (c *Controller) StartStrategy(ctx context.Context) error {
	return c.toggle(ctx, true)
}

// StopStrategy 与 StartStrategy 对称
func (c *Controller) StopStrategy(ctx context.Context) error {
	return c.toggle(ctx, false)
}

func (c *Controller) toggle(ctx context.Context, run bool) error {
	action, call := ActionStop, c.cmd.StopStrategy
	if run {
		action, call = ActionStart, c.cmd.StartStrategy
	}
	if !c.isAlive() {
		return ErrNotMounted
	}

	if err := call(ctx); err != nil {
		c.fail(action, errors.WithMessagef(err, "failed to %s strategy", action))
		return err
	}
	metrics.ActionTotal.WithLabelValues(action, "ok").Inc()
	log.Infof("策略%s请求成功", actionLabel(action))

	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return ErrNotMounted
	}
	c.state.Snapshot.Status.StrategyRunning = run
	c.commitLocked()
	c.mu.Unlock()

	// 以后端为准；拉取失败已经写进状态，这里不再向调用方报错
	if err := c.refresh(ctx, action); errors.Is(err, ErrNotMounted) {
		return err
	}
	return nil
}

// ClosePosition 平仓。策略未运行时不发请求、不改状态。
// 成功后做一次完整刷新；失败只报告，不重试。
func (c *Controller) ClosePosition(ctx context.Context, symbol string) error {
	if !c.isAlive() {
		return ErrNotMounted
	}
	c.mu.RLock()
	running := c.state.Snapshot.Status.StrategyRunning
	c.mu.RUnlock()
	if !running {
		metrics.ActionTotal.WithLabelValues(ActionClose, "skipped").Inc()
		log.Debugf("策略未运行，忽略平仓: %s", symbol)
		return nil
	}

	if err := c.cmd.ClosePosition(ctx, symbol); err != nil {
		c.fail(ActionClose, errors.WithMessagef(err, "failed to close position %s", symbol))
		return err
	}
	metrics.ActionTotal.WithLabelValues(ActionClose, "ok").Inc()
	log.Infof("平仓请求成功: %s", symbol)

	// 请求在途期间可能已卸载，此时不再拉取
	if err := c.refresh(ctx, ActionClose); errors.Is(err, ErrNotMounted) {
		return err
	}
	return nil
}

// fail 记录动作失败：只写错误字段，其余状态不变
func (c *Controller) fail(action string, err error) {
	metrics.ActionTotal.WithLabelValues(action, api.Kind(err)).Inc()
	log.WithField("action", action).Errorf("动作失败: %v", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return
	}
	c.state.Err = err.Error()
	c.commitLocked()
}

func actionLabel(action string) string {
	switch action {
	case ActionStart:
		return "启动"
	case ActionStop:
		return "停止"
	default:
		return action
	}
}
