package panel

import (
	"context"
	"sync"
	"time"

	"github.com/betbot/controlpanel/internal/api"
	"github.com/betbot/controlpanel/internal/domain"
	"github.com/betbot/controlpanel/internal/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "panel")

var (
	// ErrNotMounted 控制器未启动或已停止
	ErrNotMounted = errors.New("control panel is not mounted")
	// ErrAlreadyMounted 重复 Start
	ErrAlreadyMounted = errors.New("control panel already mounted")
)

// Commander 后端动作接口
type Commander interface {
	StartStrategy(ctx context.Context) error
	StopStrategy(ctx context.Context) error
	ClosePosition(ctx context.Context, symbol string) error
}

// Backend 控制器需要的全部后端能力（*api.Client 满足）
type Backend interface {
	Source
	Commander
}

// Options 控制器参数
type Options struct {
	BaseInterval time.Duration
	FastInterval time.Duration
}

// Controller 控制面板：拉取、轮询、动作分发，对外只暴露 domain.State。
//
// 状态只在拉取/动作完成时整体写入，多个重叠的拉取按完成顺序后写覆盖。
// 卸载（Stop）后晚到的结果一律丢弃。
type Controller struct {
	fetcher *Fetcher
	cmd     Commander
	poller  *Poller

	mu      sync.RWMutex
	state   domain.State
	alive   bool
	mounted bool
	updates chan domain.State

	// runCtx 挂载期间有效，卸载时取消，后台拉取都挂在它下面
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewController(backend Backend, opts Options) *Controller {
	c := &Controller{
		fetcher: NewFetcher(backend),
		cmd:     backend,
		state: domain.State{
			Snapshot: domain.EmptySnapshot(),
			Loading:  true,
		},
		updates: make(chan domain.State, 1),
	}
	c.poller = newPoller(opts.BaseInterval, opts.FastInterval, c.spawnRefresh)
	return c
}

// Start 挂载：立即拉取一次并启动轮询。ctx 结束等同于 Stop。
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}
	c.mounted = true
	c.alive = true
	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	c.cancel = cancel
	c.mu.Unlock()

	go c.poller.run(runCtx)
	c.spawnRefresh("mount")

	go func() {
		<-runCtx.Done()
		c.Stop()
	}()
	log.Infof("控制面板已挂载: base=%s fast=%s", c.poller.baseInterval, c.poller.fastInterval)
	return nil
}

// Stop 卸载：停止两个定时器、取消在途请求并丢弃其结果。可重复调用。
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.alive = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	<-c.poller.Done()
	c.wg.Wait()
	log.Info("控制面板已卸载")
}

// State 当前状态的副本
func (c *Controller) State() domain.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Updates 状态变化通知，只保留最新一条
func (c *Controller) Updates() <-chan domain.State {
	return c.updates
}

// RequestRefresh 异步请求一次拉取（由轮询 goroutine 执行）
func (c *Controller) RequestRefresh() {
	if !c.poller.RequestRefresh() {
		log.Debug("已有待处理的刷新请求，合并")
	}
}

// Refresh 同步拉取一次并写入状态，返回本次拉取的错误
func (c *Controller) Refresh(ctx context.Context) error {
	return c.refresh(ctx, CadenceManual)
}

func (c *Controller) isAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alive
}

// spawnRefresh 在独立 goroutine 里拉取；不做重叠控制
func (c *Controller) spawnRefresh(trigger string) {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	// wg.Add 必须和 alive 检查在同一把锁内，保证 Stop 的 Wait 之后不会再 Add
	c.wg.Add(1)
	ctx := c.runCtx
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		_ = c.refresh(ctx, trigger)
	}()
}

// track 登记一次在途拉取：未挂载时返回 false。
// 返回的 ctx 在调用方 ctx 或卸载任一结束时取消，release 必须调用。
func (c *Controller) track(ctx context.Context) (context.Context, func(), bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return nil, nil, false
	}
	c.wg.Add(1)
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.runCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
		c.wg.Done()
	}, true
}

// refresh 拉取并写入状态。卸载后不会再发起拉取，返回 ErrNotMounted。
func (c *Controller) refresh(ctx context.Context, trigger string) error {
	ctx, release, ok := c.track(ctx)
	if !ok {
		return ErrNotMounted
	}
	defer release()

	start := time.Now()
	snap, err := c.fetcher.Fetch(ctx)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		metrics.ObserveFetch("discarded", elapsed)
		return ErrNotMounted
	}

	c.state.Loading = false
	if err != nil {
		// 保留上一份成功的快照，只更新错误
		c.state.Err = err.Error()
		metrics.ObserveFetch(api.Kind(err), elapsed)
		log.WithField("trigger", trigger).Warnf("拉取快照失败: %v", err)
	} else {
		c.state.Snapshot = snap
		c.state.Err = ""
		c.state.HasData = true
		metrics.ObserveFetch("ok", elapsed)
		log.WithFields(logrus.Fields{
			"trigger":   trigger,
			"running":   snap.Status.StrategyRunning,
			"positions": len(snap.Positions),
			"trades":    len(snap.Trades),
			"elapsed":   elapsed.Round(time.Millisecond),
		}).Debug("快照已更新")
	}
	c.commitLocked()
	return err
}

// commitLocked 同步轮询节奏并发布状态；调用方持有 c.mu
func (c *Controller) commitLocked() {
	running := c.state.Snapshot.Status.StrategyRunning
	c.poller.SetRunning(running)
	metrics.SetRunning(running)

	st := c.state
	for {
		select {
		case c.updates <- st:
			return
		default:
			select {
			case <-c.updates:
			default:
			}
		}
	}
}
