package panel

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/betbot/controlpanel/internal/metrics"
	"github.com/betbot/controlpanel/pkg/sigchan"
)

// 轮询节奏
const (
	CadenceBase   = "base"
	CadenceFast   = "fast"
	CadenceManual = "manual"
)

const (
	DefaultBaseInterval = 5 * time.Second
	DefaultFastInterval = 2 * time.Second
)

// Poller 轮询状态机，两个具名定时器：
//   - base: 挂载后一直存在；
//   - fast: 仅在 strategy_running=true 时存在。
//
// strategy_running 每次翻转都在同一个地方（resetTimers）先停掉两个定时器再重建。
// 定时器只由 run 所在的 goroutine 读写。
type Poller struct {
	baseInterval time.Duration
	fastInterval time.Duration
	fire         func(cadence string)

	running    atomic.Bool
	transition *sigchan.Chan
	refresh    *sigchan.Chan

	base *time.Ticker
	fast *time.Ticker

	done chan struct{}
}

func newPoller(base, fast time.Duration, fire func(cadence string)) *Poller {
	if base <= 0 {
		base = DefaultBaseInterval
	}
	if fast <= 0 {
		fast = DefaultFastInterval
	}
	return &Poller{
		baseInterval: base,
		fastInterval: fast,
		fire:         fire,
		transition:   sigchan.New(1),
		refresh:      sigchan.New(1),
		done:         make(chan struct{}),
	}
}

// SetRunning 通知策略运行状态；只有真正翻转时 run 才会重建定时器
func (p *Poller) SetRunning(running bool) {
	if p.running.Swap(running) != running {
		p.transition.Emit()
	}
}

// RequestRefresh 请求一次额外拉取；已有未处理请求时合并
func (p *Poller) RequestRefresh() bool {
	return p.refresh.Emit()
}

// Done run 退出后关闭
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	defer p.stopTimers()

	current := p.running.Load()
	p.resetTimers(current)

	for {
		var fastC <-chan time.Time
		if p.fast != nil {
			fastC = p.fast.C
		}

		select {
		case <-ctx.Done():
			return
		case <-p.base.C:
			metrics.PollTicks.WithLabelValues(CadenceBase).Inc()
			p.fire(CadenceBase)
		case <-fastC:
			metrics.PollTicks.WithLabelValues(CadenceFast).Inc()
			p.fire(CadenceFast)
		case <-p.refresh.C():
			metrics.PollTicks.WithLabelValues(CadenceManual).Inc()
			p.fire(CadenceManual)
		case <-p.transition.C():
			next := p.running.Load()
			if next == current {
				continue
			}
			current = next
			p.applyTransition(current)
		}
	}
}

// applyTransition 重建定时器。翻转来自刚落地的一次拉取，
// 此前积压的手动刷新请求已被它覆盖，直接丢弃。
func (p *Poller) applyTransition(running bool) {
	p.resetTimers(running)
	if n := p.refresh.Drain(); n > 0 {
		log.Debugf("翻转时丢弃 %d 个积压的刷新请求", n)
	}
	log.Infof("策略运行状态变化: running=%v，重建轮询定时器", running)
}

func (p *Poller) resetTimers(running bool) {
	p.stopTimers()
	p.base = time.NewTicker(p.baseInterval)
	if running {
		p.fast = time.NewTicker(p.fastInterval)
	}
}

func (p *Poller) stopTimers() {
	if p.base != nil {
		p.base.Stop()
		p.base = nil
	}
	if p.fast != nil {
		p.fast.Stop()
		p.fast = nil
	}
}
