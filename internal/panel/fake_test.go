package panel

import (
	"context"
	"sync"

	"github.com/betbot/controlpanel/internal/domain"
	"github.com/shopspring/decimal"
)

// fakeBackend 进程内后端，按接口名注入错误并计数
type fakeBackend struct {
	mu        sync.Mutex
	status    domain.Status
	positions []domain.Position
	trades    []domain.Trade
	account   domain.Account
	errs      map[string]error
	calls     map[string]int
	closed    []string

	// onStatus 在每次 Status 调用时执行（锁外）
	onStatus func()
	// onAction 在动作请求返回前执行（锁外），参数为动作名
	onAction func(name string)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		status: domain.Status{IsTradingHours: true, CurrentTime: "2024-03-01 10:00:00 EST"},
		positions: []domain.Position{
			{Symbol: "SPY", Qty: decimal.NewFromInt(10), EntryPrice: decimal.NewFromInt(450)},
			{Symbol: "QQQ", Qty: decimal.NewFromInt(5), EntryPrice: decimal.NewFromInt(380)},
		},
		trades:  []domain.Trade{{Symbol: "SPY", Side: "buy", Quantity: decimal.NewFromInt(10)}},
		account: domain.Account{Equity: decimal.RequireFromString("12345.6")},
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeBackend) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.errs[name]
}

func (f *fakeBackend) setErr(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, name)
		return
	}
	f.errs[name] = err
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) action(name string) {
	f.mu.Lock()
	hook := f.onAction
	f.mu.Unlock()
	if hook != nil {
		hook(name)
	}
}

func (f *fakeBackend) setRunning(running bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.StrategyRunning = running
}

func (f *fakeBackend) Status(ctx context.Context) (domain.Status, error) {
	if err := f.hit("status"); err != nil {
		return domain.Status{}, err
	}
	f.mu.Lock()
	hook := f.onStatus
	st := f.status
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return st, ctx.Err()
}

func (f *fakeBackend) PerformanceMetrics(ctx context.Context) (domain.PerformanceMetrics, error) {
	if err := f.hit("performance"); err != nil {
		return domain.PerformanceMetrics{}, err
	}
	return domain.PerformanceMetrics{Trades: domain.TradeTally{Won: 3, Lost: 1}}, ctx.Err()
}

func (f *fakeBackend) Positions(ctx context.Context) ([]domain.Position, error) {
	if err := f.hit("positions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.positions, ctx.Err()
}

func (f *fakeBackend) Trades(ctx context.Context) ([]domain.Trade, error) {
	if err := f.hit("trades"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trades, ctx.Err()
}

func (f *fakeBackend) Account(ctx context.Context) (domain.Account, error) {
	if err := f.hit("account"); err != nil {
		return domain.Account{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.account, ctx.Err()
}

func (f *fakeBackend) StartStrategy(ctx context.Context) error {
	if err := f.hit("start"); err != nil {
		return err
	}
	f.action("start")
	return ctx.Err()
}

func (f *fakeBackend) StopStrategy(ctx context.Context) error {
	if err := f.hit("stop"); err != nil {
		return err
	}
	f.action("stop")
	return ctx.Err()
}

func (f *fakeBackend) ClosePosition(ctx context.Context, symbol string) error {
	if err := f.hit("close"); err != nil {
		return err
	}
	f.mu.Lock()
	f.closed = append(f.closed, symbol)
	f.mu.Unlock()
	f.action("close")
	return ctx.Err()
}
