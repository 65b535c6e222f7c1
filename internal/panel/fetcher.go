package panel

import (
	"context"
	"time"

	"github.com/betbot/controlpanel/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Source 后端只读接口
type Source interface {
	Status(ctx context.Context) (domain.Status, error)
	PerformanceMetrics(ctx context.Context) (domain.PerformanceMetrics, error)
	Positions(ctx context.Context) ([]domain.Position, error)
	Trades(ctx context.Context) ([]domain.Trade, error)
	Account(ctx context.Context) (domain.Account, error)
}

// Fetcher 并发拉取五个接口并组装快照
type Fetcher struct {
	src Source
	now func() time.Time
}

func NewFetcher(src Source) *Fetcher {
	return &Fetcher{src: src, now: time.Now}
}

// Fetch 五个请求并发发出，全部成功才返回快照；
// 任意一个失败即整体失败，其余请求随 group ctx 取消。
func (f *Fetcher) Fetch(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	// 每个 goroutine 只写自己的字段
	g.Go(func() (err error) {
		snap.Status, err = f.src.Status(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Performance, err = f.src.PerformanceMetrics(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Positions, err = f.src.Positions(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Trades, err = f.src.Trades(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Account, err = f.src.Account(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Positions == nil {
		snap.Positions = []domain.Position{}
	}
	if snap.Trades == nil {
		snap.Trades = []domain.Trade{}
	}
	snap.FetchedAt = f.now()
	return snap, nil
}
