// Package apitest 提供一个内存版的策略后端，供各包测试复用。
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Raw 原样写出的响应体（用于构造非法 JSON）
type Raw string

type response struct {
	code int
	body any
}

// Backend 假后端：默认实现五个读接口和三个动作接口，
// 可按路由覆盖响应、注入延迟，并记录调用次数。
type Backend struct {
	server *httptest.Server

	mu        sync.Mutex
	running   bool
	overrides map[string]response
	delays    map[string]time.Duration
	calls     map[string]int
	closed    []string

	Positions []map[string]any
	Trades    []map[string]any
}

func New() *Backend {
	gin.SetMode(gin.TestMode)
	b := &Backend{
		overrides: make(map[string]response),
		delays:    make(map[string]time.Duration),
		calls:     make(map[string]int),
		Positions: []map[string]any{
			{"symbol": "SPY", "qty": "10", "entry_price": 450.0, "current_price": 452.25, "unrealized_plpc": 0.005},
		},
		Trades: []map[string]any{
			{"timestamp": "2024-03-01T14:30:05Z", "symbol": "SPY", "side": "buy", "quantity": 10, "price": 450.0},
		},
	}
	b.server = httptest.NewServer(b.router())
	return b
}

func (b *Backend) URL() string { return b.server.URL }

func (b *Backend) Close() { b.server.Close() }

// Set 覆盖某个路由的响应，path 使用 gin 路由形式，如 /api/close_position/:symbol
func (b *Backend) Set(method, path string, code int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = response{code: code, body: body}
}

// Reset 清除某个路由的覆盖
func (b *Backend) Reset(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.overrides, method+" "+path)
}

func (b *Backend) SetDelay(method, path string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[method+" "+path] = d
}

func (b *Backend) SetRunning(running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = running
}

func (b *Backend) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

// TotalCalls 所有路由的调用总数
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// ClosedSymbols 收到的平仓请求（已解码的 symbol）
func (b *Backend) ClosedSymbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.closed...)
}

func (b *Backend) router() http.Handler {
	r := gin.New()
	r.Use(b.record)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "healthy"}) })

	r.GET("/api/status", func(c *gin.Context) {
		b.mu.Lock()
		running := b.running
		b.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{
			"is_trading_hours": true,
			"strategy_running": running,
			"current_time":     "2024-03-01 10:00:00 EST",
		})
	})
	r.GET("/api/performance_metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"wow":    gin.H{"percentage": 1.25, "dollars": 1234.5},
			"mom":    gin.H{"percentage": -1.5, "dollars": -320},
			"trades": gin.H{"won": 7, "lost": 3},
		})
	})
	r.GET("/api/positions", func(c *gin.Context) {
		b.mu.Lock()
		positions := b.Positions
		b.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"positions": positions})
	})
	r.GET("/api/trades", func(c *gin.Context) {
		b.mu.Lock()
		trades := b.Trades
		b.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"trades": trades})
	})
	r.GET("/api/account", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"equity": 12345.6, "buying_power": 50000, "cash": 2500.75})
	})
	r.POST("/api/start", func(c *gin.Context) {
		b.SetRunning(true)
		c.JSON(http.StatusOK, gin.H{"status": "Strategy started successfully"})
	})
	r.POST("/api/stop", func(c *gin.Context) {
		b.SetRunning(false)
		c.JSON(http.StatusOK, gin.H{"status": "Strategy stopped successfully"})
	})
	r.POST("/api/close_position/:symbol", func(c *gin.Context) {
		b.mu.Lock()
		b.closed = append(b.closed, c.Param("symbol"))
		b.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"status": "closed"})
	})
	return r
}

// record 统计调用、注入延迟，并在有覆盖时短路默认处理
func (b *Backend) record(c *gin.Context) {
	key := c.Request.Method + " " + c.FullPath()
	b.mu.Lock()
	b.calls[key]++
	delay := b.delays[key]
	ov, hasOverride := b.overrides[key]
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	if !hasOverride {
		c.Next()
		return
	}
	if raw, ok := ov.body.(Raw); ok {
		c.Data(ov.code, "application/json", []byte(raw))
	} else {
		c.JSON(ov.code, ov.body)
	}
	c.Abort()
}
