package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status 后端运行状态（/api/status）
type Status struct {
	IsTradingHours  bool   `json:"is_trading_hours"`
	StrategyRunning bool   `json:"strategy_running"`
	CurrentTime     string `json:"current_time"`

	// 以下字段后端可能不返回
	NextMarketOpen  string   `json:"next_market_open,omitempty"`
	NextMarketClose string   `json:"next_market_close,omitempty"`
	SymbolsTracked  []string `json:"symbols_tracked,omitempty"`
}

// Delta 周期变化（百分比 + 美元）
type Delta struct {
	Percentage decimal.Decimal `json:"percentage"`
	Dollars    decimal.Decimal `json:"dollars"`
}

// TradeTally 胜负笔数
type TradeTally struct {
	Won  int `json:"won"`
	Lost int `json:"lost"`
}

// PerformanceMetrics 绩效指标（/api/performance_metrics）
type PerformanceMetrics struct {
	WoW    Delta      `json:"wow"`
	MoM    Delta      `json:"mom"`
	Trades TradeTally `json:"trades"`
}

// Position 持仓。qty 在后端是字符串，decimal 同时兼容字符串与数字。
type Position struct {
	Symbol         string          `json:"symbol"`
	Qty            decimal.Decimal `json:"qty"`
	EntryPrice     decimal.Decimal `json:"entry_price"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	UnrealizedPLPC decimal.Decimal `json:"unrealized_plpc"`
	MarketValue    decimal.Decimal `json:"market_value"`
}

// Trade 成交记录，顺序以后端返回为准
type Trade struct {
	Timestamp Timestamp       `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// IsBuy 判断买卖方向（大小写不敏感）
func (t Trade) IsBuy() bool {
	return strings.EqualFold(strings.TrimSpace(t.Side), "buy")
}

// Account 账户概览（/api/account）
type Account struct {
	Equity        decimal.Decimal `json:"equity"`
	BuyingPower   decimal.Decimal `json:"buying_power"`
	Cash          decimal.Decimal `json:"cash"`
	DayTradeCount int             `json:"day_trade_count,omitempty"`
	LastEquity    decimal.Decimal `json:"last_equity"`
}

// DayChange 当日权益变化；后端未给 last_equity 时 ok=false
func (a Account) DayChange() (decimal.Decimal, bool) {
	if a.LastEquity.IsZero() {
		return decimal.Zero, false
	}
	return a.Equity.Sub(a.LastEquity), true
}

// Snapshot 一次轮询的完整结果：五个接口要么一起落地，要么整体丢弃
type Snapshot struct {
	Status      Status
	Performance PerformanceMetrics
	Positions   []Position
	Trades      []Trade
	Account     Account
	FetchedAt   time.Time
}

// EmptySnapshot 挂载时的默认快照
func EmptySnapshot() Snapshot {
	return Snapshot{
		Positions: []Position{},
		Trades:    []Trade{},
	}
}

// State 控制面板的可渲染状态
type State struct {
	Snapshot Snapshot
	Loading  bool
	Err      string
	// HasData 至少有一次成功拉取
	HasData bool
}

// Running 当前（本地视角）策略是否在运行
func (s State) Running() bool {
	return s.Snapshot.Status.StrategyRunning
}
