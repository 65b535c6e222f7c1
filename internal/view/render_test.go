package view

import (
	"testing"
	"time"

	"github.com/betbot/controlpanel/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func loadedState(running bool) domain.State {
	snap := domain.EmptySnapshot()
	snap.Status = domain.Status{IsTradingHours: true, StrategyRunning: running, CurrentTime: "2024-03-01 10:00:00 EST"}
	snap.Account = domain.Account{Equity: d("12345.6"), BuyingPower: d("50000"), Cash: d("2500.755")}
	snap.Performance = domain.PerformanceMetrics{
		WoW:    domain.Delta{Percentage: d("1.25"), Dollars: d("1234.5")},
		MoM:    domain.Delta{Percentage: d("-1.5"), Dollars: d("-320")},
		Trades: domain.TradeTally{Won: 7, Lost: 3},
	}
	snap.Positions = []domain.Position{
		{Symbol: "SPY", Qty: d("10"), EntryPrice: d("450"), CurrentPrice: d("452.25"), UnrealizedPLPC: d("0.005")},
		{Symbol: "QQQ", Qty: d("5"), EntryPrice: d("380"), CurrentPrice: d("370"), UnrealizedPLPC: d("-0.0263"), MarketValue: d("1850")},
	}
	snap.Trades = []domain.Trade{
		{Timestamp: domain.ParseTimestamp("2024-03-01T14:30:05Z"), Symbol: "SPY", Side: "buy", Quantity: d("10"), Price: d("450")},
		{Timestamp: domain.ParseTimestamp("not-a-time"), Symbol: "QQQ", Side: "sell", Quantity: d("2"), Price: d("381.1")},
	}
	return domain.State{Snapshot: snap, HasData: true}
}

func TestCurrency(t *testing.T) {
	cases := map[string]string{
		"12345.6":     "$12,345.60",
		"0":           "$0.00",
		"1234567.891": "$1,234,567.89",
		"-1234.5":     "$-1,234.50",
		"0.05":        "$0.05",
		"999.999":     "$1,000.00",
		"-0.001":      "$0.00",

		"99999999999999999.99": "$99,999,999,999,999,999.99",
	}
	for in, want := range cases {
		assert.Equal(t, want, Currency(d(in)), in)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "-1.50%", Percent(d("-1.5")))
	assert.Equal(t, "0.00%", Percent(decimal.Zero))
	assert.Equal(t, "12.35%", Percent(d("12.345")))
	assert.Equal(t, "0.50%", Ratio(d("0.005")))
}

func TestSignToneMatchesDisplayedText(t *testing.T) {
	assert.Equal(t, "0.00%", Percent(d("-0.001")))
	assert.Equal(t, TonePositive, SignTone(d("-0.001")))

	assert.Equal(t, "-0.01%", Percent(d("-0.005")))
	assert.Equal(t, ToneNegative, SignTone(d("-0.005")))

	assert.Equal(t, "$0.00", Currency(d("-0.004")))
	assert.Equal(t, TonePositive, SignTone(d("-0.004")))
}

func TestTimeOfDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "10:00:00", TimeOfDay(domain.ParseTimestamp("2024-03-01T10:00:00"), est), "no zone: wall clock as is")
	assert.Equal(t, "10:00:00", TimeOfDay(domain.ParseTimestamp("2024-03-01T15:00:00Z"), est))
	assert.Equal(t, "garbage", TimeOfDay(domain.ParseTimestamp("garbage"), est))
	assert.Equal(t, "-", TimeOfDay(domain.Timestamp{}, est))
}

func TestRender_Loading(t *testing.T) {
	tree := Render(domain.State{Loading: true, Err: "ignored"}, time.UTC)
	assert.Equal(t, Tree{Loading: true}, tree)
}

func TestRender_ErrorPlaceholderWithoutData(t *testing.T) {
	tree := Render(domain.State{Snapshot: domain.EmptySnapshot(), Err: "status: http 500"}, time.UTC)
	assert.Equal(t, Tree{Error: "status: http 500"}, tree)
}

func TestRender_BannerKeepsLastKnownGood(t *testing.T) {
	st := loadedState(false)
	st.Err = "account: http 502"
	tree := Render(st, time.UTC)
	assert.Equal(t, "account: http 502", tree.Banner)
	assert.Empty(t, tree.Error)
	assert.Len(t, tree.Panels, 5)
}

func TestRender_PanelOrder(t *testing.T) {
	tree := Render(loadedState(true), time.UTC)
	var keys []string
	for _, p := range tree.Panels {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{PanelStatus, PanelAccount, PanelPerformance, PanelPositions, PanelTrades}, keys)
}

func TestRender_StartStopButtons(t *testing.T) {
	for _, running := range []bool{true, false} {
		status, ok := Render(loadedState(running), time.UTC).Panel(PanelStatus)
		require.True(t, ok)

		start, _ := status.Button(ActionStart)
		stop, _ := status.Button(ActionStop)
		assert.Equal(t, running, start.Disabled, "start disabled iff running")
		assert.Equal(t, !running, stop.Disabled, "stop disabled iff not running")

		f, _ := status.Field("Strategy Running")
		if running {
			assert.Equal(t, "Yes", f.Value)
		} else {
			assert.Equal(t, "No", f.Value)
		}
	}
}

func TestRender_Account(t *testing.T) {
	account, ok := Render(loadedState(false), time.UTC).Panel(PanelAccount)
	require.True(t, ok)
	assert.Equal(t, []Field{
		{Label: "Equity", Value: "$12,345.60"},
		{Label: "Buying Power", Value: "$50,000.00"},
		{Label: "Cash", Value: "$2,500.76"},
	}, account.Fields)
}

func TestRender_AccountSupplemental(t *testing.T) {
	st := loadedState(false)
	st.Snapshot.Account.LastEquity = d("12400")
	st.Snapshot.Account.DayTradeCount = 2
	account, _ := Render(st, time.UTC).Panel(PanelAccount)

	change, ok := account.Field("Day Change")
	require.True(t, ok)
	assert.Equal(t, "$-54.40", change.Value)
	assert.Equal(t, ToneNegative, change.Tone)

	trades, ok := account.Field("Day Trades")
	require.True(t, ok)
	assert.Equal(t, "2", trades.Value)
}

func TestRender_PerformanceTones(t *testing.T) {
	perf, _ := Render(loadedState(false), time.UTC).Panel(PanelPerformance)

	wow, _ := perf.Field("Week over Week")
	assert.Equal(t, "1.25% ($1,234.50)", wow.Value)
	assert.Equal(t, TonePositive, wow.Tone)

	mom, _ := perf.Field("Month over Month")
	assert.Equal(t, "-1.50% ($-320.00)", mom.Value)
	assert.Equal(t, ToneNegative, mom.Tone)

	won, _ := perf.Field("Trades Won")
	lost, _ := perf.Field("Trades Lost")
	assert.Equal(t, "7", won.Value)
	assert.Equal(t, "3", lost.Value)
}

func TestRender_ZeroDeltaIsPositive(t *testing.T) {
	st := loadedState(false)
	st.Snapshot.Performance.WoW = domain.Delta{}
	perf, _ := Render(st, time.UTC).Panel(PanelPerformance)
	wow, _ := perf.Field("Week over Week")
	assert.Equal(t, "0.00% ($0.00)", wow.Value)
	assert.Equal(t, TonePositive, wow.Tone)
}

func TestRender_Positions(t *testing.T) {
	pos, ok := Render(loadedState(true), time.UTC).Panel(PanelPositions)
	require.True(t, ok)
	require.NotNil(t, pos.Table)
	require.Len(t, pos.Table.Rows, 2)

	spy := pos.Table.Rows[0]
	assert.Equal(t, "SPY", spy.Key)
	assert.Equal(t, []Cell{
		{Text: "SPY"},
		{Text: "10"},
		{Text: "$450.00"},
		{Text: "$452.25"},
		{Text: "-", Tone: ToneMuted},
		{Text: "0.50%", Tone: TonePositive},
	}, spy.Cells)
	assert.Equal(t, []Button{{Label: "Close", Action: ActionClose, Arg: "SPY"}}, spy.Actions)

	qqq := pos.Table.Rows[1]
	assert.Equal(t, "QQQ", qqq.Key)
	assert.Equal(t, Cell{Text: "-2.63%", Tone: ToneNegative}, qqq.Cells[5])
	assert.Equal(t, "$1,850.00", qqq.Cells[4].Text)
}

func TestRender_CloseDisabledWhileIdle(t *testing.T) {
	pos, _ := Render(loadedState(false), time.UTC).Panel(PanelPositions)
	for _, row := range pos.Table.Rows {
		assert.True(t, row.Actions[0].Disabled)
	}
}

func TestRender_Trades(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	trades, ok := Render(loadedState(false), ny).Panel(PanelTrades)
	require.True(t, ok)
	require.Len(t, trades.Table.Rows, 2)

	first := trades.Table.Rows[0]
	assert.Equal(t, "0", first.Key)
	assert.Equal(t, []Cell{
		{Text: "09:30:05", Tone: ToneMuted},
		{Text: "SPY"},
		{Text: "BUY", Tone: TonePositive},
		{Text: "10"},
		{Text: "$450.00"},
	}, first.Cells)

	second := trades.Table.Rows[1]
	assert.Equal(t, "1", second.Key)
	assert.Equal(t, "not-a-time", second.Cells[0].Text)
	assert.Equal(t, Cell{Text: "SELL", Tone: ToneNegative}, second.Cells[2])
}

func TestRender_EmptyTablesOmitted(t *testing.T) {
	st := loadedState(true)
	st.Snapshot.Positions = []domain.Position{}
	st.Snapshot.Trades = nil
	tree := Render(st, time.UTC)

	_, hasPositions := tree.Panel(PanelPositions)
	_, hasTrades := tree.Panel(PanelTrades)
	assert.False(t, hasPositions)
	assert.False(t, hasTrades)
	assert.Len(t, tree.Panels, 3)
}

func TestRender_StatusSupplemental(t *testing.T) {
	st := loadedState(false)
	st.Snapshot.Status.IsTradingHours = false
	st.Snapshot.Status.NextMarketOpen = "2024-03-04 09:30:00"
	st.Snapshot.Status.SymbolsTracked = []string{"SPY", "QQQ"}
	status, _ := Render(st, time.UTC).Panel(PanelStatus)

	market, _ := status.Field("Market")
	assert.Equal(t, Field{Label: "Market", Value: "Closed", Tone: ToneNegative}, market)

	next, ok := status.Field("Next Open")
	require.True(t, ok)
	assert.Equal(t, "2024-03-04 09:30:00", next.Value)
	_, ok = status.Field("Next Close")
	assert.False(t, ok)

	symbols, _ := status.Field("Symbols")
	assert.Equal(t, "SPY, QQQ", symbols.Value)
}

func TestRender_Pure(t *testing.T) {
	st := loadedState(true)
	assert.Equal(t, Render(st, time.UTC), Render(st, time.UTC))
}
