package view

import (
	"strconv"
	"strings"
	"time"

	"github.com/betbot/controlpanel/internal/domain"
)

// Render 纯函数：同样的输入永远得到同样的树。loc 决定成交时间的显示时区。
func Render(st domain.State, loc *time.Location) Tree {
	if st.Loading {
		return Tree{Loading: true}
	}
	if st.Err != "" && !st.HasData {
		return Tree{Error: st.Err}
	}

	snap := st.Snapshot
	running := snap.Status.StrategyRunning

	tree := Tree{Banner: st.Err}
	tree.Panels = append(tree.Panels,
		statusPanel(snap.Status),
		accountPanel(snap.Account),
		performancePanel(snap.Performance),
	)
	if len(snap.Positions) > 0 {
		tree.Panels = append(tree.Panels, positionsPanel(snap.Positions, running))
	}
	if len(snap.Trades) > 0 {
		tree.Panels = append(tree.Panels, tradesPanel(snap.Trades, loc))
	}
	return tree
}

func statusPanel(s domain.Status) Panel {
	market := Field{Label: "Market", Value: "Closed", Tone: ToneNegative}
	if s.IsTradingHours {
		market = Field{Label: "Market", Value: "Open", Tone: TonePositive}
	}
	strategy := Field{Label: "Strategy Running", Value: yesNo(s.StrategyRunning), Tone: ToneMuted}
	if s.StrategyRunning {
		strategy.Tone = TonePositive
	}

	p := Panel{
		Key:   PanelStatus,
		Title: "System Status",
		Fields: []Field{
			market,
			strategy,
			{Label: "Current Time", Value: s.CurrentTime},
		},
		Buttons: []Button{
			{Label: "Start Strategy", Action: ActionStart, Disabled: s.StrategyRunning},
			{Label: "Stop Strategy", Action: ActionStop, Disabled: !s.StrategyRunning},
		},
	}
	if s.NextMarketOpen != "" {
		p.Fields = append(p.Fields, Field{Label: "Next Open", Value: s.NextMarketOpen, Tone: ToneMuted})
	}
	if s.NextMarketClose != "" {
		p.Fields = append(p.Fields, Field{Label: "Next Close", Value: s.NextMarketClose, Tone: ToneMuted})
	}
	if len(s.SymbolsTracked) > 0 {
		p.Fields = append(p.Fields, Field{Label: "Symbols", Value: strings.Join(s.SymbolsTracked, ", "), Tone: ToneMuted})
	}
	return p
}

func accountPanel(a domain.Account) Panel {
	p := Panel{
		Key:   PanelAccount,
		Title: "Account Overview",
		Fields: []Field{
			{Label: "Equity", Value: Currency(a.Equity)},
			{Label: "Buying Power", Value: Currency(a.BuyingPower)},
			{Label: "Cash", Value: Currency(a.Cash)},
		},
	}
	if change, ok := a.DayChange(); ok {
		p.Fields = append(p.Fields, Field{Label: "Day Change", Value: Currency(change), Tone: SignTone(change)})
	}
	if a.DayTradeCount > 0 {
		p.Fields = append(p.Fields, Field{Label: "Day Trades", Value: strconv.Itoa(a.DayTradeCount), Tone: ToneMuted})
	}
	return p
}

func performancePanel(m domain.PerformanceMetrics) Panel {
	return Panel{
		Key:   PanelPerformance,
		Title: "Performance Metrics",
		Fields: []Field{
			deltaField("Week over Week", m.WoW),
			deltaField("Month over Month", m.MoM),
			{Label: "Trades Won", Value: strconv.Itoa(m.Trades.Won), Tone: TonePositive},
			{Label: "Trades Lost", Value: strconv.Itoa(m.Trades.Lost), Tone: ToneNegative},
		},
	}
}

func deltaField(label string, d domain.Delta) Field {
	return Field{
		Label: label,
		Value: Percent(d.Percentage) + " (" + Currency(d.Dollars) + ")",
		Tone:  SignTone(d.Percentage),
	}
}

func positionsPanel(positions []domain.Position, running bool) Panel {
	t := &Table{Columns: []string{"Symbol", "Qty", "Entry", "Current", "Value", "P/L"}}
	for _, pos := range positions {
		value := "-"
		if !pos.MarketValue.IsZero() {
			value = Currency(pos.MarketValue)
		}
		t.Rows = append(t.Rows, Row{
			Key: pos.Symbol,
			Cells: []Cell{
				{Text: pos.Symbol},
				{Text: Quantity(pos.Qty)},
				{Text: Currency(pos.EntryPrice)},
				{Text: Currency(pos.CurrentPrice)},
				{Text: value, Tone: ToneMuted},
				{Text: Ratio(pos.UnrealizedPLPC), Tone: SignTone(pos.UnrealizedPLPC.Mul(hundred))},
			},
			Actions: []Button{{Label: "Close", Action: ActionClose, Arg: pos.Symbol, Disabled: !running}},
		})
	}
	return Panel{Key: PanelPositions, Title: "Open Positions", Table: t}
}

func tradesPanel(trades []domain.Trade, loc *time.Location) Panel {
	t := &Table{Columns: []string{"Time", "Symbol", "Side", "Qty", "Price"}}
	for i, tr := range trades {
		side := Cell{Text: Side(tr.Side), Tone: ToneNegative}
		if tr.IsBuy() {
			side.Tone = TonePositive
		}
		t.Rows = append(t.Rows, Row{
			Key: strconv.Itoa(i),
			Cells: []Cell{
				{Text: TimeOfDay(tr.Timestamp, loc), Tone: ToneMuted},
				{Text: tr.Symbol},
				side,
				{Text: Quantity(tr.Quantity)},
				{Text: Currency(tr.Price)},
			},
		})
	}
	return Panel{Key: PanelTrades, Title: "Recent Trades", Table: t}
}
