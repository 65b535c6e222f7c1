// Package view 把控制面板状态渲染成与前端无关的视图树。
// TUI 和 Web 两个前端只负责把同一棵树画出来。
package view

// Tone 语义色调，由前端映射成具体颜色
type Tone int

const (
	ToneNeutral Tone = iota
	TonePositive
	ToneNegative
	ToneMuted
)

func (t Tone) String() string {
	switch t {
	case TonePositive:
		return "positive"
	case ToneNegative:
		return "negative"
	case ToneMuted:
		return "muted"
	default:
		return "neutral"
	}
}

// 按钮动作
const (
	ActionStart = "start"
	ActionStop  = "stop"
	ActionClose = "close"
)

// 面板 key，顺序固定
const (
	PanelStatus      = "status"
	PanelAccount     = "account"
	PanelPerformance = "performance"
	PanelPositions   = "positions"
	PanelTrades      = "trades"
)

// Tree 一次渲染的结果。
// Loading / Error 为占位状态，此时 Panels 为空；Banner 是有数据时的错误提示。
type Tree struct {
	Loading bool
	Error   string
	Banner  string
	Panels  []Panel
}

// Panel 卡片
type Panel struct {
	Key     string
	Title   string
	Fields  []Field
	Buttons []Button
	Table   *Table
}

type Field struct {
	Label string
	Value string
	Tone  Tone
}

type Button struct {
	Label    string
	Action   string
	Arg      string
	Disabled bool
}

type Table struct {
	Columns []string
	Rows    []Row
}

// Row Key 对持仓是 symbol，对成交是序号
type Row struct {
	Key     string
	Cells   []Cell
	Actions []Button
}

type Cell struct {
	Text string
	Tone Tone
}

// Panel 按 key 查找面板
func (t Tree) Panel(key string) (Panel, bool) {
	for _, p := range t.Panels {
		if p.Key == key {
			return p, true
		}
	}
	return Panel{}, false
}

// Field 按标签查找字段
func (p Panel) Field(label string) (Field, bool) {
	for _, f := range p.Fields {
		if f.Label == label {
			return f, true
		}
	}
	return Field{}, false
}

// Button 按动作查找按钮
func (p Panel) Button(action string) (Button, bool) {
	for _, b := range p.Buttons {
		if b.Action == action {
			return b, true
		}
	}
	return Button{}, false
}
