package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/betbot/controlpanel/internal/domain"
	"github.com/betbot/controlpanel/internal/view"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

var modelLog = logrus.WithField("module", "tui.model")

// Controller TUI 需要的控制器能力（*panel.Controller 满足）
type Controller interface {
	State() domain.State
	Updates() <-chan domain.State
	StartStrategy(ctx context.Context) error
	StopStrategy(ctx context.Context) error
	ClosePosition(ctx context.Context, symbol string) error
	RequestRefresh()
}

type stateMsg struct {
	state domain.State
}

type actionMsg struct {
	action string
	arg    string
	err    error
}

type tickMsg time.Time

type model struct {
	ctx  context.Context
	ctrl Controller
	loc  *time.Location
	keys keyMap

	state    domain.State
	tree     view.Tree
	selected int
	notice   string

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
}

func newModel(ctx context.Context, ctrl Controller, loc *time.Location) model {
	m := model{
		ctx:      ctx,
		ctrl:     ctrl,
		loc:      loc,
		keys:     defaultKeyMap(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle)),
		viewport: viewport.New(100, 30),
		width:    100,
		height:   32,
	}
	m.setState(ctrl.State())
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForUpdate(),
		m.spinner.Tick,
		m.tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-3, 1)
		m.refreshContent()
		return m, nil
	case stateMsg:
		m.setState(msg.state)
		return m, m.waitForUpdate()
	case actionMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("✗ %s %s 失败", msg.action, msg.arg)
		} else {
			m.notice = fmt.Sprintf("✓ %s %s 完成", msg.action, msg.arg)
		}
		return m, nil
	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tickMsg:
		return m, m.tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Start):
		return m, m.pressStatusButton(view.ActionStart, m.ctrl.StartStrategy)
	case key.Matches(msg, m.keys.Stop):
		return m, m.pressStatusButton(view.ActionStop, m.ctrl.StopStrategy)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return m, nil
	case key.Matches(msg, m.keys.Close):
		symbol := m.selectedSymbol()
		if symbol == "" {
			return m, nil
		}
		m.notice = "正在平仓 " + symbol + "..."
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			return actionMsg{action: view.ActionClose, arg: symbol, err: ctrl.ClosePosition(ctx, symbol)}
		}
	case key.Matches(msg, m.keys.Refresh):
		m.ctrl.RequestRefresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// pressStatusButton 按钮禁用时不发请求
func (m *model) pressStatusButton(action string, call func(context.Context) error) tea.Cmd {
	status, ok := m.tree.Panel(view.PanelStatus)
	if !ok {
		return nil
	}
	b, ok := status.Button(action)
	if !ok || b.Disabled {
		return nil
	}
	m.notice = "正在请求 " + action + "..."
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{action: action, err: call(ctx)}
	}
}

func (m *model) setState(st domain.State) {
	m.state = st
	m.tree = view.Render(st, m.loc)
	n := len(st.Snapshot.Positions)
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.refreshContent()
}

func (m *model) moveSelection(delta int) {
	n := len(m.state.Snapshot.Positions)
	if n == 0 {
		return
	}
	m.selected = (m.selected + delta + n) % n
	m.refreshContent()
}

func (m model) selectedSymbol() string {
	positions := m.state.Snapshot.Positions
	if m.selected < 0 || m.selected >= len(positions) {
		return ""
	}
	return positions[m.selected].Symbol
}

func (m *model) refreshContent() {
	m.viewport.SetContent(RenderTree(m.tree, m.width, m.selectedSymbol()))
}

func (m model) View() string {
	header := headerStyle.Render(fmt.Sprintf("Strategy Control Panel | Time: %s", time.Now().Format("15:04:05")))
	var body string
	if m.state.Loading {
		body = m.spinner.View() + " " + mutedStyle.Render("Loading...")
	} else {
		body = m.viewport.View()
	}
	footer := mutedStyle.Render(m.keys.help())
	if m.notice != "" {
		footer = m.notice + "  " + footer
	}
	return header + "\n" + body + "\n" + footer
}

func (m model) waitForUpdate() tea.Cmd {
	updates := m.ctrl.Updates()
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			modelLog.Debug("状态通道已关闭")
			return nil
		}
		return stateMsg{state: st}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
