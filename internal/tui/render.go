package tui

import (
	"fmt"
	"strings"

	"github.com/betbot/controlpanel/internal/view"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	bannerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	buttonStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

// 按钮动作对应的快捷键
var actionKeys = map[string]string{
	view.ActionStart: "s",
	view.ActionStop:  "x",
	view.ActionClose: "c",
}

func toneStyle(t view.Tone) lipgloss.Style {
	switch t {
	case view.TonePositive:
		return positiveStyle
	case view.ToneNegative:
		return negativeStyle
	case view.ToneMuted:
		return mutedStyle
	default:
		return lipgloss.NewStyle()
	}
}

// RenderTree 把视图树画成终端文本。selected 为当前选中持仓的 symbol。
func RenderTree(tree view.Tree, width int, selected string) string {
	if width < 60 {
		width = 60
	}
	switch {
	case tree.Loading:
		return mutedStyle.Render("Loading...")
	case tree.Error != "":
		return negativeStyle.Render("Error: " + tree.Error)
	}

	var blocks []string
	if tree.Banner != "" {
		blocks = append(blocks, bannerStyle.Render("⚠ "+tree.Banner))
	}

	// 前三个卡片横排，表格独占一行
	var cards []string
	for _, p := range tree.Panels {
		if p.Table != nil {
			continue
		}
		cards = append(cards, renderCard(p, width/3-2))
	}
	if len(cards) > 0 {
		row := []string{cards[0]}
		for _, c := range cards[1:] {
			row = append(row, " ", c)
		}
		blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	for _, p := range tree.Panels {
		if p.Table == nil {
			continue
		}
		blocks = append(blocks, renderTablePanel(p, width-2, selected))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderCard(p view.Panel, width int) string {
	labelWidth := 0
	for _, f := range p.Fields {
		if w := lipgloss.Width(f.Label); w > labelWidth {
			labelWidth = w
		}
	}

	lines := []string{titleStyle.Render(p.Title), strings.Repeat("─", max(width-4, 1))}
	for _, f := range p.Fields {
		label := f.Label + ":" + strings.Repeat(" ", labelWidth-lipgloss.Width(f.Label)+1)
		lines = append(lines, label+toneStyle(f.Tone).Render(f.Value))
	}
	if len(p.Buttons) > 0 {
		lines = append(lines, "", renderButtons(p.Buttons))
	}
	return boxStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func renderButtons(buttons []view.Button) string {
	parts := make([]string, 0, len(buttons))
	for _, b := range buttons {
		parts = append(parts, renderButton(b))
	}
	return strings.Join(parts, "  ")
}

func renderButton(b view.Button) string {
	text := fmt.Sprintf("[%s] %s", actionKeys[b.Action], b.Label)
	if b.Disabled {
		return mutedStyle.Strikethrough(true).Render(text)
	}
	return buttonStyle.Render(text)
}

func renderTablePanel(p view.Panel, width int, selected string) string {
	t := p.Table
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row.Cells {
			if i < len(widths) && lipgloss.Width(cell.Text) > widths[i] {
				widths[i] = lipgloss.Width(cell.Text)
			}
		}
	}

	pad := func(s string, w int) string {
		return s + strings.Repeat(" ", w-lipgloss.Width(s)+2)
	}

	var header strings.Builder
	for i, c := range t.Columns {
		header.WriteString(pad(c, widths[i]))
	}
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s (%d)", p.Title, len(t.Rows))),
		strings.Repeat("─", max(width-4, 1)),
		mutedStyle.Render(strings.TrimRight(header.String(), " ")),
	}

	for _, row := range t.Rows {
		var b strings.Builder
		for i, cell := range row.Cells {
			if i >= len(widths) {
				break
			}
			// 先补齐再上色，避免转义序列影响宽度
			b.WriteString(toneStyle(cell.Tone).Render(pad(cell.Text, widths[i])))
		}
		for _, a := range row.Actions {
			b.WriteString(renderButton(a))
		}
		line := b.String()
		if p.Key == view.PanelPositions && row.Key == selected {
			line = selectedStyle.Render("▶ ") + line
		} else if p.Key == view.PanelPositions {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return boxStyle.Width(width).Render(strings.Join(lines, "\n"))
}
