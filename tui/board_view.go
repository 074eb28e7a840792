// ABOUTME: Pipeline board view with one column per stage
// ABOUTME: Keyboard drag and drop: pick a deal, hover over a column, drop to move it
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
)

// now is swapped in tests.
var now = time.Now

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	columnActiveStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	columnTargetStyle = columnStyle.
				BorderForeground(lipgloss.Color("10"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	cardSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("235"))

	cardDraggingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("11"))
)

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DEALBOARD PIPELINE"))
	s.WriteString("\n")

	if m.loading {
		s.WriteString("Loading deals...\n")
		return s.String()
	}

	s.WriteString(m.renderColumns())
	s.WriteString("\n")

	if status := m.renderStatus(); status != "" {
		s.WriteString(status)
		s.WriteString("\n")
	}

	s.WriteString(m.renderBoardHelp())
	return s.String()
}

func (m Model) columnWidth() int {
	w := (m.width - 8) / len(pipeline.Stages)
	if w < 18 {
		w = 18
	}
	return w
}

func (m Model) renderColumns() string {
	drag := m.board.Drag()
	width := m.columnWidth()
	grouping := m.board.Grouping()

	var rendered []string
	for i, col := range pipeline.Summarize(m.board.Deals()) {
		var body strings.Builder
		body.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%s (%d)", col.Label, col.Count)))
		body.WriteString("\n")
		body.WriteString(fmt.Sprintf("%s · %.1f%%\n", pipeline.FormatCurrency(col.Value), col.Share))
		body.WriteString(strings.Repeat("─", width-2))
		body.WriteString("\n")

		for j, d := range grouping.Deals(col.Stage) {
			style := cardStyle
			switch {
			case drag.Phase != pipeline.Idle && drag.DealID == d.ID:
				style = cardDraggingStyle
			case drag.Phase == pipeline.Idle && i == m.col && j == m.row:
				style = cardSelectedStyle
			}
			line := truncate(fmt.Sprintf("%s %s", d.Title, pipeline.FormatCurrency(d.Value)), width-2)
			body.WriteString(style.Render(line))
			body.WriteString("\n")
			if who := service.ContactName(m.data.Contacts, d.ContactID); who != "" {
				body.WriteString(helpStyle.UnsetMarginTop().Render(truncate("  "+who, width-2)))
				body.WriteString("\n")
			}
		}

		style := columnStyle
		switch {
		case (drag.Phase == pipeline.Hovering || drag.Phase == pipeline.Dropping) && drag.Target == col.Stage:
			style = columnTargetStyle
		case i == m.col:
			style = columnActiveStyle
		}
		rendered = append(rendered, style.Width(width).Render(body.String()))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) renderBoardHelp() string {
	var help []string
	if m.board.Drag().Phase == pipeline.Idle {
		help = []string{
			"←/→ ↑/↓: Navigate",
			"Space: Pick up",
			"Enter: Details",
			"n: New deal here",
			"e: Edit",
			"d: Delete",
			"g: Graph",
			"r: Refresh",
			"q: Quit",
		}
	} else if m.board.Drag().Phase == pipeline.Dropping {
		help = []string{"Moving deal…", "q: Quit"}
	} else {
		help = []string{
			"←/→: Choose column",
			"Space/Enter: Drop",
			"Esc: Cancel",
		}
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

// selected returns the deal under the cursor.
func (m Model) selected() (models.Deal, bool) {
	deals := m.board.Grouping().Deals(pipeline.Stages[m.col])
	if m.row < 0 || m.row >= len(deals) {
		return models.Deal{}, false
	}
	return deals[m.row], true
}

func (m *Model) clampCursor() {
	if m.col < 0 {
		m.col = 0
	}
	if m.col >= len(pipeline.Stages) {
		m.col = len(pipeline.Stages) - 1
	}
	n := len(m.board.Grouping().Deals(pipeline.Stages[m.col]))
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

// follow moves the cursor onto a deal wherever it now sits.
func (m *Model) follow(id int) {
	grouping := m.board.Grouping()
	for i, b := range grouping.Buckets {
		for j, d := range b.Deals {
			if d.ID == id {
				m.col, m.row = i, j
				return
			}
		}
	}
	m.clampCursor()
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.board.Drag().Phase != pipeline.Idle {
		return m.handleDragKeys(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.col--
		m.clampCursor()
	case "right", "l":
		m.col++
		m.clampCursor()
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		m.row++
		m.clampCursor()
	case " ":
		if deal, ok := m.selected(); ok {
			m.board.Pick(deal.ID)
			m.status = nil
		}
	case "enter":
		if _, ok := m.selected(); ok {
			m.viewMode = ViewDetail
		}
	case "n":
		m.initDealForm(forms.NewDealForm(pipeline.Stages[m.col], now()), 0)
		m.viewMode = ViewEdit
	case "e":
		if deal, ok := m.selected(); ok {
			m.initDealForm(forms.DealFormFrom(deal), deal.ID)
			m.viewMode = ViewEdit
		}
	case "d":
		if deal, ok := m.selected(); ok {
			m.deleteID = deal.ID
			m.viewMode = ViewConfirmDelete
		}
	case "g":
		m.viewMode = ViewGraph
		m.graphDOT = ""
		return m, m.graphCmd()
	case "r":
		m.loading = true
		return m, m.loadCmd()
	}

	return m, nil
}

// handleDragKeys drives the drag state machine. The cursor column is the hover
// target. While a drop is pending only quit works.
func (m Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.board.Drag().Phase == pipeline.Dropping {
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}
	switch msg.String() {
	case "left", "h":
		if m.col > 0 {
			m.col--
		}
		m.board.Hover(pipeline.Stages[m.col])
	case "right", "l":
		if m.col < len(pipeline.Stages)-1 {
			m.col++
		}
		m.board.Hover(pipeline.Stages[m.col])
	case "esc":
		id := m.board.Drag().DealID
		m.board.Cancel()
		m.follow(id)
	case " ", "enter":
		target := pipeline.Stages[m.col]
		deal, ok := m.board.Release(target)
		if !ok {
			return m, nil
		}
		return m, m.moveCmd(deal, target)
	case "q":
		return m, tea.Quit
	}
	return m, nil
}
