package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PIPELINE GRAPH"))
	s.WriteString("\n\n")

	if m.graphDOT == "" {
		s.WriteString("Generating graph...\n")
	} else {
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewBoard
		m.graphDOT = ""
	case "q":
		return m, tea.Quit
	}

	return m, nil
}

// graphCmd draws the board as it stands, including moves made since the last load.
func (m Model) graphCmd() tea.Cmd {
	ctx, logger := m.ctx, m.logger
	data := *m.data
	data.Deals = append([]models.Deal(nil), m.board.Deals()...)
	return func() tea.Msg {
		dot, err := viz.NewGraphGenerator(&data, logger).GeneratePipelineGraph(ctx)
		return graphMsg{dot: dot, err: err}
	}
}
