package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	deal, ok := m.selected()
	if !ok {
		return "No deal selected\n\n" + m.renderDetailHelp()
	}

	s.WriteString(titleStyle.Render(strings.ToUpper(deal.Title)))
	s.WriteString("\n\n")

	probability := ""
	if deal.Probability > 0 {
		probability = fmt.Sprintf("%d%%", deal.Probability)
	}
	closeDate := ""
	if !deal.CloseDate.IsZero() {
		closeDate = deal.CloseDate.Format(forms.DateLayout)
	}

	s.WriteString(m.renderField("Stage", models.StageLabel(deal.Stage)))
	s.WriteString(m.renderField("Value", pipeline.FormatCurrency(deal.Value)))
	s.WriteString(m.renderField("Probability", probability))
	s.WriteString(m.renderField("Close Date", closeDate))
	s.WriteString(m.renderField("Contact", service.ContactName(m.data.Contacts, deal.ContactID)))
	s.WriteString(m.renderField("Company", service.CompanyName(m.data.Companies, deal.CompanyID)))

	// Activities logged against this deal
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("ACTIVITY"))
	s.WriteString("\n")

	found := false
	for _, a := range m.data.Activities {
		if a.DealID != deal.ID {
			continue
		}
		found = true
		s.WriteString(fmt.Sprintf("  • [%s] %s: %s\n", a.CreatedAt.Format(forms.DateLayout), a.Type, a.Description))
	}
	if !found {
		s.WriteString("  none\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"e: Edit",
		"d: Delete",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	deal, ok := m.selected()
	switch msg.String() {
	case "esc":
		m.viewMode = ViewBoard
	case "q":
		return m, tea.Quit
	case "e":
		if ok {
			m.initDealForm(forms.DealFormFrom(deal), deal.ID)
			m.viewMode = ViewEdit
		}
	case "d":
		if ok {
			m.deleteID = deal.ID
			m.viewMode = ViewConfirmDelete
		}
	}

	return m, nil
}
