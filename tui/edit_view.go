package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/dealboard/forms"
	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/notify"
	"github.com/harperreed/dealboard/service"
)

// Deal form field order.
const (
	fieldTitle = iota
	fieldValue
	fieldProbability
	fieldCloseDate
	fieldContactID
	fieldCompanyID
	fieldCount
)

func (m Model) renderEditView() string {
	var s strings.Builder

	// Title
	if m.editingID == 0 {
		s.WriteString(titleStyle.Render("NEW DEAL IN " + strings.ToUpper(models.StageLabel(m.formStage))))
	} else {
		s.WriteString(titleStyle.Render(fmt.Sprintf("EDIT DEAL %d", m.editingID)))
	}
	s.WriteString("\n\n")

	// Form fields
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if status := m.renderStatus(); status != "" {
		s.WriteString(status)
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewBoard
		m.status = nil
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		form, failures := m.collectDealForm()
		if len(failures) > 0 {
			action := "update deal"
			if m.editingID == 0 {
				action = "create deal"
			}
			m.notify(notify.Describe(action, service.ErrInvalid, failures))
			return m, nil
		}
		return m, m.saveCmd(form)
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

// initDealForm fills the inputs from form. id is zero for a new deal.
func (m *Model) initDealForm(form forms.DealForm, id int) {
	inputs := make([]textinput.Model, fieldCount)
	placeholders := [fieldCount]string{
		fieldTitle:       "Title",
		fieldValue:       "Value in dollars",
		fieldProbability: "Probability 0-100 (blank: from stage)",
		fieldCloseDate:   "Close date YYYY-MM-DD",
		fieldContactID:   "Contact ID",
		fieldCompanyID:   "Company ID (optional)",
	}
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].CharLimit = 100
	}

	inputs[fieldTitle].SetValue(form.Title)
	if form.Value > 0 {
		inputs[fieldValue].SetValue(strconv.FormatFloat(form.Value, 'f', -1, 64))
	}
	if form.Probability > 0 {
		inputs[fieldProbability].SetValue(strconv.Itoa(form.Probability))
	}
	inputs[fieldCloseDate].SetValue(form.CloseDate)
	if form.ContactID > 0 {
		inputs[fieldContactID].SetValue(strconv.Itoa(form.ContactID))
	}
	if form.CompanyID > 0 {
		inputs[fieldCompanyID].SetValue(strconv.Itoa(form.CompanyID))
	}

	m.formInputs = inputs
	m.formStage = form.Stage
	m.editingID = id
	m.focusIndex = 0
	m.status = nil
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

// collectDealForm parses the inputs and validates the result.
func (m Model) collectDealForm() (forms.DealForm, []service.Failure) {
	form := forms.DealForm{
		Title:     strings.TrimSpace(m.formInputs[fieldTitle].Value()),
		Stage:     m.formStage,
		CloseDate: strings.TrimSpace(m.formInputs[fieldCloseDate].Value()),
	}

	var failures []service.Failure
	number := func(field int, label string, set func(string) error) {
		raw := strings.TrimSpace(m.formInputs[field].Value())
		if raw == "" {
			return
		}
		if err := set(raw); err != nil {
			failures = append(failures, service.Failure{Field: label, Message: "must be a number"})
		}
	}
	number(fieldValue, "Value", func(s string) (err error) {
		form.Value, err = strconv.ParseFloat(strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$"), 64)
		return err
	})
	number(fieldProbability, "Probability", func(s string) (err error) {
		form.Probability, err = strconv.Atoi(strings.TrimSuffix(s, "%"))
		return err
	})
	number(fieldContactID, "Contact", func(s string) (err error) {
		form.ContactID, err = strconv.Atoi(s)
		return err
	})
	number(fieldCompanyID, "Company", func(s string) (err error) {
		form.CompanyID, err = strconv.Atoi(s)
		return err
	})
	if len(failures) > 0 {
		return form, failures
	}
	return form, forms.Validate(form)
}

func (m Model) saveCmd(form forms.DealForm) tea.Cmd {
	ctx, deals, id := m.ctx, m.svc.Deals, m.editingID
	return func() tea.Msg {
		if id == 0 {
			return savedMsg{res: deals.Create(ctx, form.ToFields()), created: true}
		}
		return savedMsg{res: deals.Update(ctx, id, form.ToFields())}
	}
}
