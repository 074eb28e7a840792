// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Kanban pipeline board with keyboard drag and drop, deal forms and a status line
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/harperreed/dealboard/models"
	"github.com/harperreed/dealboard/notify"
	"github.com/harperreed/dealboard/pipeline"
	"github.com/harperreed/dealboard/service"
	"github.com/harperreed/dealboard/viz"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewConfirmDelete
)

// Model is the main bubbletea model
type Model struct {
	ctx    context.Context
	svc    *service.Services
	logger *zap.Logger

	viewMode ViewMode
	board    *pipeline.Board
	data     *viz.Data
	loading  bool

	// Board cursor: column index into pipeline.Stages and row within it.
	col int
	row int

	// Edit view state. editingID is zero for a new deal.
	formInputs []textinput.Model
	focusIndex int
	formStage  string
	editingID  int

	// Graph view state
	graphDOT string

	// Delete confirmation state
	deleteID int

	status *notify.Notification

	// UI state
	width  int
	height int
}

// Messages produced by commands. Each carries the finished result so the
// update loop applies it; a late result simply overwrites.
type (
	loadedMsg struct {
		data *viz.Data
		err  error
	}
	movedMsg struct {
		res pipeline.MoveResult
	}
	savedMsg struct {
		res     service.Result[*models.Deal]
		created bool
	}
	deletedMsg struct {
		id  int
		res service.Result[bool]
	}
	graphMsg struct {
		dot string
		err error
	}
)

// NewModel creates a new TUI model
func NewModel(ctx context.Context, svc *service.Services, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		ctx:      ctx,
		svc:      svc,
		logger:   logger,
		viewMode: ViewBoard,
		board:    pipeline.NewBoard(svc.Deals, nil, logger),
		data:     &viz.Data{},
		loading:  true,
		width:    100,
		height:   30,
	}
}

// Run shows the board until the user quits or ctx is cancelled.
func Run(ctx context.Context, svc *service.Services, logger *zap.Logger) error {
	p := tea.NewProgram(NewModel(ctx, svc, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.notify(notify.Describe("load pipeline", msg.err, nil))
			return m, nil
		}
		m.data = msg.data
		m.board.SetDeals(msg.data.Deals)
		m.clampCursor()
		return m, nil
	case movedMsg:
		return m.applyMove(msg.res), nil
	case savedMsg:
		return m.applySave(msg), nil
	case deletedMsg:
		return m.applyDelete(msg), nil
	case graphMsg:
		if msg.err != nil {
			m.notify(notify.New(notify.LevelError, "Failed to draw pipeline graph", msg.err.Error()))
			m.viewMode = ViewBoard
			return m, nil
		}
		m.graphDOT = msg.dot
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewBoard:
		return m.renderBoardView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewBoard:
		return m.handleBoardKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

func (m *Model) notify(n notify.Notification) {
	m.status = &n
	switch n.Level {
	case notify.LevelError:
		m.logger.Error(n.Message, zap.Strings("details", n.Details))
	case notify.LevelWarning:
		m.logger.Warn(n.Message, zap.Strings("details", n.Details))
	}
}

func (m Model) loadCmd() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		data, err := viz.Load(ctx, svc)
		return loadedMsg{data: data, err: err}
	}
}

func (m Model) moveCmd(deal models.Deal, target string) tea.Cmd {
	ctx, deals := m.ctx, m.svc.Deals
	return func() tea.Msg {
		return movedMsg{res: pipeline.MoveDeal(ctx, deals, deal, target)}
	}
}

func (m Model) applyMove(res pipeline.MoveResult) Model {
	m.board.Apply(res)
	switch {
	case res.Noop:
		m.notify(notify.New(notify.LevelInfo, fmt.Sprintf("%s is already in %s", res.Deal.Title, models.StageLabel(res.To))))
	case !res.OK():
		m.notify(notify.Describe("move deal", res.Err, res.Failures))
	default:
		m.notify(notify.New(notify.LevelSuccess, fmt.Sprintf("Moved %s to %s", res.Deal.Title, models.StageLabel(res.To))))
		m.follow(res.Deal.ID)
	}
	return m
}

func (m Model) applySave(msg savedMsg) Model {
	action, success := "update deal", "Deal updated"
	if msg.created {
		action, success = "create deal", "Deal created"
	}
	collector := &notify.Collector{}
	ok := notify.Report(collector, msg.res, action, success)
	for _, n := range collector.Drain() {
		m.notify(n)
	}
	if !ok {
		return m
	}
	if msg.created {
		m.board.Add(*msg.res.Value)
	} else {
		m.board.Replace(*msg.res.Value)
	}
	m.viewMode = ViewBoard
	m.follow(msg.res.Value.ID)
	return m
}

func (m Model) applyDelete(msg deletedMsg) Model {
	collector := &notify.Collector{}
	if notify.Report(collector, msg.res, "delete deal", "Deal deleted") {
		m.board.Remove(msg.id)
		m.clampCursor()
	}
	for _, n := range collector.Drain() {
		m.notify(n)
	}
	m.viewMode = ViewBoard
	return m
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyles = map[notify.Level]lipgloss.Style{
		notify.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		notify.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		notify.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		notify.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

// renderStatus shows the latest notification and the unknown-stage note.
func (m Model) renderStatus() string {
	var line string
	if m.status != nil {
		line = statusStyles[m.status.Level].Render(m.status.Message)
		for _, d := range m.status.Details {
			line += "\n  " + d
		}
	}
	if n := len(m.board.Grouping().Unstaged); n > 0 {
		note := statusStyles[notify.LevelWarning].Render(fmt.Sprintf("%d deals with unknown stage", n))
		if line != "" {
			line += "\n"
		}
		line += note
	}
	return line
}
