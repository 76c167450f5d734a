package app

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	daemonin "worksmart/internal/modules/daemon/port/in"
	sessiondto "worksmart/internal/modules/session/dto"
	"worksmart/internal/ui/components"
	"worksmart/internal/ui/theme"
	capsulesview "worksmart/internal/ui/views/capsules"
	historyview "worksmart/internal/ui/views/history"
	todayview "worksmart/internal/ui/views/today"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type timecardPort interface {
	Status(ctx context.Context) (daemonin.RuntimeStatus, error)
	StartSession(ctx context.Context) (sessiondto.SessionOutput, error)
	StopSession(ctx context.Context, mode string) (sessiondto.SessionOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabToday tabID = iota
	tabHistory
	tabCapsules
	tabCount
)

var tabLabels = [tabCount]string{"Today", "History", "Capsules"}

// statusEvery is how many clock ticks pass between daemon status polls.
const statusEvery = 5

// ─── async messages ──────────────────────────────────────────────────────────

type tickMsg time.Time

type sessionChangedMsg struct {
	action string
	out    sessiondto.SessionOutput
	err    error
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab       key.Binding
	Help      key.Binding
	Palette   key.Binding
	Quit      key.Binding
	Start     key.Binding
	Stop      key.Binding
	StopAfter key.Binding
	Refresh   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:   key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Start:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start session")),
		Stop:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop now")),
		StopAfter: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "stop after capsule")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.StopAfter, k.Refresh},
		{k.Tab, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root of the timecard UI. Session control goes to the daemon;
// the history and capsule tabs read local storage.
type Model struct {
	homeDir  string
	timecard timecardPort

	todayView    todayview.Model
	historyView  historyview.Model
	capsulesView capsulesview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	ticks     int
	width     int
	height    int
}

func NewModel(homeDir string, timecard timecardPort, history historyview.HistoryPort, catalog capsulesview.CatalogPort) Model {
	return Model{
		homeDir:      homeDir,
		timecard:     timecard,
		todayView:    todayview.New(),
		historyView:  historyview.New(history),
		capsulesView: capsulesview.New(catalog, time.Now().UTC()),
		activeTab:    tabToday,
		keys:         defaultKeys(),
		help:         help.New(),
		palette:      components.NewPalette(),
		status:       "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadStatusCmd(),
		m.historyView.Init(),
		m.capsulesView.Init(),
		tickCmd(),
	)
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case tickMsg:
		m.ticks++
		m.todayView, _ = m.todayView.Update(todayview.TickMsg(msg))
		cmds = append(cmds, tickCmd())
		if m.ticks%statusEvery == 0 {
			cmds = append(cmds, m.loadStatusCmd())
		}
		return m, tea.Batch(cmds...)

	case todayview.StatusMsg:
		m.todayView, _ = m.todayView.Update(msg)
		return m, nil

	case historyview.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case capsulesview.LoadedMsg:
		var cmd tea.Cmd
		m.capsulesView, cmd = m.capsulesView.Update(msg)
		return m, cmd

	case sessionChangedMsg:
		if msg.err != nil {
			m.status = msg.action + " failed: " + msg.err.Error()
		} else {
			m.status = msg.action + ": " + msg.out.ID
		}
		return m, tea.Batch(m.loadStatusCmd(), m.capsulesView.Load(time.Now().UTC()))

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.subViewFiltering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "s":
			return m, m.startSessionCmd()
		case "x":
			return m, m.stopSessionCmd("immediate")
		case "a":
			return m, m.stopSessionCmd("after_current")
		case "r":
			m.status = "refreshing"
			return m, m.refreshCmd()
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	case tabCapsules:
		m.capsulesView, tabCmd = m.capsulesView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabHistory:
		return m.historyView.View()
	case tabCapsules:
		return m.capsulesView.View()
	default:
		return m.todayView.View()
	}
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "worksmart  " + strings.Join(parts, theme.Muted.Render(" │ ")) + "  " + theme.Muted.Render(m.homeDir)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.todayView.Running() {
		left = theme.Live.Render("● tracking") + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  ::command  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "session:start":
		return m, m.startSessionCmd()
	case "session:stop":
		mode := "immediate"
		if len(parts) >= 2 {
			mode = parts[1]
		}
		return m, m.stopSessionCmd(mode)
	case "capsules:day":
		if len(parts) < 2 {
			m.status = "usage: capsules:day <YYYY-MM-DD>"
			return m, nil
		}
		day, err := time.Parse(time.DateOnly, parts[1])
		if err != nil {
			m.status = "invalid day: " + parts[1]
			return m, nil
		}
		m.activeTab = tabCapsules
		return m, m.capsulesView.Load(day)
	case "refresh":
		return m, m.refreshCmd()
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabHistory:
		return m.historyView.Filtering()
	case tabCapsules:
		return m.capsulesView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.todayView, _ = m.todayView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.capsulesView, _ = m.capsulesView.Update(sz)
}

// ─── async commands ──────────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refreshCmd() tea.Cmd {
	return tea.Batch(m.loadStatusCmd(), m.historyView.Load(), m.capsulesView.Load(time.Now().UTC()))
}

func (m Model) loadStatusCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := m.timecard.Status(context.Background())
		return todayview.StatusMsg{Status: status, At: time.Now(), Err: err}
	}
}

func (m Model) startSessionCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.timecard.StartSession(context.Background())
		return sessionChangedMsg{action: "session started", out: out, err: err}
	}
}

func (m Model) stopSessionCmd(mode string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.timecard.StopSession(context.Background(), mode)
		return sessionChangedMsg{action: "session stop (" + mode + ")", out: out, err: err}
	}
}
