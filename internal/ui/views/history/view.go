package history

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	trackerdto "worksmart/internal/modules/tracker/dto"
	"worksmart/internal/ui/theme"
)

type HistoryPort interface {
	History(ctx context.Context) ([]trackerdto.DayTotal, error)
}

type LoadedMsg struct {
	Days []trackerdto.DayTotal
	Err  error
}

type dayItem struct {
	day trackerdto.DayTotal
}

func (i dayItem) Title() string { return i.day.Day }
func (i dayItem) Description() string {
	hours := float64(i.day.Seconds) / 3600
	return fmt.Sprintf("%.2fh tracked", hours)
}
func (i dayItem) FilterValue() string { return i.day.Day }

type Model struct {
	port   HistoryPort
	list   list.Model
	width  int
	height int
}

func New(port HistoryPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowHelp(false)
	return Model{port: port, list: l}
}

func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load reads the tracker history again.
func (m Model) Load() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{}
		}
		days, err := m.port.History(context.Background())
		return LoadedMsg{Days: days, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	case LoadedMsg:
		if msg.Err != nil {
			m.list.Title = "History: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "History"
		items := make([]list.Item, len(msg.Days))
		for i, d := range msg.Days {
			items[i] = dayItem{day: d}
		}
		return m, m.list.SetItems(items)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(m.list.View())
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}
