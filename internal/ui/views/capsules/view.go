package capsules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	capsuledto "worksmart/internal/modules/capsule/dto"
	"worksmart/internal/ui/theme"
)

type CatalogPort interface {
	List(ctx context.Context, day time.Time) ([]capsuledto.CapsuleSummary, error)
}

type LoadedMsg struct {
	Day      time.Time
	Capsules []capsuledto.CapsuleSummary
	Err      error
}

type capsuleItem struct {
	c capsuledto.CapsuleSummary
}

func (i capsuleItem) Title() string {
	return i.c.StartedAt.Local().Format("15:04:05") + "  " + i.c.ID
}
func (i capsuleItem) Description() string {
	return fmt.Sprintf("%s  %s", i.c.EndedAt.Sub(i.c.StartedAt).Truncate(time.Second), i.c.EndReason)
}
func (i capsuleItem) FilterValue() string { return i.c.ID }

type Model struct {
	port   CatalogPort
	day    time.Time
	list   list.Model
	detail viewport.Model
	width  int
	height int
}

func New(port CatalogPort, day time.Time) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Styles.Title = theme.Title
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)

	m := Model{port: port, day: day, list: l, detail: vp}
	m.list.Title = m.title()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.Load(m.day)
}

// Load lists the capsules that started on day (UTC).
func (m Model) Load(day time.Time) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{Day: day}
		}
		items, err := m.port.List(context.Background(), day)
		return LoadedMsg{Day: day, Capsules: items, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case LoadedMsg:
		m.day = msg.Day
		m.list.Title = m.title()
		if msg.Err != nil {
			m.list.Title += ": " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, len(msg.Capsules))
		for i, c := range msg.Capsules {
			items[i] = capsuleItem{c: c}
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.detail.SetContent(m.renderDetail())
		return m, tea.Batch(cmds...)
	}

	prev := m.list.Index()
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	if m.list.Index() != prev {
		m.detail.SetContent(m.renderDetail())
	}
	m.detail, cmd = m.detail.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	listW := m.width / 2
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := theme.Pane.Width(m.width - listW - 2).Height(m.height - 2).Padding(0).Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) resize() {
	listW := m.width / 2
	m.list.SetSize(listW, m.height)
	m.detail.Width = m.width - listW - 4
	m.detail.Height = m.height - 4
}

func (m Model) title() string {
	return "Capsules " + m.day.UTC().Format("2006-01-02")
}

func (m Model) renderDetail() string {
	item, ok := m.list.SelectedItem().(capsuleItem)
	if !ok {
		return theme.Muted.Render("no capsules recorded on this day")
	}
	c := item.c
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(c.ID) + "\n\n")
	sb.WriteString(theme.Muted.Render("session:    ") + c.SessionID + "\n")
	sb.WriteString(theme.Muted.Render("started:    ") + c.StartedAt.Local().Format(time.DateTime) + "\n")
	sb.WriteString(theme.Muted.Render("ended:      ") + c.EndedAt.Local().Format(time.DateTime) + "\n")
	sb.WriteString(theme.Muted.Render("reason:     ") + c.EndReason + "\n")
	sb.WriteString(fmt.Sprintf("%s%d\n", theme.Muted.Render("clicks:     "), c.Clicks))
	sb.WriteString(fmt.Sprintf("%s%d\n", theme.Muted.Render("keystrokes: "), c.Keystrokes))
	sb.WriteString(fmt.Sprintf("%s%d\n", theme.Muted.Render("windows:    "), c.Windows))
	sb.WriteString(fmt.Sprintf("%s%d\n", theme.Muted.Render("media:      "), c.Media))
	sb.WriteString(theme.Muted.Render("path:       ") + c.StoragePath + "\n")
	return sb.String()
}
