package today

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	daemonin "worksmart/internal/modules/daemon/port/in"
	"worksmart/internal/ui/theme"
)

// StatusMsg carries a fresh daemon status into the view.
type StatusMsg struct {
	Status daemonin.RuntimeStatus
	At     time.Time
	Err    error
}

// Model is the timecard: daemon state, the running session and today's total.
type Model struct {
	status  daemonin.RuntimeStatus
	fetched time.Time
	now     time.Time
	err     error
	width   int
	height  int
}

func New() Model {
	return Model{}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.status = msg.Status
			m.fetched = msg.At
			m.now = msg.At
		}
	case TickMsg:
		m.now = time.Time(msg)
	}
	return m, nil
}

// TickMsg advances the live clock between status refreshes.
type TickMsg time.Time

func (m Model) Running() bool {
	return m.status.Reachable && m.status.Status.SessionRunning
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Timecard") + "\n\n")

	switch {
	case m.err != nil:
		sb.WriteString(theme.Error.Render(m.err.Error()) + "\n")
	case !m.status.Running:
		sb.WriteString(theme.Muted.Render("daemon not running; start it with `worksmart daemon start`") + "\n")
	case !m.status.Reachable:
		sb.WriteString(theme.Error.Render(fmt.Sprintf("daemon pid %d is not answering on %s", m.status.PID, m.status.SocketPath)) + "\n")
	default:
		st := m.status.Status
		sb.WriteString(theme.Muted.Render("daemon:   ") + fmt.Sprintf("pid %d, up since %s", st.PID, st.StartedAt.Local().Format(time.Kitchen)) + "\n")
		sb.WriteString(theme.Muted.Render("provider: ") + st.Provider + "\n\n")
		if st.SessionRunning {
			sb.WriteString(theme.Live.Render("● tracking") + "  " + theme.Muted.Render(st.SessionID) + "\n")
			sb.WriteString(theme.Clock.Render(FormatDuration(m.sessionElapsed())) + "\n")
		} else {
			sb.WriteString(theme.Muted.Render("○ idle") + "\n")
			sb.WriteString(theme.Clock.Render(FormatDuration(0)) + "\n")
		}
		sb.WriteString(theme.Muted.Render("today:    ") + FormatDuration(time.Duration(st.TodaySeconds)*time.Second) + theme.Muted.Render("  ("+st.Day+")") + "\n")
	}

	sb.WriteString("\n" + theme.Muted.Render("s: start  x: stop now  a: stop after capsule  r: refresh"))
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(theme.Pane.Render(sb.String()))
}

func (m Model) sessionElapsed() time.Duration {
	started := m.status.Status.SessionStartedAt
	if started.IsZero() || m.now.Before(started) {
		return 0
	}
	return m.now.Sub(started).Truncate(time.Second)
}

// FormatDuration renders d as H:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
