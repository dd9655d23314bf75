// Live terminal dashboard for a running swarm.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"orbitstream-sim/internal/swarm"
)

// StatsSource is the read-only view of the swarm the dashboard polls.
type StatsSource interface {
	RunID() string
	Size() int
	Stats() swarm.Snapshot
}

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(14)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)
)

// Model renders a periodically refreshed snapshot of the swarm counters.
type Model struct {
	src  StatsSource
	spin spinner.Model
	snap swarm.Snapshot
}

// New creates a dashboard model over the given source.
func New(src StatsSource) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	return Model{src: src, spin: sp, snap: src.Stats()}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.snap = m.src.Stats()
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	header := fmt.Sprintf("%s OrbitStream swarm %s", m.spin.View(), m.src.RunID())

	rows := []string{
		titleStyle.Render(header),
		"",
		labelStyle.Render("satellites") + fmt.Sprintf("%d", m.src.Size()),
		labelStyle.Render("total sent") + fmt.Sprintf("%d", m.snap.TotalSent),
		labelStyle.Render("throughput") + fmt.Sprintf("%.0f pts/sec", m.snap.Throughput),
		labelStyle.Render("success") + okStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.snap.SuccessCount, m.snap.SuccessRate*100)),
		labelStyle.Render("errors") + errStyle.Render(fmt.Sprintf("%d", m.snap.ErrorCount)),
		labelStyle.Render("elapsed") + fmt.Sprintf("%.0fs", m.snap.ElapsedSec),
		"",
		labelStyle.Render("q to quit"),
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// Run drives the dashboard until the context is cancelled or the user
// quits.
func Run(ctx context.Context, src StatsSource) error {
	p := tea.NewProgram(New(src), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		// Cancellation is the normal end-of-run path.
		return nil
	}
	return err
}
