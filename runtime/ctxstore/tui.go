package ctxstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pipebase/pipebase/runtime/kernel"
)

// tui mode renders the Context Store as a single live, auto-refreshing
// table; pipe contexts have no user-driven navigation, so the model needs
// no focus or paging state.

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
)

type tickMsg time.Time

type tuiModel struct {
	store   *Store
	spin    spinner.Model
	names   []string
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
}

func newTUIModel(parent context.Context, s *Store) tuiModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	ctx, cancel := context.WithCancel(parent)
	names := s.names()
	sort.Strings(names)
	return tuiModel{store: s, spin: sp, names: names, ctx: ctx, cancel: cancel, started: time.Now()}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tickCmd(m.store.interval))
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		select {
		case <-m.ctx.Done():
			return m, tea.Quit
		default:
		}
		return m, tickCmd(m.store.interval)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-24s %-10s %12s %12s", "PIPE", "STATE", "TOTAL", "SUCCESS")))
	b.WriteString("\n")
	snap := m.store.Snapshot()
	for _, name := range m.names {
		c := snap[name]
		style := stateStyle
		if c.State == kernel.StateDone {
			style = doneStyle
		}
		b.WriteString(fmt.Sprintf("%s %s %12d %12d\n",
			nameStyle.Render(fmt.Sprintf("%-24s", name)),
			style.Render(fmt.Sprintf("%-10s", c.State)),
			c.TotalRun, c.SuccessRun))
	}
	b.WriteString(fmt.Sprintf("\n%s  running %s — press q to quit\n", m.spin.View(), time.Since(m.started).Round(time.Second)))
	return b.String()
}

// RunTUI blocks running a bubbletea program rendering the store until the
// user quits or ctx is cancelled.
func (s *Store) RunTUI(ctx context.Context) error {
	p := tea.NewProgram(newTUIModel(ctx, s))
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}
