// Package viz is the live terminal view of a running sampler.
package viz

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dosim/internal/mc"
)

// movesPerTick keeps the UI responsive while still making progress;
// at 30 ticks a second this is ~60k moves/s of display-limited pace.
const movesPerTick = 2000

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

type TickMsg time.Time

// Model drives the sampler from the UI loop: each tick runs a batch of
// moves, then the view renders the current entropy curve.
type Model struct {
	samp     *mc.Sampler
	sys      mc.System
	maxMoves uint64

	showN   int
	running bool
	err     error
}

func NewModel(samp *mc.Sampler, sys mc.System, maxMoves uint64) Model {
	return Model{samp: samp, sys: sys, maxMoves: maxMoves, running: true}
}

// Err reports the hook error that ended the session, if any.
func (m Model) Err() error { return m.err }

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "up", "k":
			if m.showN < m.samp.Bins.MaxN {
				m.showN++
			}
		case "down", "j":
			if m.showN > 0 {
				m.showN--
			}
		}
	case TickMsg:
		if m.done() {
			return m, tea.Quit
		}
		if m.running {
			for i := 0; i < movesPerTick && !m.done(); i++ {
				if err := m.samp.MoveOnce(); err != nil {
					m.err = err
					return m, tea.Quit
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) done() bool {
	return m.samp.Moves >= m.maxMoves || m.samp.Done()
}

// entropyCurve slices the weight table at the displayed atom count.
func (m Model) entropyCurve() []float64 {
	b := m.samp.Bins
	vals := make([]float64, b.NumE)
	for i := range vals {
		vals[i] = b.LnW[m.showN+i*(b.MaxN+1)]
	}
	return vals
}

func (m Model) View() string {
	s := m.samp
	b := s.Bins

	header := headerStyle.Render(fmt.Sprintf("dosim watch — %s / %s", s.SystemName, s.Method().Kind()))

	accepted := 0.0
	if s.Moves > 0 {
		accepted = float64(s.AcceptedMoves) / float64(s.Moves)
	}
	var maxTrips uint64
	for _, trips := range b.RoundTrips {
		if trips > maxTrips {
			maxTrips = trips
		}
	}

	rows := [][2]string{
		{"moves", fmt.Sprintf("%d / %d", s.Moves, m.maxMoves)},
		{"accepted", fmt.Sprintf("%.3f", accepted)},
		{"state", mc.StateOf(m.sys).String()},
		{"occupied bins", fmt.Sprintf("%d", b.NumStates)},
		{"gamma", fmt.Sprintf("%.3g", s.Gamma())},
		{"add/remove p", fmt.Sprintf("%.3f", s.AddRemoveProbability)},
		{"max round trips", fmt.Sprintf("%d", maxTrips)},
		{"max entropy", b.IndexToState(b.MaxSIndex).String()},
	}
	stats := ""
	for _, row := range rows {
		stats += labelStyle.Render(row[0]) + valueStyle.Render(row[1]) + "\n"
	}

	graph := "gathering data..."
	if curve := m.entropyCurve(); len(curve) > 1 {
		graph = asciigraph.Plot(curve,
			asciigraph.Height(12),
			asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("ln(w) vs energy at N=%d", m.showN)))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		graphStyle.Render(graph),
		statsStyle.Render(stats))

	status := ""
	if !m.running {
		status = pausedStyle.Render("paused")
	}
	help := helpStyle.Render("space pause · up/down atom count · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status, help)
}

// Run drives the watch UI until the run finishes or the user quits, and
// returns any hook error that stopped it.
func Run(samp *mc.Sampler, sys mc.System, maxMoves uint64) error {
	p := tea.NewProgram(NewModel(samp, sys, maxMoves))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
