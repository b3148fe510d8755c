// Package controller is the interactive front end of a paced sweep.
//
// The sweep runs in the background and blocks on a gate before every
// combination after the first. The controller shows progress as it arrives
// and turns key presses into gate operations: step releases one
// combination, continue releases every combination as soon as the previous
// one has finished, pause returns to stepping and quit aborts the sweep.
//
// The bubbletea model is single-threaded. Other goroutines talk to it only
// through messages sent by Controller.
package controller

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/executor"
	"github.com/specialistvlad/gridsweep/internal/gate"
	"github.com/specialistvlad/gridsweep/internal/results"
)

// recentLimit bounds the progress and note lines kept on screen.
const recentLimit = 8

type progressMsg executor.Progress

type noteMsg struct {
	text string
}

type doneMsg struct {
	view results.View
	err  error
	set  bool
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5F7A85"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the controller.
type Model struct {
	gate  *gate.Gate
	title string
	total *big.Int

	auto     bool
	aborting bool
	finished bool

	completed int
	failed    int
	recent    []executor.Progress
	notes     []string

	view    results.View
	hasView bool
	err     error
}

// NewModel creates a model driving g. It starts in step mode. The size of
// the sweep is learned from the first progress report.
func NewModel(g *gate.Gate, title string) Model {
	return Model{gate: g, title: title}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case progressMsg:
		m.completed++
		if msg.Total != nil {
			m.total = msg.Total
		}
		if msg.Failed {
			m.failed++
		}
		m.recent = appendRecent(m.recent, executor.Progress(msg))
		if m.auto && !m.aborting {
			m.gate.Release()
		}
		return m, nil

	case noteMsg:
		m.notes = appendRecent(m.notes, msg.text)
		return m, nil

	case doneMsg:
		m.finished = true
		if msg.set {
			m.view, m.hasView = msg.view, true
		}
		if msg.err != nil {
			m.err = msg.err
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.gate.Abort()
		m.aborting = true
		return m, tea.Quit
	case "q", "esc":
		m.gate.Abort()
		m.aborting = true
	case "n", " ", "space", "enter":
		if !m.aborting {
			m.auto = false
			m.gate.Release()
		}
	case "c":
		if !m.aborting {
			m.auto = true
			m.gate.Release()
		}
	case "p":
		m.auto = false
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	total := "?"
	if m.total != nil {
		total = m.total.String()
	}
	fmt.Fprintf(&b, "%d of %s combinations done, %d failed", m.completed, total, m.failed)
	switch {
	case m.finished:
		b.WriteString(" (finished)")
	case m.aborting:
		b.WriteString(" (aborting)")
	case m.auto:
		b.WriteString(" (running)")
	default:
		b.WriteString(" (paused)")
	}
	b.WriteString("\n\n")

	for _, p := range m.recent {
		line := fmt.Sprintf("#%d %s %s", p.Index, formatInputs(p.Inputs), p.Elapsed.Round(time.Microsecond))
		if p.Failed {
			line = failStyle.Render(line + " " + p.ErrorKind)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, n := range m.notes {
		b.WriteString(mutedStyle.Render(n))
		b.WriteString("\n")
	}

	if m.hasView {
		b.WriteString("\n")
		b.WriteString(display.Render(m.view))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(failStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	if !m.finished {
		b.WriteString(helpStyle.Render("n/space: step  c: continue  p: pause  q: abort"))
		b.WriteString("\n")
	}
	return b.String()
}

// Completed returns how many combinations have been reported.
func (m Model) Completed() int {
	return m.completed
}

// Err returns the error the sweep finished with, if any.
func (m Model) Err() error {
	return m.err
}

func formatInputs(fields []results.Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Name+"="+f.Value.Text())
	}
	return strings.Join(parts, " ")
}

func appendRecent[T any](s []T, v T) []T {
	s = append(s, v)
	if len(s) > recentLimit {
		s = s[len(s)-recentLimit:]
	}
	return s
}
