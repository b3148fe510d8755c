package controller

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/executor"
	"github.com/specialistvlad/gridsweep/internal/gate"
	"github.com/specialistvlad/gridsweep/internal/results"
)

// Controller runs the interactive program and is the sweep's display and
// progress observer. Its methods may be called from the sweep goroutine.
type Controller struct {
	program *tea.Program
	gate    *gate.Gate
}

// New creates a controller pacing g. Program options such as input and
// output streams are passed through to bubbletea.
func New(ctx context.Context, g *gate.Gate, title string, opts ...tea.ProgramOption) *Controller {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	return &Controller{
		program: tea.NewProgram(NewModel(g, title), opts...),
		gate:    g,
	}
}

// Run blocks until the user quits or the sweep finishes. Quitting early
// aborts the sweep.
func (c *Controller) Run() error {
	final, err := c.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		c.gate.Abort()
		return nil
	}
	if err != nil {
		c.gate.Abort()
		return fmt.Errorf("interactive controller failed: %w", err)
	}
	if m, ok := final.(Model); ok && !m.finished {
		c.gate.Abort()
	}
	return nil
}

// Observe forwards the progress of one combination.
func (c *Controller) Observe(p executor.Progress) {
	c.program.Send(progressMsg(p))
}

// Note forwards a message from a running computation.
func (c *Controller) Note(_ context.Context, msg string, args ...any) {
	for i := 0; i+1 < len(args); i += 2 {
		msg += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	c.program.Send(noteMsg{text: msg})
}

// Show presents the final results and ends the program.
func (c *Controller) Show(_ context.Context, view results.View) error {
	c.program.Send(doneMsg{view: view, set: true})
	return nil
}

// Finish ends the program with the sweep's error, for sweeps that stopped
// before results could be shown.
func (c *Controller) Finish(err error) {
	c.program.Send(doneMsg{err: err})
}

var _ display.Display = (*Controller)(nil)

// LoopOptions returns the loop options that connect the controller to a
// sweep.
func (c *Controller) LoopOptions() []executor.Option {
	return []executor.Option{
		executor.WithGate(c.gate),
		executor.WithDisplay(c),
		executor.WithObserver(c.Observe),
	}
}
