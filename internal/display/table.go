package display

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/specialistvlad/gridsweep/internal/results"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorMuted  = lipgloss.Color("#2C4A54")
	colorError  = lipgloss.Color("#E74C3C")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = cellStyle.Foreground(colorError)
	noteStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// Table renders results as a bordered table on a writer.
type Table struct {
	mu sync.Mutex
	w  io.Writer
	// Title is printed above the table when set.
	Title string
}

// NewTable creates a table display writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) Note(_ context.Context, msg string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	line := msg
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	fmt.Fprintln(t.w, noteStyle.Render(line))
}

func (t *Table) Show(_ context.Context, view results.View) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Title != "" {
		if _, err := fmt.Fprintln(t.w, titleStyle.Render(t.Title)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(t.w, Render(view)); err != nil {
		return fmt.Errorf("failed to write results table: %w", err)
	}
	_, err := fmt.Fprintf(t.w, "%d data points, %d failed\n", view.Len(), view.Failures())
	return err
}

// Render lays out a view as a table: one row per data point, input columns
// first, then result columns, then the failure column when any point failed.
func Render(view results.View) string {
	inputs, outputs := view.Columns()
	failures := view.Failures() > 0

	headers := append([]string{"#"}, inputs...)
	headers = append(headers, outputs...)
	if failures {
		headers = append(headers, "error")
	}

	points := view.Points()
	rows := make([][]string, 0, len(points))
	for _, dp := range points {
		row := []string{fmt.Sprint(dp.Index)}
		for _, name := range inputs {
			row = append(row, cell(dp.Input(name)))
		}
		for _, name := range outputs {
			row = append(row, cell(dp.Result(name)))
		}
		if failures {
			errText := ""
			if dp.Failed {
				errText = dp.ErrorKind + ": " + firstLine(dp.Error)
			}
			row = append(row, errText)
		}
		rows = append(rows, row)
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(points) && points[row].Failed {
				return failStyle
			}
			return cellStyle
		})
	return tbl.String()
}

func cell(v results.Value, ok bool) string {
	if !ok {
		return ""
	}
	if v.Kind() == results.KindString {
		return v.Str()
	}
	return v.Text()
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
