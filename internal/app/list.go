package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/schema"
)

var listHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var listCellStyle = lipgloss.NewStyle().Padding(0, 1)

// List writes the catalog and the declared sweeps to w.
func (a *App) List(w io.Writer) error {
	rows := make([][]string, 0)
	for _, impl := range a.catalog.Implementations() {
		params := make([]string, 0, len(impl.Params))
		for _, p := range impl.Params {
			params = append(params, formatParam(p))
		}
		rows = append(rows, []string{impl.Abstract, impl.Name, strings.Join(params, "\n"), impl.Description})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TYPE", "IMPLEMENTATION", "PARAMETERS", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle
			}
			return listCellStyle
		})
	if _, err := fmt.Fprintln(w, tbl.String()); err != nil {
		return err
	}

	for _, s := range a.defs.Sweeps {
		if _, err := fmt.Fprintf(w, "sweep %q: root %s (%s)\n", s.Name, s.Root, s.Filename); err != nil {
			return err
		}
	}
	return nil
}

func formatParam(p schema.Param) string {
	out := p.Name + ": " + p.TypeString()
	if len(p.Default) > 0 {
		defaults := make([]string, 0, len(p.Default))
		for _, d := range p.Default {
			if v, err := results.FromCty(d); err == nil {
				defaults = append(defaults, v.String())
			}
		}
		out += " = " + strings.Join(defaults, ", ")
	}
	return out
}
