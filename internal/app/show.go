package app

import (
	"context"
	"fmt"
	"io"

	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/store"
)

// Show loads saved results and renders them as a table on w.
func Show(ctx context.Context, w io.Writer, path string) error {
	view, err := store.Load(ctx, path)
	if err != nil {
		return err
	}
	table := display.NewTable(w)
	table.Title = fmt.Sprintf("Sweep %s (%s)", view.ID(), path)
	return table.Show(ctx, view)
}
