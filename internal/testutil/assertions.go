package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/store"
	"github.com/stretchr/testify/require"
)

// LoadResults reads the results file at path, relative to the harness
// directory unless absolute.
func LoadResults(t *testing.T, result *HarnessResult, path string) results.View {
	t.Helper()
	if !filepath.IsAbs(path) {
		path = filepath.Join(result.Dir, path)
	}
	view, err := store.Load(context.Background(), path)
	require.NoError(t, err, "results file %s should be readable", path)
	return view
}

// ResultColumn collects one result field across every successful data
// point, in order.
func ResultColumn(view results.View, name string) []results.Value {
	var out []results.Value
	for _, dp := range view.Points() {
		if v, ok := dp.Result(name); ok {
			out = append(out, v)
		}
	}
	return out
}
