package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/gridsweep/internal/app"
	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcome of a sweep run through the application.
type HarnessResult struct {
	// Output is everything the app wrote: logs and the results table.
	Output string
	Err    error
	App    *app.App
	// Dir is the temporary directory the sweep files were written to.
	Dir string
}

// WriteFiles writes files, keyed by slash-separated relative path, into a
// fresh temporary directory and returns it.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// RunSweep writes files to a temporary directory and runs the application
// against it using a background context. Unset configuration falls back to
// the directory, debug logging and text output.
func RunSweep(t *testing.T, files map[string]string, cfg app.Config, modules ...catalog.Module) *HarnessResult {
	t.Helper()
	return RunSweepWithContext(context.Background(), t, files, cfg, modules...)
}

// RunSweepWithContext is RunSweep with a caller-provided context.
func RunSweepWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, modules ...catalog.Module) *HarnessResult {
	t.Helper()

	dir := WriteFiles(t, files)
	if cfg.SweepPath == "" {
		cfg.SweepPath = dir
	} else if !filepath.IsAbs(cfg.SweepPath) {
		cfg.SweepPath = filepath.Join(dir, cfg.SweepPath)
	}
	if cfg.OutputPath != "" && !filepath.IsAbs(cfg.OutputPath) {
		cfg.OutputPath = filepath.Join(dir, cfg.OutputPath)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	out := &SafeBuffer{}
	config, err := app.NewConfig(cfg)
	require.NoError(t, err)

	a, err := app.NewApp(out, config, modules...)
	if err != nil {
		return &HarnessResult{Output: out.String(), Err: err, Dir: dir}
	}
	err = a.Run(ctx)
	return &HarnessResult{Output: out.String(), Err: err, App: a, Dir: dir}
}
