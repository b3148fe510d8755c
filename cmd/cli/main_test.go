package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/gridsweep/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestRun_ParseFailure(t *testing.T) {
	t.Parallel()

	// A sweep file with a syntax error fails while the app loads it.
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte("sweep \"broken\" {\n  root = \n"), 0o600)
	require.NoError(t, err, "failed to set up test file")

	out := &bytes.Buffer{}
	runErr := run(context.Background(), out, []string{"run", filePath})

	require.Error(t, runErr)
	var exitErr *cli.ExitError
	require.True(t, errors.As(runErr, &exitErr))
	require.Equal(t, cli.ExitRuntime, exitErr.Code)
	require.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--help"})

	require.NoError(t, err, "run() should return a nil error when help is requested")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, cli.ExitUsage, exitErr.Code)
}
