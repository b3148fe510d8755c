package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/gridsweep/internal/sweeperr"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitRuntime   = 1
	ExitUsage     = 2
	ExitCancelled = 130
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks mistakes in how the command was invoked.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// Execute runs the command line args against the application, writing all
// output to outW. Every failure is returned as an *ExitError.
func Execute(ctx context.Context, args []string, outW io.Writer) error {
	slog.Debug("CLI started.", "args", args)
	root := NewRootCommand(outW)
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(outW)
	return classify(root.ExecuteContext(ctx))
}

// classify maps an error to the exit code reported for it.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	code := ExitRuntime
	var usage usageError
	var sig *sweeperr.CancellationSignal
	switch {
	case errors.As(err, &usage), strings.HasPrefix(err.Error(), "unknown command"):
		code = ExitUsage
	case errors.As(err, &sig), errors.Is(err, context.Canceled):
		code = ExitCancelled
	}
	return &ExitError{Code: code, Message: err.Error(), Err: err}
}

// positional wraps a cobra argument validator so its failures count as usage
// errors.
func positional(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func flagError(_ *cobra.Command, err error) error {
	return usageError{fmt.Errorf("%w (see --help)", err)}
}
