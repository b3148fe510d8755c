package app

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. Unknown
// levels fall back to info. At debug level every record carries its call
// site as package-dir/file.go:line.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if level <= slog.LevelDebug {
		opts.AddSource = true
		opts.ReplaceAttr = shortSource
	}

	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(outW, opts)
	default:
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler)
}

func shortSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok || src == nil {
		return a
	}
	dir := filepath.Base(filepath.Dir(src.File))
	a.Value = slog.StringValue(fmt.Sprintf("%s/%s:%d", dir, filepath.Base(src.File), src.Line))
	return a
}
