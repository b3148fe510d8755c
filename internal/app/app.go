package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/gridsweep/internal/catalog"
	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/metrics"
	"github.com/specialistvlad/gridsweep/internal/sweepfile"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	ctx     context.Context
	config  *Config
	catalog *catalog.Catalog
	defs    *sweepfile.Definitions

	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	httpServer *http.Server

	// programOptions are passed to the interactive controller.
	programOptions []tea.ProgramOption
}

// NewApp is the constructor for the main application. It loads the sweep
// files, registers the given modules (the built-in ones when none are
// given) plus every scripted model, and validates the resulting catalog.
//
// Conflicting registrations are programmer errors and panic.
func NewApp(outW io.Writer, cfg *Config, modules ...catalog.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	defs, err := sweepfile.Load(ctx, cfg.SweepPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sweep definitions: %w", err)
	}

	if len(modules) == 0 {
		modules = coreModules
	}
	cat := catalog.New().Load(modules...).Load(defs)
	logger.Debug("Catalog populated.", "modules", len(modules), "scripted_models", len(defs.Models))

	if err := cat.Validate(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Catalog validation passed.")

	reg := prometheus.NewRegistry()
	return &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		config:   cfg,
		catalog:  cat,
		defs:     defs,
		registry: reg,
		metrics:  metrics.New(reg),
	}, nil
}

// Catalog returns the application's catalog. This is primarily for testing.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Definitions returns the loaded sweep definitions.
func (a *App) Definitions() *sweepfile.Definitions {
	return a.defs
}
