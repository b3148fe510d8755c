package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/gridsweep/internal/controller"
	"github.com/specialistvlad/gridsweep/internal/ctxlog"
	"github.com/specialistvlad/gridsweep/internal/display"
	"github.com/specialistvlad/gridsweep/internal/gate"
	"github.com/specialistvlad/gridsweep/internal/results"
	"github.com/specialistvlad/gridsweep/internal/session"
	"github.com/specialistvlad/gridsweep/internal/store"
	"github.com/specialistvlad/gridsweep/internal/sweepfile"
	"github.com/specialistvlad/gridsweep/internal/tree"
	"golang.org/x/sync/errgroup"
)

// Run executes the configured sweep and saves its results when an output
// file is set. Results collected before a cancellation are saved as well;
// the cancellation is still returned.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	sw, err := a.defs.Sweep(a.config.SweepName)
	if err != nil {
		return err
	}

	if _, err := a.startHealthcheckServer(); err != nil {
		return err
	}
	defer a.closeHealthcheckServer()

	bindings := sw.Bindings.Clone()
	if len(a.config.Namespaces) > 0 {
		bindings.Namespaces = a.config.Namespaces
	}
	opts := a.sessionOptions(sw)

	a.logger.Info("Starting sweep.", "sweep", sw.Name, "root", sw.Root, "interactive", a.config.Interactive)
	var collector *results.Collector
	if a.config.Interactive {
		collector, err = a.runInteractive(ctx, sw, bindings, opts)
	} else {
		table := display.NewTable(a.outW)
		table.Title = fmt.Sprintf("Sweep %q", sw.Name)
		collector, err = session.RunSweep(ctx, a.catalog, sw.Root, bindings, append(opts, session.WithDisplay(table))...)
	}

	output := sw.Output
	if a.config.OutputPath != "" {
		output = a.config.OutputPath
	}
	if collector != nil && output != "" {
		if saveErr := store.Save(ctx, output, collector.View()); saveErr != nil {
			return errors.Join(err, saveErr)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return err
}

func (a *App) sessionOptions(sw *sweepfile.Sweep) []session.Option {
	opts := []session.Option{session.WithMetrics(a.metrics)}

	timeout := sw.Timeout
	if a.config.Timeout > 0 {
		timeout = a.config.Timeout
	}
	if timeout > 0 {
		opts = append(opts, session.WithTimeout(timeout))
	}
	if sw.MaxCombinations > 0 {
		opts = append(opts, session.WithMaxCombinations(int64(sw.MaxCombinations)))
	}
	if sw.CacheLimit != nil {
		opts = append(opts, session.WithCacheLimit(*sw.CacheLimit))
	}
	return opts
}

// runInteractive runs the sweep in the background, paced by a gate the
// foreground controller operates.
func (a *App) runInteractive(ctx context.Context, sw *sweepfile.Sweep, b tree.Bindings, opts []session.Option) (*results.Collector, error) {
	g := gate.New()
	ctrl := controller.New(ctx, g, fmt.Sprintf("Sweep %q", sw.Name), a.programOptions...)

	plan, err := session.Plan(ctx, a.catalog, sw.Root, b, append(opts,
		session.WithGate(g),
		session.WithDisplay(ctrl),
		session.WithObserver(ctrl.Observe),
	)...)
	if err != nil {
		return nil, err
	}

	var collector *results.Collector
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		c, err := plan.Run(egCtx)
		collector = c
		if err != nil {
			ctrl.Finish(err)
		}
		return err
	})
	eg.Go(ctrl.Run)

	err = eg.Wait()
	return collector, err
}
