package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/gridsweep/internal/ctxlog"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// startHealthcheckServer serves /health and /metrics until
// closeHealthcheckServer is called. It returns the bound address.
func (a *App) startHealthcheckServer() (string, error) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Configuring health check server.")
	if a.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled.")
		return "", nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.HealthcheckPort))
	if err != nil {
		return "", fmt.Errorf("failed to start health check server: %w", err)
	}
	a.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Health check server starting.", "address", ln.Addr().String())
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly.", "error", err)
		}
	}()
	return ln.Addr().String(), nil
}

func (a *App) closeHealthcheckServer() error {
	logger := ctxlog.FromContext(a.ctx)
	if a.httpServer == nil {
		logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Debug("Shutting down health check server.")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed.", "error", err)
		return err
	}
	a.httpServer = nil
	return nil
}
