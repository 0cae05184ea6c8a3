// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

/*
metrics_service.go - Prometheus Listener Service

Serves /metrics and /healthz on the configured address as a suture
service. When the listener is disabled in configuration the service
parks on the context instead of binding a socket, so the supervisor
tree keeps the same shape either way.
*/
//nolint:staticcheck // package comment placement
package supervisor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flixor/playkit/internal/config"
	"github.com/flixor/playkit/internal/logging"
)

const metricsShutdownTimeout = 5 * time.Second

// MetricsService exposes the Prometheus registry over HTTP.
type MetricsService struct {
	cfg config.MetricsConfig

	mu   sync.Mutex
	addr string
}

// NewMetricsService creates a metrics listener service for the given
// configuration.
func NewMetricsService(cfg config.MetricsConfig) *MetricsService {
	return &MetricsService{cfg: cfg}
}

// Addr returns the bound listen address, or "" before the listener is up.
// Mainly useful in tests when the configured port is 0.
func (s *MetricsService) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// String implements fmt.Stringer for suture log messages.
func (s *MetricsService) String() string {
	return "metrics-listener"
}

// Serve implements suture.Service. Blocks until the context is canceled
// or the listener fails.
func (s *MetricsService) Serve(ctx context.Context) error {
	if !s.cfg.Enabled {
		<-ctx.Done()
		return ctx.Err()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	bind := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		logging.Error().Str("addr", bind).Err(err).Msg("Metrics listener bind failed")
		return err
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logging.Info().Str("addr", s.addr).Msg("Metrics listener started")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("Metrics listener shutdown incomplete")
		}
		<-errCh
		s.clearAddr()
		return ctx.Err()
	case err := <-errCh:
		s.clearAddr()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *MetricsService) clearAddr() {
	s.mu.Lock()
	s.addr = ""
	s.mu.Unlock()
}
