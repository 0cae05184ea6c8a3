// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

/*
tree.go - Supervisor Tree

Hierarchical suture supervision for the long-running playback services.
Two layers isolate failures from each other:

  - playback: telemetry aggregator and progress reporter
  - observability: the Prometheus /metrics listener

A crash in the reporter must not take down the metrics endpoint, and a
bad metrics bind must not interrupt playback reporting.
*/
//nolint:staticcheck // package comment placement
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree manages the supervisor hierarchy for a playback process.
type Tree struct {
	root          *suture.Supervisor
	playback      *suture.Supervisor
	observability *suture.Supervisor
	logger        *slog.Logger
	config        TreeConfig
}

// NewTree creates a supervisor tree with the given configuration.
// Zero-valued config fields fall back to DefaultTreeConfig values.
func NewTree(logger *slog.Logger, config TreeConfig) (*Tree, error) {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// sutureslog's MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}
	eventHook := handler.MustHook()

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Children inherit the EventHook from the root.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("playkit", rootSpec)
	playback := suture.New("playback-layer", childSpec)
	observability := suture.New("observability-layer", childSpec)

	root.Add(playback)
	root.Add(observability)

	return &Tree{
		root:          root,
		playback:      playback,
		observability: observability,
		logger:        logger,
		config:        config,
	}, nil
}

// Root returns the root supervisor for direct access if needed.
func (t *Tree) Root() *suture.Supervisor {
	return t.root
}

// AddPlaybackService adds a service to the playback layer supervisor.
// Use this for the telemetry aggregator and the progress reporter.
func (t *Tree) AddPlaybackService(svc suture.Service) suture.ServiceToken {
	return t.playback.Add(svc)
}

// AddObservabilityService adds a service to the observability layer
// supervisor. Use this for the metrics listener.
func (t *Tree) AddObservabilityService(svc suture.Service) suture.ServiceToken {
	return t.observability.Add(svc)
}

// RemovePlaybackService removes a service added with AddPlaybackService.
// Used when a playback session ends and its reporter goes away.
func (t *Tree) RemovePlaybackService(token suture.ServiceToken) error {
	return t.playback.Remove(token)
}

// Serve starts the supervisor tree and blocks until the context is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a background goroutine. Returns a
// channel that receives the error (or nil) when the supervisor stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport returns services that failed to stop within the
// configured shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// RemoveAndWait removes a service and waits for it to fully stop.
func (t *Tree) RemoveAndWait(token suture.ServiceToken, timeout time.Duration) error {
	return t.root.RemoveAndWait(token, timeout)
}
