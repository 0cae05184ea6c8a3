// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

// Package metrics exposes Prometheus instrumentation for Playkit:
// connection probing, decision negotiation, session lifecycle, engine
// recovery, telemetry, and timeline reporting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection resolver metrics.
	EndpointProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playkit_endpoint_probes_total",
			Help: "Total endpoint identity probes by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	EndpointResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playkit_endpoint_resolve_duration_seconds",
			Help:    "Time to resolve a reachable endpoint",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	// Negotiation metrics.
	DecisionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playkit_decision_requests_total",
			Help: "Total transcode decision negotiations by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	// Session lifecycle metrics.
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playkit_sessions_started_total",
			Help: "Total playback sessions started",
		},
	)

	SessionStartFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playkit_session_start_failures_total",
			Help: "Total session start requests that failed",
		},
	)

	SessionsStopped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playkit_sessions_stopped_total",
			Help: "Total session stop requests by outcome",
		},
		[]string{"outcome"}, // "clean", "failed"
	)

	// Engine metrics.
	EngineTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playkit_engine_transitions_total",
			Help: "Engine state machine transitions",
		},
		[]string{"from", "to"},
	)

	EngineRecoveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playkit_engine_recoveries_total",
			Help: "In-place engine recoveries by kind",
		},
		[]string{"kind"}, // "stall_resume", "append_nudge", "network_restart", "media_recover"
	)

	CodecFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playkit_codec_fallbacks_total",
			Help: "Errors classified as codec fallback (renegotiation requested)",
		},
	)

	FatalPlaybackErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playkit_fatal_playback_errors_total",
			Help: "Playback errors surfaced to the caller as fatal",
		},
	)

	// Timeline reporter metrics. Failures are swallowed by design, so the
	// counter is the only visibility into them.
	TimelineReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playkit_timeline_reports_total",
			Help: "Timeline progress reports by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "throttled"
	)

	// Telemetry metrics.
	TelemetryTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playkit_telemetry_ticks_total",
			Help: "Telemetry aggregation ticks while enabled",
		},
	)

	// Circuit breaker metrics, labeled by breaker name.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "playkit_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playkit_circuit_breaker_requests_total",
			Help: "Requests through circuit breakers by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playkit_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
