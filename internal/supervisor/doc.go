// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

/*
Package supervisor provides process supervision for Playkit using suture v4.

The tree organizes long-running services into two layers for failure
isolation:

	RootSupervisor ("playkit")
	├── PlaybackSupervisor ("playback-layer")
	│   ├── TelemetryAggregatorService
	│   └── ProgressReporterService
	└── ObservabilitySupervisor ("observability-layer")
	    └── MetricsListenerService

Crashed services restart automatically with exponential backoff. A
reporter crash never takes the metrics listener down and vice versa.
Services implement suture.Service directly: Serve(ctx) blocks until the
context is canceled or the service fails.
*/
package supervisor
