// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package pms

import "errors"

var (
	// ErrNoReachableEndpoint is returned when every candidate endpoint
	// failed its identity probe. Non-fatal to the application; playback on
	// this server cannot start until the resolver is retried.
	ErrNoReachableEndpoint = errors.New("no reachable server endpoint")

	// ErrNegotiationFailed wraps transport or parse failures from the
	// decision endpoint. Callers may retry with a lower quality request or
	// abandon playback.
	ErrNegotiationFailed = errors.New("transcode decision negotiation failed")

	// ErrSessionStartFailed marks a session whose start request failed. The
	// session id is burned; retrying requires a new session.
	ErrSessionStartFailed = errors.New("session start failed")

	// ErrSessionState is returned on invalid session state transitions.
	ErrSessionState = errors.New("invalid session state transition")
)
