// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

// Package models defines the data structures shared across Playkit: server
// endpoints, stream selections, transcode decisions, playback statistics, and
// timeline reports. Wire types mirror the Plex-compatible server's JSON
// responses; domain types are the normalized forms the rest of the code
// consumes.
package models
