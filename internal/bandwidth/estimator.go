// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

// Package bandwidth estimates delivery bandwidth from resolution and the
// server's delivery decision. The telemetry aggregator falls back to these
// estimates when the active decoding strategy exposes no measured throughput
// (the direct strategy in particular measures nothing).
package bandwidth

import (
	"strings"

	"github.com/flixor/playkit/internal/models"
)

// Profile holds bandwidth estimates in kbps for one resolution tier.
type Profile struct {
	DirectPlayKbps float64
	TranscodeKbps  float64
}

// profiles maps normalized resolution names to bandwidth estimates. Values
// reflect typical delivery rates, not guarantees.
var profiles = map[string]Profile{
	"4k":    {DirectPlayKbps: 25000, TranscodeKbps: 15000},
	"1080p": {DirectPlayKbps: 10000, TranscodeKbps: 8000},
	"720p":  {DirectPlayKbps: 5000, TranscodeKbps: 4000},
	"sd":    {DirectPlayKbps: 2000, TranscodeKbps: 1500},
}

// defaultKbps is the fallback for unknown resolutions.
const defaultKbps = 5000

// EstimateKbps returns an estimated delivery bandwidth in kbps for the given
// resolution string and delivery decision.
func EstimateKbps(resolution string, decision models.DeliveryDecision) float64 {
	profile, ok := profiles[NormalizeResolution(resolution)]
	if !ok {
		return defaultKbps
	}
	if decision == models.DecisionTranscode || decision == models.DecisionCopy {
		return profile.TranscodeKbps
	}
	return profile.DirectPlayKbps
}

// NormalizeResolution converts the resolution formats seen on the wire
// ("1080", "1920x1080", "2160p", ...) to a profile key.
func NormalizeResolution(resolution string) string {
	switch strings.ToLower(strings.TrimSpace(resolution)) {
	case "4k", "2160", "2160p", "3840x2160", "4096x2160":
		return "4k"
	case "1080", "1080p", "1920x1080":
		return "1080p"
	case "720", "720p", "1280x720":
		return "720p"
	case "sd", "480", "480p", "576", "576p", "720x480", "640x480":
		return "sd"
	default:
		return "unknown"
	}
}
