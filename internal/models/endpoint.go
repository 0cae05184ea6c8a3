// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package models

import "sort"

// ServerEndpoint is one candidate network address for a media server, as
// supplied by the discovery/authentication collaborator. Endpoints are
// immutable; the resolver ranks a copy and never mutates the caller's slice.
type ServerEndpoint struct {
	// URI is the full base URL, e.g. "https://10.0.0.2:32400" or a relay URL.
	URI string `json:"uri"`

	// Protocol is the transport scheme ("http" or "https").
	Protocol string `json:"protocol,omitempty"`

	// Local is true when the endpoint is on the client's local network.
	Local bool `json:"local"`

	// Relay is true when the endpoint routes through the vendor relay
	// infrastructure. Relays add latency and cost server-side bandwidth, so
	// they rank last.
	Relay bool `json:"relay"`

	// IPv6 is true when the endpoint advertises IPv6 support.
	IPv6 bool `json:"IPv6,omitempty"`
}

// RankEndpoints returns a new slice ordered by probe preference: local
// endpoints first, then remote non-relay, then relay. Order within a tier is
// preserved from the input.
func RankEndpoints(endpoints []ServerEndpoint) []ServerEndpoint {
	ranked := make([]ServerEndpoint, len(endpoints))
	copy(ranked, endpoints)
	sort.SliceStable(ranked, func(i, j int) bool {
		return endpointTier(ranked[i]) < endpointTier(ranked[j])
	})
	return ranked
}

func endpointTier(e ServerEndpoint) int {
	switch {
	case e.Local:
		return 0
	case !e.Relay:
		return 1
	default:
		return 2
	}
}
