// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package pms

import (
	"context"
	"time"

	"github.com/flixor/playkit/internal/logging"
	"github.com/flixor/playkit/internal/metrics"
	"github.com/flixor/playkit/internal/models"
)

// Resolver probes a server's candidate endpoints and picks the best
// reachable one. Local endpoints are preferred over remote, remote over
// relay: local networks are assumed faster and relays add latency and cost
// the server bandwidth.
type Resolver struct {
	probeTimeout time.Duration
	clientID     string
}

// ResolvedEndpoint is the outcome of a successful resolution: the winning
// endpoint, the identity the probe returned, and a client bound to it.
type ResolvedEndpoint struct {
	Endpoint models.ServerEndpoint
	Identity models.IdentityContainer
	Client   *Client
}

// NewResolver creates a resolver. probeTimeout bounds each individual probe;
// zero selects the 5s default.
func NewResolver(probeTimeout time.Duration, clientID string) *Resolver {
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &Resolver{probeTimeout: probeTimeout, clientID: clientID}
}

// Resolve ranks the candidates and probes each in order with a short
// per-candidate timeout, returning on the first success. Per-candidate
// failures are logged at debug and otherwise silent; only exhaustion is
// reported, as ErrNoReachableEndpoint. Context cancellation aborts the whole
// scan.
func (r *Resolver) Resolve(ctx context.Context, endpoints []models.ServerEndpoint, token string) (*ResolvedEndpoint, error) {
	start := time.Now()
	ranked := models.RankEndpoints(endpoints)

	for _, endpoint := range ranked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		client := NewClient(endpoint.URI, token, r.clientID, r.probeTimeout)

		probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
		identity, err := client.GetServerIdentity(probeCtx)
		cancel()

		if err != nil {
			metrics.EndpointProbes.WithLabelValues("failure").Inc()
			logging.Debug().Err(err).Str("uri", endpoint.URI).Bool("local", endpoint.Local).Bool("relay", endpoint.Relay).Msg("endpoint probe failed")
			continue
		}

		metrics.EndpointProbes.WithLabelValues("success").Inc()
		metrics.EndpointResolveDuration.Observe(time.Since(start).Seconds())
		logging.Info().Str("uri", endpoint.URI).Bool("local", endpoint.Local).Bool("relay", endpoint.Relay).Str("machine", identity.MachineIdentifier).Msg("resolved server endpoint")

		return &ResolvedEndpoint{
			Endpoint: endpoint,
			Identity: *identity,
			Client:   client,
		}, nil
	}

	logging.Warn().Int("candidates", len(ranked)).Msg("no server endpoint reachable")
	return nil, ErrNoReachableEndpoint
}
