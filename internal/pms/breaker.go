// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package pms

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/flixor/playkit/internal/logging"
	"github.com/flixor/playkit/internal/metrics"
	"github.com/flixor/playkit/internal/models"
)

// BreakerClient wraps Client with a circuit breaker around the request
// paths where a slow or dying server would otherwise stall the UI: decision
// negotiation and metadata fetches. Timeline reports and session stop are
// deliberately NOT wrapped; they are best effort and their failures must
// never be amplified into rejections of unrelated calls.
//
// The breaker uses real time for its interval and timeout. Tests exercise
// the wrapped Client directly and only cover the breaker's open/closed
// behavior at this layer.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient wraps client with breaker protection.
// Opens after 60% failure rate with at least 6 requests in a 30 second
// window; half-open after 30 seconds allowing 2 probe requests.
func NewBreakerClient(client *Client) *BreakerClient {
	cbName := "pms-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 6 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// Client returns the underlying unwrapped client, for the best-effort paths
// that must bypass the breaker.
func (bc *BreakerClient) Client() *Client { return bc.client }

// execute runs fn through the breaker and records the outcome.
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "success").Inc()
	return result, nil
}

// castResult type-casts the breaker result with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Ping verifies server connectivity with breaker protection.
func (bc *BreakerClient) Ping(ctx context.Context) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.Ping(ctx)
	})
	return err
}

// GetServerIdentity fetches server identity with breaker protection.
func (bc *BreakerClient) GetServerIdentity(ctx context.Context) (*models.IdentityContainer, error) {
	return castResult[models.IdentityContainer](bc.execute(func() (interface{}, error) {
		return bc.client.GetServerIdentity(ctx)
	}))
}

// GetMetadata fetches item metadata with breaker protection.
func (bc *BreakerClient) GetMetadata(ctx context.Context, ratingKey string) (*models.MediaItem, error) {
	return castResult[models.MediaItem](bc.execute(func() (interface{}, error) {
		return bc.client.GetMetadata(ctx, ratingKey)
	}))
}

// Decide negotiates a transcode decision with breaker protection.
func (bc *BreakerClient) Decide(ctx context.Context, ratingKey string, sel models.StreamSelection) (*models.TranscodeDecision, error) {
	return castResult[models.TranscodeDecision](bc.execute(func() (interface{}, error) {
		return bc.client.Decide(ctx, ratingKey, sel)
	}))
}
