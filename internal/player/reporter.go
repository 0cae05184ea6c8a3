// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

/*
reporter.go - Progress Reporter

Pushes playback position to the server on every state transition plus a
steady interval while playing. Reporting is best effort by contract:
playback must never pause or fail because a timeline update could not be
delivered, so every error here is swallowed, logged at debug, and counted.

A rate limiter caps report bursts around rapid state flapping.
*/
//nolint:staticcheck // package comment placement
package player

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/flixor/playkit/internal/config"
	"github.com/flixor/playkit/internal/logging"
	"github.com/flixor/playkit/internal/metrics"
	"github.com/flixor/playkit/internal/models"
	"github.com/flixor/playkit/internal/pms"
)

// PositionFunc supplies the current playback position, duration, and state.
type PositionFunc func() (positionMs, durationMs int64, state models.PlaybackState)

// Reporter is the progress reporter for one playback session. Implements
// suture's Serve contract.
type Reporter struct {
	client   *pms.Client
	cfg      config.TimelineConfig
	limiter  *rate.Limiter
	position PositionFunc

	ratingKey   string
	key         string
	sessionID   string
	transcoding bool

	transitions chan models.PlaybackState
}

// NewReporter builds a reporter for one media item. sessionID is empty for
// direct play with no server-side transcode session.
func NewReporter(client *pms.Client, cfg config.TimelineConfig, ratingKey string, sessionID string, transcoding bool, position PositionFunc) *Reporter {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 3
	}
	return &Reporter{
		client:      client,
		cfg:         cfg,
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		position:    position,
		ratingKey:   ratingKey,
		key:         "/library/metadata/" + ratingKey,
		sessionID:   sessionID,
		transcoding: transcoding,
		transitions: make(chan models.PlaybackState, 8),
	}
}

// NotifyState queues a state-transition report. Never blocks; if the queue
// is full the transition is dropped (the next interval report reconciles).
func (r *Reporter) NotifyState(state models.PlaybackState) {
	select {
	case r.transitions <- state:
	default:
		metrics.TimelineReports.WithLabelValues("throttled").Inc()
	}
}

// Serve reports until ctx is cancelled. The interval ticker is torn down
// deterministically with the context.
func (r *Reporter) Serve(ctx context.Context) error {
	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state := <-r.transitions:
			pos, dur, _ := r.position()
			r.report(ctx, pos, dur, state)
		case <-ticker.C:
			pos, dur, state := r.position()
			if state == models.StatePlaying {
				r.report(ctx, pos, dur, state)
			}
		}
	}
}

// report sends one timeline update. Failures never propagate.
func (r *Reporter) report(ctx context.Context, positionMs, durationMs int64, state models.PlaybackState) {
	if !r.limiter.Allow() {
		metrics.TimelineReports.WithLabelValues("throttled").Inc()
		return
	}

	err := r.client.ReportTimeline(ctx, models.ProgressReport{
		RatingKey:   r.ratingKey,
		Key:         r.key,
		PositionMs:  positionMs,
		DurationMs:  durationMs,
		State:       state,
		SessionID:   r.sessionID,
		Transcoding: r.transcoding,
	})
	if err != nil {
		metrics.TimelineReports.WithLabelValues("failure").Inc()
		logging.Debug().Err(err).Str("state", string(state)).Msg("Timeline report failed")
		return
	}
	metrics.TimelineReports.WithLabelValues("success").Inc()
}
