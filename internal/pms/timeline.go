// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package pms

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/flixor/playkit/internal/models"
)

// ReportTimeline sends one playback progress report to the server. Callers
// treat this as fire and forget: the reporter swallows errors and the server
// tolerates missed reports, reconciling on the next one.
//
// Endpoint: GET /:/timeline
func (c *Client) ReportTimeline(ctx context.Context, report models.ProgressReport) error {
	query := url.Values{}
	query.Set("ratingKey", report.RatingKey)
	query.Set("key", report.Key)
	query.Set("state", string(report.State))
	query.Set("time", strconv.FormatInt(report.PositionMs, 10))
	query.Set("duration", strconv.FormatInt(report.DurationMs, 10))
	if report.SessionID != "" {
		query.Set("session", report.SessionID)
	}
	if report.Transcoding {
		query.Set("hasMDE", "1")
	}

	return c.doRequest(ctx, requestConfig{
		method:   http.MethodGet,
		path:     "/:/timeline",
		query:    query,
		expectOK: true,
	}, nil)
}
