// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package pms

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/flixor/playkit/internal/metrics"
	"github.com/flixor/playkit/internal/models"
)

// decisionRequest is the JSON body sent to the decision endpoint.
type decisionRequest struct {
	RatingKey string                 `json:"ratingKey"`
	Path      string                 `json:"path"`
	Selection models.StreamSelection `json:"selection"`
}

// Decide asks the server what delivery decision it will make for the given
// item and selection. Always a fresh network call: the answer depends on
// live transcoder and hardware availability, so caching a decision across
// track or quality changes would lie.
//
// Tracks that are not part of the request simply do not appear in the
// response; their decisions stay empty in the result rather than defaulting.
//
// Endpoint: POST /video/:/transcode/universal/decision
func (c *Client) Decide(ctx context.Context, ratingKey string, sel models.StreamSelection) (*models.TranscodeDecision, error) {
	body := decisionRequest{
		RatingKey: ratingKey,
		Path:      "/library/metadata/" + ratingKey,
		Selection: sel,
	}

	var resp models.DecisionResponse
	err := c.doRequest(ctx, requestConfig{
		method:     http.MethodPost,
		path:       "/video/:/transcode/universal/decision",
		body:       body,
		acceptJSON: true,
		expectOK:   true,
	}, &resp)
	if err != nil {
		metrics.DecisionRequests.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: %w", ErrNegotiationFailed, err)
	}

	metrics.DecisionRequests.WithLabelValues("success").Inc()
	return parseDecision(&resp.MediaContainer), nil
}

// parseDecision flattens the container's Metadata/Media/Part/Stream
// hierarchy into the normalized per-track decision.
func parseDecision(mc *models.DecisionContainer) *models.TranscodeDecision {
	decision := &models.TranscodeDecision{
		GeneralCode:          mc.GeneralDecisionCode,
		GeneralText:          mc.GeneralDecisionText,
		HardwareRequested:    mc.TranscodeHwRequested,
		HardwareFullPipeline: mc.TranscodeHwFullPipeline,
	}

	for _, meta := range mc.Metadata {
		for _, media := range meta.Media {
			for _, part := range media.Part {
				for _, stream := range part.Stream {
					d := models.DeliveryDecision(stream.Decision)
					if d == "" {
						continue
					}
					switch stream.StreamType {
					case models.StreamTypeVideo:
						decision.VideoDecision = d
					case models.StreamTypeAudio:
						decision.AudioDecision = d
					case models.StreamTypeSubtitle:
						decision.SubtitleDecision = d
					}
				}
			}
		}
	}
	return decision
}

// selectionQuery encodes a StreamSelection as transcode start URL
// parameters. Both the decision request and the start URL derive from the
// same selection; building them from different selections makes the server's
// decision and the session disagree.
func selectionQuery(sel models.StreamSelection) map[string]string {
	q := map[string]string{
		"mediaIndex": strconv.Itoa(sel.MediaIndex),
		"partIndex":  strconv.Itoa(sel.PartIndex),
		"protocol":   string(sel.Protocol),
		"directPlay": "0",
	}
	if sel.DirectStream {
		q["directStream"] = "1"
	} else {
		q["directStream"] = "0"
	}
	if sel.AudioStreamID != 0 {
		q["audioStreamID"] = strconv.Itoa(sel.AudioStreamID)
	}
	if sel.SubtitleStreamID != 0 {
		q["subtitleStreamID"] = strconv.Itoa(sel.SubtitleStreamID)
	}
	if sel.MaxVideoBitrate != 0 {
		q["maxVideoBitrate"] = strconv.Itoa(sel.MaxVideoBitrate)
	}
	if sel.VideoResolution != "" {
		q["videoResolution"] = sel.VideoResolution
	}
	return q
}
