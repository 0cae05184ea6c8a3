// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package models

// DeliveryDecision is the server's per-stream delivery verdict.
type DeliveryDecision string

const (
	// DecisionDirectPlay means the original stream is sent unmodified.
	DecisionDirectPlay DeliveryDecision = "directplay"

	// DecisionCopy means the container is repackaged without re-encoding
	// (direct stream).
	DecisionCopy DeliveryDecision = "copy"

	// DecisionTranscode means the stream is re-encoded server-side.
	DecisionTranscode DeliveryDecision = "transcode"
)

// Stream type discriminators used by the server's Stream entries.
const (
	StreamTypeVideo    = 1
	StreamTypeAudio    = 2
	StreamTypeSubtitle = 3
)

// TranscodeDecision is the normalized outcome of one negotiation call.
// Derived fresh per call and never cached: the decision depends on live
// server-side transcoder availability, not just the request.
//
// SubtitleDecision is empty when no subtitle track was part of the request;
// an absent decision is not a default.
type TranscodeDecision struct {
	GeneralCode int    `json:"generalDecisionCode"`
	GeneralText string `json:"generalDecisionText,omitempty"`

	VideoDecision    DeliveryDecision `json:"videoDecision,omitempty"`
	AudioDecision    DeliveryDecision `json:"audioDecision,omitempty"`
	SubtitleDecision DeliveryDecision `json:"subtitleDecision,omitempty"`

	// Hardware transcode hints, present only when the server reports them.
	HardwareRequested    bool `json:"transcodeHwRequested,omitempty"`
	HardwareFullPipeline bool `json:"transcodeHwFullPipeline,omitempty"`
}

// RequiresTranscode reports whether any stream in the decision is re-encoded.
func (d *TranscodeDecision) RequiresTranscode() bool {
	return d.VideoDecision == DecisionTranscode ||
		d.AudioDecision == DecisionTranscode ||
		d.SubtitleDecision == DecisionTranscode
}

// DirectPlay reports whether the whole item is delivered unmodified.
func (d *TranscodeDecision) DirectPlay() bool {
	return d.VideoDecision == DecisionDirectPlay &&
		(d.AudioDecision == "" || d.AudioDecision == DecisionDirectPlay) &&
		(d.SubtitleDecision == "" || d.SubtitleDecision == DecisionDirectPlay)
}

// Wire types for POST /video/:/transcode/universal/decision. The server
// answers with a MediaContainer whose Metadata/Media/Part/Stream hierarchy
// carries a decision attribute per stream. Every field is optional on the
// wire; tracks that were not requested simply do not appear.

// DecisionResponse is the top-level decision endpoint response.
type DecisionResponse struct {
	MediaContainer DecisionContainer `json:"MediaContainer"`
}

// DecisionContainer wraps the decision result.
type DecisionContainer struct {
	Size                int    `json:"size,omitempty"`
	GeneralDecisionCode int    `json:"generalDecisionCode,omitempty"`
	GeneralDecisionText string `json:"generalDecisionText,omitempty"`

	TranscodeHwRequested    bool `json:"transcodeHwRequested,omitempty"`
	TranscodeHwFullPipeline bool `json:"transcodeHwFullPipeline,omitempty"`

	Metadata []DecisionMetadata `json:"Metadata,omitempty"`
}

// DecisionMetadata is one media item entry in the decision response.
type DecisionMetadata struct {
	RatingKey string          `json:"ratingKey,omitempty"`
	Key       string          `json:"key,omitempty"`
	Media     []DecisionMedia `json:"Media,omitempty"`
}

// DecisionMedia is one media variant entry.
type DecisionMedia struct {
	ID       int            `json:"id,omitempty"`
	Protocol string         `json:"protocol,omitempty"`
	Part     []DecisionPart `json:"Part,omitempty"`
}

// DecisionPart is one part entry carrying the per-stream decisions.
type DecisionPart struct {
	ID       int              `json:"id,omitempty"`
	Decision string           `json:"decision,omitempty"`
	Stream   []DecisionStream `json:"Stream,omitempty"`
}

// DecisionStream is one stream entry with its delivery decision.
type DecisionStream struct {
	ID         int    `json:"id,omitempty"`
	StreamType int    `json:"streamType,omitempty"`
	Decision   string `json:"decision,omitempty"`
	Codec      string `json:"codec,omitempty"`
	Bitrate    int    `json:"bitrate,omitempty"`
}
