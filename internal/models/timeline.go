// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package models

// PlaybackState is the timeline state token sent to the server.
type PlaybackState string

const (
	StatePlaying   PlaybackState = "playing"
	StatePaused    PlaybackState = "paused"
	StateStopped   PlaybackState = "stopped"
	StateBuffering PlaybackState = "buffering"
)

// ProgressReport is one fire-and-forget timeline update. No acknowledgement
// is required for correctness; the server uses these to reconcile transcode
// job state with playback position and to persist resume offsets.
type ProgressReport struct {
	// RatingKey identifies the media item.
	RatingKey string `json:"ratingKey"`

	// Key is the server-relative metadata path, e.g. "/library/metadata/49".
	Key string `json:"key"`

	// PositionMs is the playback position in integer milliseconds.
	PositionMs int64 `json:"time"`

	// DurationMs is the total duration in integer milliseconds.
	DurationMs int64 `json:"duration"`

	State PlaybackState `json:"state"`

	// SessionID correlates the report with an active transcode job. Empty
	// when the item is direct-played with no server-side session.
	SessionID string `json:"session,omitempty"`

	// Transcoding mirrors whether a transcode session is active.
	Transcoding bool `json:"transcoding,omitempty"`
}

// IdentityResponse is the response from the GET /identity probe.
type IdentityResponse struct {
	MediaContainer IdentityContainer `json:"MediaContainer"`
}

// IdentityContainer wraps server identity information.
type IdentityContainer struct {
	MachineIdentifier string `json:"machineIdentifier"`
	Version           string `json:"version"`
	Platform          string `json:"platform,omitempty"`
}
