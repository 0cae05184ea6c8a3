// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package models

// StreamProtocol selects the delivery protocol requested from the server.
type StreamProtocol string

const (
	// ProtocolHLS is the segmented-HTTP protocol (playlist + short segments).
	ProtocolHLS StreamProtocol = "hls"

	// ProtocolDASH is the manifest-based adaptive protocol.
	ProtocolDASH StreamProtocol = "dash"
)

// StreamSelection captures the caller's choice of media variant and tracks
// for one playback attempt. The same selection must be handed to both the
// decision negotiator and the session builder; giving them different
// selections makes the server's decision and the session disagree.
type StreamSelection struct {
	// MediaIndex selects among multiple Media entries for the item.
	MediaIndex int `json:"mediaIndex"`

	// PartIndex selects among the media's parts (multi-file items).
	PartIndex int `json:"partIndex"`

	// AudioStreamID is the server-side id of the chosen audio stream.
	// Zero means server default.
	AudioStreamID int `json:"audioStreamID,omitempty"`

	// SubtitleStreamID is the server-side id of the chosen subtitle stream.
	// Zero means no subtitles requested.
	SubtitleStreamID int `json:"subtitleStreamID,omitempty"`

	// MaxVideoBitrate caps the delivered video bitrate in kbps. Zero means
	// original quality.
	MaxVideoBitrate int `json:"maxVideoBitrate,omitempty"`

	// VideoResolution caps the delivered resolution, e.g. "1920x1080".
	VideoResolution string `json:"videoResolution,omitempty"`

	// Protocol is the requested delivery protocol.
	Protocol StreamProtocol `json:"protocol"`

	// DirectStream allows the server to repackage the container without
	// re-encoding when codecs are compatible.
	DirectStream bool `json:"directStream"`
}
