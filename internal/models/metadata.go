// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package models

// Wire types for GET /library/metadata/{ratingKey}. Playkit only reads the
// narrow slice it needs for playback: the item's key/duration, the stored
// resume offset, and the available media variants and their streams.

// MetadataResponse is the top-level metadata response.
type MetadataResponse struct {
	MediaContainer MetadataContainer `json:"MediaContainer"`
}

// MetadataContainer wraps the metadata entries.
type MetadataContainer struct {
	Size     int         `json:"size,omitempty"`
	Metadata []MediaItem `json:"Metadata,omitempty"`
}

// MediaItem is one library item with its playable variants.
type MediaItem struct {
	RatingKey string `json:"ratingKey"`
	Key       string `json:"key"`
	Type      string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`

	// DurationMs is the item duration in milliseconds.
	DurationMs int64 `json:"duration,omitempty"`

	// ViewOffsetMs is the stored resume position in milliseconds.
	ViewOffsetMs int64 `json:"viewOffset,omitempty"`

	Media []MediaVariant `json:"Media,omitempty"`
}

// MediaVariant is one encode of the item (container + codec combination).
type MediaVariant struct {
	ID              int         `json:"id,omitempty"`
	Container       string      `json:"container,omitempty"`
	VideoCodec      string      `json:"videoCodec,omitempty"`
	AudioCodec      string      `json:"audioCodec,omitempty"`
	VideoResolution string      `json:"videoResolution,omitempty"`
	Bitrate         int         `json:"bitrate,omitempty"`
	Part            []MediaPart `json:"Part,omitempty"`
}

// MediaPart is one file of a variant.
type MediaPart struct {
	ID     int           `json:"id,omitempty"`
	Key    string        `json:"key,omitempty"`
	File   string        `json:"file,omitempty"`
	Size   int64         `json:"size,omitempty"`
	Stream []MediaStream `json:"Stream,omitempty"`
}

// MediaStream is one elementary stream inside a part.
type MediaStream struct {
	ID           int     `json:"id,omitempty"`
	StreamType   int     `json:"streamType,omitempty"`
	Codec        string  `json:"codec,omitempty"`
	Language     string  `json:"language,omitempty"`
	LanguageCode string  `json:"languageCode,omitempty"`
	Selected     bool    `json:"selected,omitempty"`
	FrameRate    float64 `json:"frameRate,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
}
