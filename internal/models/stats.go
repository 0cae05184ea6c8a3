// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package models

import "time"

// DynamicRange classifies the video dynamic-range pipeline.
type DynamicRange string

const (
	DynamicRangeSDR         DynamicRange = "sdr"
	DynamicRangeHDR10       DynamicRange = "hdr10"
	DynamicRangeDolbyVision DynamicRange = "dolby-vision"
	DynamicRangeUnknown     DynamicRange = ""
)

// PlaybackStats is one normalized telemetry snapshot. Every tick produces a
// full new snapshot; fields the active strategy cannot supply are carried
// over from the previous snapshot, never zeroed mid-session.
type PlaybackStats struct {
	Timestamp time.Time `json:"timestamp"`

	// Codec/format metadata.
	VideoCodec   string       `json:"videoCodec,omitempty"`
	AudioCodec   string       `json:"audioCodec,omitempty"`
	Width        int          `json:"width,omitempty"`
	Height       int          `json:"height,omitempty"`
	FrameRate    float64      `json:"frameRate,omitempty"`
	DynamicRange DynamicRange `json:"dynamicRange,omitempty"`

	// Bitrate: MetadataBitrateKbps is what the manifest/variant declares;
	// RealtimeBitrateKbps is the measured delivery rate when available.
	MetadataBitrateKbps int `json:"metadataBitrateKbps,omitempty"`
	RealtimeBitrateKbps int `json:"realtimeBitrateKbps,omitempty"`

	// Buffer and network health.
	BufferAheadSeconds float64 `json:"bufferAheadSeconds,omitempty"`
	ThroughputKbps     float64 `json:"throughputKbps,omitempty"`

	// Adaptive quality state.
	QualityIndex int  `json:"qualityIndex,omitempty"`
	AutoQuality  bool `json:"autoQuality,omitempty"`

	// Decode quality, smoothed over a short rolling window.
	RenderedFPS   float64 `json:"renderedFPS,omitempty"`
	DroppedFrames int64   `json:"droppedFrames,omitempty"`
	DropRate      float64 `json:"dropRate,omitempty"`

	// AVSyncDelta is the audio/video clock skew in seconds, signed.
	AVSyncDelta float64 `json:"avSyncDelta,omitempty"`

	// HardwareDecode is inferred from the drop rate once enough frames have
	// been presented. A heuristic, not ground truth: sustained drops below
	// ~1% are read as hardware decode, above as software decode under load.
	HardwareDecode bool `json:"hardwareDecode"`

	// HardwareKnown is false until enough frames have been presented for the
	// inference to mean anything.
	HardwareKnown bool `json:"hardwareKnown"`
}

// DecoderCounters are the raw platform-level decode quality counters read
// from the active decoder each telemetry tick.
type DecoderCounters struct {
	FramesPresented int64
	FramesDropped   int64
	AVSyncDelta     float64
}

// StrategyStats is what a decoding strategy can report about its own
// delivery pipeline. Zero values mean "not supplied by this strategy".
type StrategyStats struct {
	VideoCodec          string
	AudioCodec          string
	Width               int
	Height              int
	FrameRate           float64
	DynamicRange        DynamicRange
	MetadataBitrateKbps int
	RealtimeBitrateKbps int
	BufferAheadSeconds  float64
	ThroughputKbps      float64
	QualityIndex        int
	AutoQuality         bool
}
