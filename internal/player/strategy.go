// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package player

import (
	"context"

	"github.com/flixor/playkit/internal/bandwidth"
	"github.com/flixor/playkit/internal/config"
	"github.com/flixor/playkit/internal/models"
)

// Source is everything a strategy needs to attach to one stream. Read-only
// after construction; a new playback attempt gets a new Source.
type Source struct {
	// URL is the session (or direct part) URL the decoder loads.
	URL string

	// Selection is the stream selection the session was negotiated with.
	Selection models.StreamSelection

	// Decision is the server's delivery decision. Nil when unknown.
	Decision *models.TranscodeDecision

	// ResumeOffsetMs is the position to seek to once the decoder is ready.
	// Zero means start from the beginning.
	ResumeOffsetMs int64
}

// Strategy is one decoding strategy. Exactly one strategy is attached to
// the output sink at a time; Detach must complete before another Attach.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Attach configures the decoder for this source and begins loading.
	Attach(ctx context.Context, src Source) error

	// Detach stops loading and releases the decoder. Idempotent.
	Detach() error

	// Seek moves the playback position.
	Seek(ms int64) error

	// Stats reports what this strategy's delivery pipeline exposes, merged
	// with what the strategy knows statically about the source.
	Stats() models.StrategyStats
}

// newStrategy picks the strategy variant for a source. Direct-play
// decisions bypass adaptive logic entirely; otherwise the selection's
// protocol decides.
func newStrategy(dec Decoder, cfg config.PlayerConfig, src Source) Strategy {
	if src.Decision != nil && src.Decision.DirectPlay() {
		return &directStrategy{decoder: dec}
	}
	switch src.Selection.Protocol {
	case models.ProtocolDASH:
		return &dashStrategy{decoder: dec, cfg: cfg}
	default:
		return &hlsStrategy{decoder: dec, cfg: cfg, native: dec.SupportsNativeHLS()}
	}
}

// baseStats fills the stat fields derivable from the selection itself,
// independent of what the live pipeline reports.
func baseStats(src Source) models.StrategyStats {
	stats := models.StrategyStats{
		MetadataBitrateKbps: src.Selection.MaxVideoBitrate,
	}
	if stats.MetadataBitrateKbps == 0 && src.Decision != nil {
		stats.MetadataBitrateKbps = int(bandwidth.EstimateKbps(src.Selection.VideoResolution, src.Decision.VideoDecision))
	}
	return stats
}

// mergeStats overlays live pipeline stats onto the static base; live values
// win wherever the pipeline supplied one.
func mergeStats(base, live models.StrategyStats) models.StrategyStats {
	out := base
	if live.VideoCodec != "" {
		out.VideoCodec = live.VideoCodec
	}
	if live.AudioCodec != "" {
		out.AudioCodec = live.AudioCodec
	}
	if live.Width != 0 {
		out.Width = live.Width
	}
	if live.Height != 0 {
		out.Height = live.Height
	}
	if live.FrameRate != 0 {
		out.FrameRate = live.FrameRate
	}
	if live.DynamicRange != models.DynamicRangeUnknown {
		out.DynamicRange = live.DynamicRange
	}
	if live.MetadataBitrateKbps != 0 {
		out.MetadataBitrateKbps = live.MetadataBitrateKbps
	}
	if live.RealtimeBitrateKbps != 0 {
		out.RealtimeBitrateKbps = live.RealtimeBitrateKbps
	}
	if live.BufferAheadSeconds != 0 {
		out.BufferAheadSeconds = live.BufferAheadSeconds
	}
	if live.ThroughputKbps != 0 {
		out.ThroughputKbps = live.ThroughputKbps
	}
	if live.QualityIndex != 0 {
		out.QualityIndex = live.QualityIndex
	}
	return out
}
