// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

/*
telemetry.go - Telemetry Aggregator

Polls the active strategy and the platform decoder on a short interval and
normalizes what they expose into one PlaybackStats snapshot. Frame rate and
drop rate are smoothed over a small circular window of samples rather than
trusting any single instantaneous reading.

Hardware acceleration is INFERRED, not reported: once enough frames have
been presented, a drop rate under the configured ceiling (~1%) is read as
hardware decode, anything above as software decode under load. A heuristic,
not ground truth.

Disabled telemetry creates no ticker and costs nothing per tick.
*/
//nolint:staticcheck // package comment placement
package player

import (
	"context"
	"sync"
	"time"

	"github.com/flixor/playkit/internal/config"
	"github.com/flixor/playkit/internal/metrics"
	"github.com/flixor/playkit/internal/models"
)

// frameSample is one tick's worth of frame-counter deltas.
type frameSample struct {
	presented int64
	dropped   int64
	elapsed   time.Duration
}

// sampleWindow is a fixed-size circular buffer of frame samples. Smoothing
// over a handful of ticks filters out single-tick counter jitter.
type sampleWindow struct {
	samples []frameSample
	next    int
	filled  int
}

func newSampleWindow(size int) *sampleWindow {
	if size <= 0 {
		size = 8
	}
	return &sampleWindow{samples: make([]frameSample, size)}
}

func (w *sampleWindow) push(s frameSample) {
	w.samples[w.next] = s
	w.next = (w.next + 1) % len(w.samples)
	if w.filled < len(w.samples) {
		w.filled++
	}
}

func (w *sampleWindow) reset() {
	w.next = 0
	w.filled = 0
}

// rates returns the smoothed rendered FPS and drop rate over the window.
func (w *sampleWindow) rates() (fps, dropRate float64) {
	var presented, dropped int64
	var elapsed time.Duration
	for i := 0; i < w.filled; i++ {
		presented += w.samples[i].presented
		dropped += w.samples[i].dropped
		elapsed += w.samples[i].elapsed
	}
	if elapsed > 0 {
		fps = float64(presented) / elapsed.Seconds()
	}
	if total := presented + dropped; total > 0 {
		dropRate = float64(dropped) / float64(total)
	}
	return fps, dropRate
}

// Aggregator merges strategy stats and decoder counters into normalized
// snapshots. Runs as a suture service when enabled.
type Aggregator struct {
	cfg    config.TelemetryConfig
	engine *Engine

	// onSnapshot, when set, receives every completed snapshot.
	onSnapshot func(models.PlaybackStats)

	mu           sync.Mutex
	window       *sampleWindow
	lastCounters models.DecoderCounters
	lastTick     time.Time
	last         models.PlaybackStats
}

// NewAggregator builds a telemetry aggregator over the engine. onSnapshot
// may be nil.
func NewAggregator(cfg config.TelemetryConfig, engine *Engine, onSnapshot func(models.PlaybackStats)) *Aggregator {
	return &Aggregator{
		cfg:        cfg,
		engine:     engine,
		onSnapshot: onSnapshot,
		window:     newSampleWindow(cfg.WindowSamples),
	}
}

// Enabled reports whether polling is active.
func (a *Aggregator) Enabled() bool { return a.cfg.Enabled }

// Latest returns the most recent snapshot. Zero value before the first
// tick or when disabled.
func (a *Aggregator) Latest() models.PlaybackStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Reset clears the smoothing window and counter baseline. Called on source
// changes so stale counters from the previous decoder do not skew rates.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.window.reset()
	a.lastCounters = models.DecoderCounters{}
	a.lastTick = time.Time{}
}

// Serve runs the polling loop until ctx is cancelled. When telemetry is
// disabled no ticker is created; the service just parks on the context.
func (a *Aggregator) Serve(ctx context.Context) error {
	if !a.cfg.Enabled {
		<-ctx.Done()
		return ctx.Err()
	}

	interval := a.cfg.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.tick(time.Now())
		}
	}
}

// tick produces one full snapshot. Fields the active strategy cannot supply
// are carried over from the previous snapshot, never zeroed mid-session.
func (a *Aggregator) tick(now time.Time) {
	metrics.TelemetryTicks.Inc()

	strategyStats := a.engine.Stats()
	counters := a.engine.Counters()

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.lastTick.IsZero() {
		deltaPresented := counters.FramesPresented - a.lastCounters.FramesPresented
		deltaDropped := counters.FramesDropped - a.lastCounters.FramesDropped
		if deltaPresented >= 0 && deltaDropped >= 0 {
			a.window.push(frameSample{
				presented: deltaPresented,
				dropped:   deltaDropped,
				elapsed:   now.Sub(a.lastTick),
			})
		} else {
			// Counters went backwards: the decoder was replaced under us.
			a.window.reset()
		}
	}
	a.lastCounters = counters
	a.lastTick = now

	fps, dropRate := a.window.rates()

	snapshot := models.PlaybackStats{
		Timestamp:           now,
		VideoCodec:          strategyStats.VideoCodec,
		AudioCodec:          strategyStats.AudioCodec,
		Width:               strategyStats.Width,
		Height:              strategyStats.Height,
		FrameRate:           strategyStats.FrameRate,
		DynamicRange:        strategyStats.DynamicRange,
		MetadataBitrateKbps: strategyStats.MetadataBitrateKbps,
		RealtimeBitrateKbps: strategyStats.RealtimeBitrateKbps,
		BufferAheadSeconds:  strategyStats.BufferAheadSeconds,
		ThroughputKbps:      strategyStats.ThroughputKbps,
		QualityIndex:        strategyStats.QualityIndex,
		AutoQuality:         strategyStats.AutoQuality,
		RenderedFPS:         fps,
		DroppedFrames:       counters.FramesDropped,
		DropRate:            dropRate,
		AVSyncDelta:         counters.AVSyncDelta,
	}
	a.carryOver(&snapshot)
	a.inferHardware(&snapshot, counters)

	a.last = snapshot
	if a.onSnapshot != nil {
		a.onSnapshot(snapshot)
	}
}

// carryOver fills fields the current strategy could not supply from the
// previous snapshot.
func (a *Aggregator) carryOver(s *models.PlaybackStats) {
	prev := a.last
	if s.VideoCodec == "" {
		s.VideoCodec = prev.VideoCodec
	}
	if s.AudioCodec == "" {
		s.AudioCodec = prev.AudioCodec
	}
	if s.Width == 0 {
		s.Width = prev.Width
	}
	if s.Height == 0 {
		s.Height = prev.Height
	}
	if s.FrameRate == 0 {
		s.FrameRate = prev.FrameRate
	}
	if s.DynamicRange == models.DynamicRangeUnknown {
		s.DynamicRange = prev.DynamicRange
	}
	if s.MetadataBitrateKbps == 0 {
		s.MetadataBitrateKbps = prev.MetadataBitrateKbps
	}
	if s.ThroughputKbps == 0 {
		s.ThroughputKbps = prev.ThroughputKbps
	}
}

// inferHardware applies the drop-rate heuristic once enough frames have
// been presented for it to mean anything.
func (a *Aggregator) inferHardware(s *models.PlaybackStats, counters models.DecoderCounters) {
	if counters.FramesPresented < a.cfg.HardwareMinFrames {
		s.HardwareKnown = false
		s.HardwareDecode = false
		return
	}
	s.HardwareKnown = true
	s.HardwareDecode = s.DropRate < a.cfg.HardwareDropRateMax
}
