// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flixor/playkit/internal/config"
	"github.com/flixor/playkit/internal/models"
)

func telemetryConfig() config.TelemetryConfig {
	cfg := config.Default().Telemetry
	cfg.Enabled = true
	return cfg
}

func newTestAggregator(t *testing.T, cfg config.TelemetryConfig) (*Aggregator, *fakeDecoder) {
	t.Helper()
	dec := newFakeDecoder()
	eng := New(dec, playerConfig(), Callbacks{})
	t.Cleanup(eng.Stop)
	if err := eng.Load(context.Background(), hlsSource(0)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return NewAggregator(cfg, eng, nil), dec
}

func TestDisabledAggregatorParksWithoutTicker(t *testing.T) {
	cfg := config.Default().Telemetry // disabled by default
	agg, _ := newTestAggregator(t, cfg)
	if agg.Enabled() {
		t.Fatal("aggregator reports enabled with telemetry off")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- agg.Serve(ctx) }()

	// Give a hypothetical ticker time to fire; nothing may be produced.
	time.Sleep(50 * time.Millisecond)
	if got := agg.Latest(); !got.Timestamp.IsZero() {
		t.Error("disabled aggregator produced a snapshot")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("disabled aggregator did not stop with its context")
	}
}

func TestHardwareInference(t *testing.T) {
	cfg := telemetryConfig()
	agg, dec := newTestAggregator(t, cfg)

	now := time.Now()

	// Below the frame floor: inference withheld.
	dec.setCounters(models.DecoderCounters{FramesPresented: 100, FramesDropped: 0})
	agg.tick(now)
	agg.tick(now.Add(500 * time.Millisecond))
	if snap := agg.Latest(); snap.HardwareKnown {
		t.Error("hardware inference trusted below the minimum frame count")
	}

	// Enough frames with near-zero drops: hardware.
	dec.setCounters(models.DecoderCounters{FramesPresented: 1000, FramesDropped: 2})
	agg.tick(now.Add(time.Second))
	snap := agg.Latest()
	if !snap.HardwareKnown {
		t.Fatal("inference still withheld after enough frames")
	}
	if !snap.HardwareDecode {
		t.Errorf("drop rate %.4f read as software decode, want hardware", snap.DropRate)
	}

	// Sustained heavy drops: software decode under load.
	dec.setCounters(models.DecoderCounters{FramesPresented: 1500, FramesDropped: 200})
	for i := 0; i < cfg.WindowSamples; i++ {
		agg.tick(now.Add(time.Duration(2+i) * time.Second))
	}
	snap = agg.Latest()
	if !snap.HardwareKnown {
		t.Fatal("inference withheld despite ample frames")
	}
	if snap.HardwareDecode {
		t.Errorf("drop rate %.4f read as hardware decode, want software", snap.DropRate)
	}
}

func TestSmoothedFPSOverWindow(t *testing.T) {
	agg, dec := newTestAggregator(t, telemetryConfig())

	now := time.Now()
	dec.setCounters(models.DecoderCounters{FramesPresented: 0})
	agg.tick(now)

	// 30 frames every 500ms: 60 fps smoothed.
	for i := 1; i <= 4; i++ {
		dec.setCounters(models.DecoderCounters{FramesPresented: int64(i * 30)})
		agg.tick(now.Add(time.Duration(i) * 500 * time.Millisecond))
	}

	snap := agg.Latest()
	if snap.RenderedFPS < 59 || snap.RenderedFPS > 61 {
		t.Errorf("RenderedFPS = %.2f, want ~60", snap.RenderedFPS)
	}
}

func TestSnapshotCarriesOverMissingFields(t *testing.T) {
	agg, dec := newTestAggregator(t, telemetryConfig())

	now := time.Now()
	dec.setStats(models.StrategyStats{
		VideoCodec:     "hevc",
		AudioCodec:     "eac3",
		Width:          3840,
		Height:         2160,
		DynamicRange:   models.DynamicRangeHDR10,
		ThroughputKbps: 42000,
	})
	agg.tick(now)

	// The pipeline stops exposing codec info mid-session; the snapshot must
	// not lose it.
	dec.setStats(models.StrategyStats{})
	agg.tick(now.Add(500 * time.Millisecond))

	snap := agg.Latest()
	if snap.VideoCodec != "hevc" || snap.AudioCodec != "eac3" {
		t.Errorf("codecs = %q/%q, want carried over hevc/eac3", snap.VideoCodec, snap.AudioCodec)
	}
	if snap.Width != 3840 || snap.Height != 2160 {
		t.Errorf("resolution = %dx%d, want carried over 3840x2160", snap.Width, snap.Height)
	}
	if snap.DynamicRange != models.DynamicRangeHDR10 {
		t.Errorf("dynamic range = %q, want carried over hdr10", snap.DynamicRange)
	}
	if snap.ThroughputKbps != 42000 {
		t.Errorf("throughput = %.0f, want carried over 42000", snap.ThroughputKbps)
	}
}

func TestResetClearsCounterBaseline(t *testing.T) {
	agg, dec := newTestAggregator(t, telemetryConfig())

	now := time.Now()
	dec.setCounters(models.DecoderCounters{FramesPresented: 5000, FramesDropped: 400})
	agg.tick(now)
	agg.tick(now.Add(500 * time.Millisecond))

	// Source change: new decoder counters start from zero. Without a reset
	// the negative delta would poison the window.
	agg.Reset()
	dec.setCounters(models.DecoderCounters{FramesPresented: 30, FramesDropped: 0})
	agg.tick(now.Add(time.Second))
	dec.setCounters(models.DecoderCounters{FramesPresented: 60, FramesDropped: 0})
	agg.tick(now.Add(1500 * time.Millisecond))

	snap := agg.Latest()
	if snap.DropRate != 0 {
		t.Errorf("DropRate = %.4f after reset, want 0", snap.DropRate)
	}
}

func TestOnSnapshotCallback(t *testing.T) {
	dec := newFakeDecoder()
	eng := New(dec, playerConfig(), Callbacks{})
	t.Cleanup(eng.Stop)
	if err := eng.Load(context.Background(), hlsSource(0)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var got []models.PlaybackStats
	agg := NewAggregator(telemetryConfig(), eng, func(s models.PlaybackStats) {
		got = append(got, s)
	})

	agg.tick(time.Now())
	agg.tick(time.Now().Add(500 * time.Millisecond))
	if len(got) != 2 {
		t.Errorf("onSnapshot fired %d times, want 2", len(got))
	}
}

func TestSampleWindowRates(t *testing.T) {
	w := newSampleWindow(4)

	fps, drop := w.rates()
	if fps != 0 || drop != 0 {
		t.Errorf("empty window rates = %.2f/%.4f, want 0/0", fps, drop)
	}

	for i := 0; i < 6; i++ {
		w.push(frameSample{presented: 24, dropped: 1, elapsed: time.Second})
	}
	fps, drop = w.rates()
	if fps != 24 {
		t.Errorf("fps = %.2f, want 24", fps)
	}
	if drop != 1.0/25.0 {
		t.Errorf("drop rate = %.4f, want %.4f", drop, 1.0/25.0)
	}
}
