// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package player

import (
	"context"
	"sync"
	"time"

	"github.com/flixor/playkit/internal/models"
)

// fakeDecoder is a controllable Decoder for engine tests. Tests emit events
// through emit() and inspect the recorded control calls.
type fakeDecoder struct {
	mu sync.Mutex

	events chan DecoderEvent

	opens    int
	closes   int
	plays    int
	pauses   int
	resumes  int
	recovers int
	seeks    []int64
	openURLs []string

	attached bool
	overlap  bool

	pos      int64
	dur      int64
	counters models.DecoderCounters
	stats    models.StrategyStats
	native   bool
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{events: make(chan DecoderEvent, 32)}
}

func (f *fakeDecoder) emit(ev DecoderEvent) {
	f.events <- ev
}

func (f *fakeDecoder) Open(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attached {
		f.overlap = true
	}
	f.attached = true
	f.opens++
	f.openURLs = append(f.openURLs, url)
	return nil
}

func (f *fakeDecoder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attached = false
	f.closes++
	return nil
}

func (f *fakeDecoder) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return nil
}

func (f *fakeDecoder) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return nil
}

func (f *fakeDecoder) SeekMs(ms int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, ms)
	f.pos = ms
	return nil
}

func (f *fakeDecoder) PositionMs() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *fakeDecoder) DurationMs() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dur
}

func (f *fakeDecoder) ResumeLoading() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	return nil
}

func (f *fakeDecoder) RecoverMedia() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recovers++
	return nil
}

func (f *fakeDecoder) Stats() models.StrategyStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeDecoder) Counters() models.DecoderCounters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counters
}

func (f *fakeDecoder) SupportsNativeHLS() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.native
}

func (f *fakeDecoder) Events() <-chan DecoderEvent { return f.events }

func (f *fakeDecoder) setPos(ms int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = ms
}

func (f *fakeDecoder) setCounters(c models.DecoderCounters) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = c
}

func (f *fakeDecoder) setStats(s models.StrategyStats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = s
}

func (f *fakeDecoder) snapshot() fakeDecoder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeDecoder{
		opens:    f.opens,
		closes:   f.closes,
		plays:    f.plays,
		pauses:   f.pauses,
		resumes:  f.resumes,
		recovers: f.recovers,
		seeks:    append([]int64(nil), f.seeks...),
		openURLs: append([]string(nil), f.openURLs...),
		overlap:  f.overlap,
		pos:      f.pos,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
