// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/flixor/playkit/internal/config"
	"github.com/flixor/playkit/internal/logging"
	"github.com/flixor/playkit/internal/models"
)

// hlsStrategy drives the segmented-HTTP path. Generous buffer length with a
// byte cap for high-bitrate content, relaxed timeouts, and bounded
// fragment/manifest retries. When the platform decodes HLS natively the
// native path is preferred over the library one.
type hlsStrategy struct {
	decoder Decoder
	cfg     config.PlayerConfig
	native  bool

	mu       sync.Mutex
	src      Source
	attached bool
}

func (s *hlsStrategy) Name() string {
	if s.native {
		return "hls-native"
	}
	return "hls"
}

func (s *hlsStrategy) Attach(ctx context.Context, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return fmt.Errorf("%w: hls strategy already attached", ErrEngineState)
	}
	s.src = src

	logging.Debug().
		Str("strategy", s.Name()).
		Int("buffer_s", s.cfg.HLSBufferSeconds).
		Int64("max_buffer_bytes", s.cfg.HLSMaxBufferBytes).
		Int("fragment_retries", s.cfg.FragmentRetries).
		Int("manifest_retries", s.cfg.ManifestRetries).
		Msg("Attaching segmented-HTTP strategy")

	if err := s.decoder.Open(ctx, src.URL); err != nil {
		return fmt.Errorf("hls attach: %w", err)
	}
	s.attached = true
	return nil
}

func (s *hlsStrategy) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil
	}
	s.attached = false
	if err := s.decoder.Close(); err != nil {
		return fmt.Errorf("hls detach: %w", err)
	}
	return nil
}

func (s *hlsStrategy) Seek(ms int64) error {
	return s.decoder.SeekMs(ms)
}

func (s *hlsStrategy) Stats() models.StrategyStats {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()

	stats := mergeStats(baseStats(src), s.decoder.Stats())
	stats.AutoQuality = s.cfg.AutoVideoQuality
	return stats
}
