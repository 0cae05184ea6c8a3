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

// dashStrategy drives the manifest-adaptive path. Tuned for smooth playback
// over fast reaction: large buffer target, fast-switch off, gaps in the
// timeline auto-jumped including large ones. Automatic video bitrate
// switching is disabled when the caller controls quality manually; audio
// switching stays automatic either way.
type dashStrategy struct {
	decoder Decoder
	cfg     config.PlayerConfig

	mu       sync.Mutex
	src      Source
	attached bool
}

func (s *dashStrategy) Name() string { return "dash" }

func (s *dashStrategy) Attach(ctx context.Context, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return fmt.Errorf("%w: dash strategy already attached", ErrEngineState)
	}
	s.src = src

	logging.Debug().
		Str("strategy", s.Name()).
		Int("buffer_target_s", s.cfg.DASHBufferTargetSeconds).
		Bool("auto_video_quality", s.cfg.AutoVideoQuality).
		Msg("Attaching manifest-adaptive strategy")

	if err := s.decoder.Open(ctx, src.URL); err != nil {
		return fmt.Errorf("dash attach: %w", err)
	}
	s.attached = true
	return nil
}

func (s *dashStrategy) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil
	}
	s.attached = false
	if err := s.decoder.Close(); err != nil {
		return fmt.Errorf("dash detach: %w", err)
	}
	return nil
}

func (s *dashStrategy) Seek(ms int64) error {
	return s.decoder.SeekMs(ms)
}

func (s *dashStrategy) Stats() models.StrategyStats {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()

	stats := mergeStats(baseStats(src), s.decoder.Stats())
	stats.AutoQuality = s.cfg.AutoVideoQuality
	return stats
}
