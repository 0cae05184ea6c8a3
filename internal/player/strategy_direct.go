// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/flixor/playkit/internal/logging"
	"github.com/flixor/playkit/internal/models"
)

// directStrategy has no adaptive logic: the media URL goes straight to the
// decode sink.
type directStrategy struct {
	decoder Decoder

	mu       sync.Mutex
	src      Source
	attached bool
}

func (s *directStrategy) Name() string { return "direct" }

func (s *directStrategy) Attach(ctx context.Context, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return fmt.Errorf("%w: direct strategy already attached", ErrEngineState)
	}
	s.src = src

	logging.Debug().Str("strategy", s.Name()).Msg("Attaching direct strategy")

	if err := s.decoder.Open(ctx, src.URL); err != nil {
		return fmt.Errorf("direct attach: %w", err)
	}
	s.attached = true
	return nil
}

func (s *directStrategy) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil
	}
	s.attached = false
	if err := s.decoder.Close(); err != nil {
		return fmt.Errorf("direct detach: %w", err)
	}
	return nil
}

func (s *directStrategy) Seek(ms int64) error {
	return s.decoder.SeekMs(ms)
}

func (s *directStrategy) Stats() models.StrategyStats {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()
	return mergeStats(baseStats(src), s.decoder.Stats())
}
