// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package player

import (
	"errors"
	"testing"
)

func TestCodecFallbackClassification(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		fallback bool
	}{
		{"dolby vision profile", "playback failed: Dolby Vision profile 5 unsupported", true},
		{"dvhe codec tag", "cannot decode dvhe.05.06 track", true},
		{"hdr10 profile", "display pipeline rejected HDR10 metadata", true},
		{"hevc main 10", "decoder does not support HEVC Main 10", true},
		{"chunk append", "CHUNK_DEMUXER_ERROR_APPEND_FAILED", true},
		{"source buffer", "source buffer append failed at 42s", true},
		{"generic append", "append error in media pipeline", true},
		{"plain network", "connection reset by peer", false},
		{"plain decode", "decoder pipeline stalled", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCodecFallbackMessage(tt.message); got != tt.fallback {
				t.Errorf("isCodecFallbackMessage(%q) = %v, want %v", tt.message, got, tt.fallback)
			}
		})
	}
}

func TestClassifyDecodeError(t *testing.T) {
	if err := classifyDecodeError("Dolby Vision not supported"); !errors.Is(err, ErrCodecFallback) {
		t.Errorf("HDR message classified as %v, want ErrCodecFallback", err)
	}
	if err := classifyDecodeError("pipeline stalled"); !errors.Is(err, ErrFatalDecode) {
		t.Errorf("generic message classified as %v, want ErrFatalDecode", err)
	}
}

func TestClassifyTransportError(t *testing.T) {
	if err := classifyTransportError("manifest rejected: hevc main 10"); !errors.Is(err, ErrCodecFallback) {
		t.Errorf("profile message classified as %v, want ErrCodecFallback", err)
	}
	err := classifyTransportError("manifest request timed out")
	if !errors.Is(err, ErrPlayback) {
		t.Errorf("generic message classified as %v, want ErrPlayback", err)
	}
	if errors.Is(err, ErrCodecFallback) {
		t.Error("generic transport error must not classify as codec fallback")
	}
}
