// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package player

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCodecFallback signals that the current delivery decision is
	// incompatible with the client's decode capability. Recoverable: the
	// caller should renegotiate with a more compatible decision, typically
	// forcing a transcode.
	ErrCodecFallback = errors.New("codec fallback requested")

	// ErrFatalDecode is an unrecoverable decode error after in-place
	// recovery was already attempted.
	ErrFatalDecode = errors.New("fatal decode error")

	// ErrPlayback covers fatal transport or pipeline failures that are not
	// codec related.
	ErrPlayback = errors.New("playback failed")

	// ErrEngineState is returned for operations invalid in the engine's
	// current state.
	ErrEngineState = errors.New("invalid engine state")
)

// codecFallbackPatterns match decoder error text indicating a codec or
// dynamic-range profile the pipeline cannot handle, or the chunk-append
// failures those mismatches commonly manifest as. Matched case-insensitively
// against the raw message.
var codecFallbackPatterns = []string{
	"dolby vision",
	"dvhe",
	"hdr10",
	"hdr profile",
	"unsupported profile",
	"profile not supported",
	"hevc main 10",
	"chunk_demuxer_error_append_failed",
	"source buffer append",
	"append error",
}

// isCodecFallbackMessage reports whether the error text indicates a
// codec/profile mismatch rather than a genuinely broken stream.
func isCodecFallbackMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range codecFallbackPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// classifyDecodeError maps a fatal decoder message onto the error taxonomy.
func classifyDecodeError(msg string) error {
	if isCodecFallbackMessage(msg) {
		return fmt.Errorf("%w: %s", ErrCodecFallback, msg)
	}
	return fmt.Errorf("%w: %s", ErrFatalDecode, msg)
}

// classifyTransportError maps a fatal manifest-adaptive transport message
// onto the taxonomy. Transport errors are not retried; only a profile
// mismatch downgrades the failure into a fallback request.
func classifyTransportError(msg string) error {
	if isCodecFallbackMessage(msg) {
		return fmt.Errorf("%w: %s", ErrCodecFallback, msg)
	}
	return fmt.Errorf("%w: %s", ErrPlayback, msg)
}
