// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

/*
decoder.go - Platform Decoder Boundary

The concrete audio/video decode pipeline is supplied by the platform and
consumed through the Decoder interface. The engine never talks to a decode
pipeline directly; it reacts to the event stream and issues control calls.

nullDecoder backs the CLI's headless mode; tests drive the engine with a
fake implementation.
*/
//nolint:staticcheck // package comment placement
package player

import (
	"context"

	"github.com/flixor/playkit/internal/models"
)

// DecoderEventKind discriminates decoder events.
type DecoderEventKind int

const (
	// EventReady fires when the manifest is parsed / metadata is loaded and
	// the decoder can accept seeks.
	EventReady DecoderEventKind = iota

	// EventCanPlay is the generic "can play" signal some pipelines emit
	// after Ready. Used only for the defensive resume re-seek.
	EventCanPlay

	// EventProgress carries the current position and duration.
	EventProgress

	// EventBufferingStart and EventBufferingEnd bracket a stall visible to
	// the user.
	EventBufferingStart
	EventBufferingEnd

	// EventStall is a non-fatal buffer stall on the segmented-HTTP path;
	// the engine resumes loading in place.
	EventStall

	// EventAppendError is a buffer-append failure on the segmented-HTTP
	// path; recoverable with a backward nudge plus resume.
	EventAppendError

	// EventNetworkError is a fatal network failure; the engine restarts
	// loading.
	EventNetworkError

	// EventTransportError is a fatal transport failure on the
	// manifest-adaptive path. Not retried.
	EventTransportError

	// EventDecodeError is a fatal decode failure. One in-place recovery is
	// attempted before the error is surfaced.
	EventDecodeError

	// EventEnded fires at end of media.
	EventEnded

	// EventSeeked fires after any completed seek, including the engine's
	// own resume seek.
	EventSeeked
)

// DecoderEvent is one event from the platform decode pipeline.
type DecoderEvent struct {
	Kind       DecoderEventKind
	PositionMs int64
	DurationMs int64

	// Message carries raw error text for the error kinds.
	Message string
}

// Decoder is the consumed platform decode capability. Implementations own
// the actual media pipeline; the engine owns policy.
type Decoder interface {
	// Open begins loading the given stream URL. Any prior source must be
	// fully released first.
	Open(ctx context.Context, url string) error

	// Close releases the pipeline. Idempotent.
	Close() error

	Play() error
	Pause() error

	// SeekMs seeks to an absolute position. Only valid after EventReady.
	SeekMs(ms int64) error

	PositionMs() int64
	DurationMs() int64

	// ResumeLoading re-kicks segment loading after a stall or append nudge.
	ResumeLoading() error

	// RecoverMedia attempts in-place recovery from a decode error without
	// tearing the pipeline down.
	RecoverMedia() error

	// Stats exposes whatever the delivery pipeline knows about itself.
	// Zero fields mean "not supplied".
	Stats() models.StrategyStats

	// Counters exposes raw decode quality counters.
	Counters() models.DecoderCounters

	// SupportsNativeHLS reports whether the platform can decode segmented
	// HTTP streams natively, bypassing the library path.
	SupportsNativeHLS() bool

	// Events is the pipeline's event stream. Closed on Close.
	Events() <-chan DecoderEvent
}

// nullDecoder is a no-op Decoder for headless runs. It reports ready
// immediately and then idles until closed.
type nullDecoder struct {
	events chan DecoderEvent
	closed bool
}

// NewNullDecoder returns a Decoder that decodes nothing. The CLI uses it to
// exercise session plumbing without a media pipeline.
func NewNullDecoder() Decoder {
	return &nullDecoder{events: make(chan DecoderEvent, 4)}
}

func (n *nullDecoder) Open(ctx context.Context, url string) error {
	if n.closed {
		n.events = make(chan DecoderEvent, 4)
		n.closed = false
	}
	select {
	case n.events <- DecoderEvent{Kind: EventReady}:
	default:
	}
	return nil
}

func (n *nullDecoder) Close() error {
	if !n.closed {
		n.closed = true
		close(n.events)
	}
	return nil
}

func (n *nullDecoder) Play() error  { return nil }
func (n *nullDecoder) Pause() error { return nil }

func (n *nullDecoder) SeekMs(ms int64) error { return nil }
func (n *nullDecoder) PositionMs() int64     { return 0 }
func (n *nullDecoder) DurationMs() int64     { return 0 }

func (n *nullDecoder) ResumeLoading() error { return nil }
func (n *nullDecoder) RecoverMedia() error  { return nil }

func (n *nullDecoder) Stats() models.StrategyStats      { return models.StrategyStats{} }
func (n *nullDecoder) Counters() models.DecoderCounters { return models.DecoderCounters{} }

func (n *nullDecoder) SupportsNativeHLS() bool { return false }

func (n *nullDecoder) Events() <-chan DecoderEvent { return n.events }
