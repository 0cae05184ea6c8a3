// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

/*
engine.go - Adaptive Playback Engine

Owns at most one decoding strategy at a time and runs the playback state
machine. All decoder events flow through a single dispatch point so the
recovery policy lives in one place instead of scattered per-event handlers.

State machine: Idle -> Loading -> Ready -> Playing -> Buffering ->
{Ended, Failed}. Per-source flags (ready fired, resume seek done, media
recovery used) reset on every Load. Teardown of the previous strategy
completes before the next one is created; two strategies must never be
attached to the output sink at once.
*/
//nolint:staticcheck // package comment placement
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/flixor/playkit/internal/config"
	"github.com/flixor/playkit/internal/logging"
	"github.com/flixor/playkit/internal/metrics"
	"github.com/flixor/playkit/internal/models"
)

// EngineState is the engine's lifecycle state.
type EngineState int32

const (
	EngineIdle EngineState = iota
	EngineLoading
	EngineReady
	EnginePlaying
	EngineBuffering
	EngineEnded
	EngineFailed
)

func (s EngineState) String() string {
	switch s {
	case EngineIdle:
		return "idle"
	case EngineLoading:
		return "loading"
	case EngineReady:
		return "ready"
	case EnginePlaying:
		return "playing"
	case EngineBuffering:
		return "buffering"
	case EngineEnded:
		return "ended"
	case EngineFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// nearZeroMs bounds the "position still near zero" check for the defensive
// resume re-seek.
const nearZeroMs = 2000

// Callbacks are the engine's observable side effects. Nil members are
// skipped. Callbacks run on the engine's event goroutine and must not call
// back into the engine synchronously.
type Callbacks struct {
	// OnReady fires once per source, the first time the decoder reports
	// usable metadata.
	OnReady func()

	// OnProgress fires periodically with position and duration.
	OnProgress func(positionMs, durationMs int64)

	// OnBuffering fires on every stall enter (true) and exit (false).
	OnBuffering func(active bool)

	// OnEnded fires at end of media.
	OnEnded func()

	// OnSeeked fires for user-initiated seeks only; the engine's own resume
	// seek is not reported.
	OnSeeked func(positionMs int64)

	// OnError fires when a fatal or fallback condition crosses the engine
	// boundary. errors.Is(err, ErrCodecFallback) distinguishes the
	// recoverable renegotiation request from hard failures.
	OnError func(err error)
}

// Engine is the adaptive playback engine.
type Engine struct {
	cfg       config.PlayerConfig
	decoder   Decoder
	callbacks Callbacks

	mu             sync.Mutex
	state          EngineState
	strategy       Strategy
	src            Source
	readyFired     bool
	resumeSeekDone bool
	mediaRecovered bool
	internalSeek   bool

	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// New creates an idle engine over the given platform decoder.
func New(decoder Decoder, cfg config.PlayerConfig, callbacks Callbacks) *Engine {
	return &Engine{
		cfg:       cfg,
		decoder:   decoder,
		callbacks: callbacks,
		state:     EngineIdle,
	}
}

// State returns the current engine state.
func (e *Engine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StrategyName returns the active strategy's name, or "" when idle.
func (e *Engine) StrategyName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.strategy == nil {
		return ""
	}
	return e.strategy.Name()
}

// Stats reports the active strategy's delivery stats. Zero value when no
// strategy is attached.
func (e *Engine) Stats() models.StrategyStats {
	e.mu.Lock()
	strategy := e.strategy
	e.mu.Unlock()
	if strategy == nil {
		return models.StrategyStats{}
	}
	return strategy.Stats()
}

// Counters reports the decoder's raw frame counters.
func (e *Engine) Counters() models.DecoderCounters {
	return e.decoder.Counters()
}

// PositionMs returns the current playback position.
func (e *Engine) PositionMs() int64 { return e.decoder.PositionMs() }

// DurationMs returns the media duration as known by the decoder.
func (e *Engine) DurationMs() int64 { return e.decoder.DurationMs() }

// transition is the single state-change point.
func (e *Engine) transition(to EngineState) {
	if e.state == to {
		return
	}
	from := e.state
	e.state = to
	metrics.EngineTransitions.WithLabelValues(from.String(), to.String()).Inc()
	logging.Debug().Str("from", from.String()).Str("to", to.String()).Msg("Engine transition")
}

// Load attaches the engine to a new source. Any previous strategy is fully
// torn down first, and all per-source state resets.
func (e *Engine) Load(ctx context.Context, src Source) error {
	e.teardown()

	e.mu.Lock()
	e.src = src
	e.readyFired = false
	e.resumeSeekDone = false
	e.mediaRecovered = false
	e.internalSeek = false
	e.strategy = newStrategy(e.decoder, e.cfg, src)
	e.transition(EngineLoading)
	strategy := e.strategy
	e.mu.Unlock()

	logging.Info().
		Str("strategy", strategy.Name()).
		Int64("resume_offset_ms", src.ResumeOffsetMs).
		Msg("Loading source")

	if err := strategy.Attach(ctx, src); err != nil {
		e.mu.Lock()
		e.transition(EngineFailed)
		e.strategy = nil
		e.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPlayback, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.mu.Lock()
	e.loopCancel = cancel
	e.loopDone = done
	e.mu.Unlock()

	go e.eventLoop(loopCtx, done)
	return nil
}

// eventLoop consumes decoder events until the source is torn down. The
// events channel is re-acquired after an in-loop restart, since a decoder
// reopen replaces it.
func (e *Engine) eventLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	events := e.decoder.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if restarted := e.dispatch(ctx, ev); restarted {
				events = e.decoder.Events()
			}
		}
	}
}

// dispatch handles one decoder event. Returns true when the decoder was
// reopened and the events channel must be re-acquired.
func (e *Engine) dispatch(ctx context.Context, ev DecoderEvent) bool {
	var notify func()

	e.mu.Lock()
	switch ev.Kind {
	case EventReady:
		e.transition(EngineReady)
		e.applyResumeSeekLocked("ready")
		if !e.readyFired {
			e.readyFired = true
			if cb := e.callbacks.OnReady; cb != nil {
				notify = cb
			}
		}
		_ = e.decoder.Play()
		e.transition(EnginePlaying)

	case EventCanPlay:
		// Defensive fallback: re-seek only if the resume seek has not been
		// marked done and playback is still pinned near zero.
		if !e.resumeSeekDone && e.src.ResumeOffsetMs > 0 && e.decoder.PositionMs() < nearZeroMs {
			e.applyResumeSeekLocked("canplay")
		}
		if e.state == EngineReady {
			e.transition(EnginePlaying)
		}

	case EventProgress:
		if cb := e.callbacks.OnProgress; cb != nil {
			pos, dur := ev.PositionMs, ev.DurationMs
			notify = func() { cb(pos, dur) }
		}

	case EventBufferingStart:
		e.transition(EngineBuffering)
		if cb := e.callbacks.OnBuffering; cb != nil {
			notify = func() { cb(true) }
		}

	case EventBufferingEnd:
		if e.state == EngineBuffering {
			e.transition(EnginePlaying)
		}
		if cb := e.callbacks.OnBuffering; cb != nil {
			notify = func() { cb(false) }
		}

	case EventStall:
		metrics.EngineRecoveries.WithLabelValues("stall_resume").Inc()
		logging.Debug().Msg("Buffer stall, resuming load")
		_ = e.decoder.ResumeLoading()

	case EventAppendError:
		// Buffer-append failures leave the decoder's buffer in a corrupt
		// spot; nudge behind it before resuming.
		metrics.EngineRecoveries.WithLabelValues("append_nudge").Inc()
		pos := e.decoder.PositionMs() - e.cfg.AppendNudgeMs
		if pos < 0 {
			pos = 0
		}
		logging.Debug().Int64("nudge_to_ms", pos).Msg("Buffer append failure, nudging back and resuming")
		e.internalSeek = true
		if e.strategy != nil {
			_ = e.strategy.Seek(pos)
		}
		_ = e.decoder.ResumeLoading()

	case EventNetworkError:
		metrics.EngineRecoveries.WithLabelValues("network_restart").Inc()
		logging.Warn().Str("message", ev.Message).Msg("Fatal network error, restarting load")
		restarted := e.restartLocked(ctx)
		e.mu.Unlock()
		return restarted

	case EventTransportError:
		err := classifyTransportError(ev.Message)
		e.failLocked(err)
		notify = e.errorNotify(err)

	case EventDecodeError:
		if isCodecFallbackMessage(ev.Message) {
			err := classifyDecodeError(ev.Message)
			e.failLocked(err)
			notify = e.errorNotify(err)
			break
		}
		if !e.mediaRecovered {
			e.mediaRecovered = true
			metrics.EngineRecoveries.WithLabelValues("media_recover").Inc()
			logging.Warn().Str("message", ev.Message).Msg("Fatal decode error, attempting in-place recovery")
			_ = e.decoder.RecoverMedia()
			break
		}
		err := classifyDecodeError(ev.Message)
		e.failLocked(err)
		notify = e.errorNotify(err)

	case EventEnded:
		e.transition(EngineEnded)
		if cb := e.callbacks.OnEnded; cb != nil {
			notify = cb
		}

	case EventSeeked:
		if e.internalSeek {
			e.internalSeek = false
			break
		}
		if cb := e.callbacks.OnSeeked; cb != nil {
			pos := ev.PositionMs
			notify = func() { cb(pos) }
		}
	}
	e.mu.Unlock()

	if notify != nil {
		notify()
	}
	return false
}

// applyResumeSeekLocked performs the one resume seek per source, only once
// the decoder is ready. Callers hold e.mu.
func (e *Engine) applyResumeSeekLocked(trigger string) {
	if e.resumeSeekDone {
		return
	}
	e.resumeSeekDone = true
	if e.src.ResumeOffsetMs <= 0 || e.strategy == nil {
		return
	}
	logging.Debug().
		Int64("offset_ms", e.src.ResumeOffsetMs).
		Str("trigger", trigger).
		Msg("Applying resume seek")
	e.internalSeek = true
	if err := e.strategy.Seek(e.src.ResumeOffsetMs); err != nil {
		logging.Warn().Err(err).Msg("Resume seek failed")
		e.internalSeek = false
	}
}

// restartLocked tears the current strategy down and re-attaches it to the
// same source. Callers hold e.mu; returns true when the decoder was
// reopened.
func (e *Engine) restartLocked(ctx context.Context) bool {
	if e.strategy == nil {
		return false
	}
	if err := e.strategy.Detach(); err != nil {
		logging.Warn().Err(err).Msg("Detach during restart failed")
	}
	e.transition(EngineLoading)
	if err := e.strategy.Attach(ctx, e.src); err != nil {
		err = fmt.Errorf("%w: restart: %w", ErrPlayback, err)
		e.failLocked(err)
		if cb := e.callbacks.OnError; cb != nil {
			go cb(err)
		}
		return false
	}
	return true
}

// failLocked transitions to Failed and detaches the strategy. Callers hold
// e.mu.
func (e *Engine) failLocked(err error) {
	e.transition(EngineFailed)
	if isCodecFallback(err) {
		metrics.CodecFallbacks.Inc()
	} else {
		metrics.FatalPlaybackErrors.Inc()
	}
	logging.Error().Err(err).Msg("Playback failed")
	if e.strategy != nil {
		_ = e.strategy.Detach()
		e.strategy = nil
	}
}

func (e *Engine) errorNotify(err error) func() {
	cb := e.callbacks.OnError
	if cb == nil {
		return nil
	}
	return func() { cb(err) }
}

// Play resumes playback.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EngineReady && e.state != EnginePlaying && e.state != EngineBuffering {
		return fmt.Errorf("%w: play from %s", ErrEngineState, e.state)
	}
	return e.decoder.Play()
}

// Pause pauses playback.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EnginePlaying && e.state != EngineBuffering {
		return fmt.Errorf("%w: pause from %s", ErrEngineState, e.state)
	}
	return e.decoder.Pause()
}

// Seek performs a user-initiated seek. The resulting EventSeeked is
// reported through OnSeeked.
func (e *Engine) Seek(ms int64) error {
	e.mu.Lock()
	strategy := e.strategy
	e.mu.Unlock()
	if strategy == nil {
		return fmt.Errorf("%w: seek with no source", ErrEngineState)
	}
	return strategy.Seek(ms)
}

// Stop tears the engine down to Idle. Safe to call repeatedly.
func (e *Engine) Stop() {
	e.teardown()
	e.mu.Lock()
	e.transition(EngineIdle)
	e.mu.Unlock()
}

// teardown stops the event loop and detaches the strategy, in that order,
// and waits for the loop to exit so no stale event can touch the next
// source's state.
func (e *Engine) teardown() {
	e.mu.Lock()
	cancel := e.loopCancel
	done := e.loopDone
	strategy := e.strategy
	e.loopCancel = nil
	e.loopDone = nil
	e.strategy = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if strategy != nil {
		if err := strategy.Detach(); err != nil {
			logging.Warn().Err(err).Msg("Strategy detach failed")
		}
	}
}

func isCodecFallback(err error) bool {
	return errors.Is(err, ErrCodecFallback)
}
