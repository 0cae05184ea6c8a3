// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

/*
session.go - Playback Session Lifecycle

Owns a single server-side playback session: id generation, stream URL
construction for the chosen protocol, start, and idempotent stop. One
Session maps to exactly one server transcode session; starting a new
attempt always means a new Session with a new id.
*/
//nolint:staticcheck // package comment placement
package pms

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/flixor/playkit/internal/logging"
	"github.com/flixor/playkit/internal/metrics"
	"github.com/flixor/playkit/internal/models"
)

// SessionState tracks the lifecycle of a playback session.
type SessionState int32

const (
	SessionIdle SessionState = iota
	SessionCreated
	SessionStarted
	SessionActive
	SessionFailed
	SessionStopped
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionCreated:
		return "created"
	case SessionStarted:
		return "started"
	case SessionActive:
		return "active"
	case SessionFailed:
		return "failed"
	case SessionStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const sessionIDLength = 24

const sessionIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newSessionID returns a random alphanumeric session identifier. The id is
// sent to the server as both the session parameter and the client
// identifier header for the stream requests, so it must be URL and header
// safe.
func newSessionID() (string, error) {
	buf := make([]byte, sessionIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	for i, b := range buf {
		buf[i] = sessionIDAlphabet[int(b)%len(sessionIDAlphabet)]
	}
	return string(buf), nil
}

// Session is one playback attempt against one server transcode session.
type Session struct {
	client    *Client
	id        string
	ratingKey string
	selection models.StreamSelection
	decision  *models.TranscodeDecision

	state   atomic.Int32
	stopped sync.Once
}

// NewSession creates a session in the Created state with a fresh id.
func NewSession(client *Client, ratingKey string, sel models.StreamSelection, decision *models.TranscodeDecision) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	s := &Session{
		client:    client,
		id:        id,
		ratingKey: ratingKey,
		selection: sel,
		decision:  decision,
	}
	s.state.Store(int32(SessionCreated))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// RatingKey returns the media item this session plays.
func (s *Session) RatingKey() string { return s.ratingKey }

// Selection returns the stream selection this session was started with.
func (s *Session) Selection() models.StreamSelection { return s.selection }

// Decision returns the server's transcode decision for this session.
func (s *Session) Decision() *models.TranscodeDecision { return s.decision }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Transcoding reports whether the server is transcoding any track.
func (s *Session) Transcoding() bool {
	return s.decision != nil && s.decision.RequiresTranscode()
}

// mediaBufferKB is the delivery buffer-size hint sent on the start URL.
const mediaBufferKB = 102400

// sessionQuery returns the query parameters for the one-shot start URL.
// The session id rides as both the session parameter and the client
// identifier; the server keys its transcoder state on the pair agreeing.
func (s *Session) sessionQuery() map[string]string {
	q := selectionQuery(s.selection)
	q["path"] = "/library/metadata/" + s.ratingKey
	q["mediaBufferSize"] = strconv.Itoa(mediaBufferKB)
	q["session"] = s.id
	q["X-Plex-Client-Identifier"] = s.id
	q["X-Plex-Token"] = s.client.Token()
	return q
}

// StreamURL returns the absolute URL the decoder should load for this
// session's protocol. HLS loads the start playlist; DASH loads the start
// manifest. Direct play bypasses the transcoder entirely and streams the
// part file.
func (s *Session) StreamURL() (string, error) {
	if s.decision != nil && s.decision.DirectPlay() {
		return s.directURL()
	}
	var path string
	switch s.selection.Protocol {
	case models.ProtocolHLS:
		path = "/video/:/transcode/universal/start.m3u8"
	case models.ProtocolDASH:
		path = "/video/:/transcode/universal/start.mpd"
	default:
		return "", fmt.Errorf("%w: unsupported protocol %q", ErrSessionStartFailed, s.selection.Protocol)
	}
	return s.buildURL(path, s.sessionQuery()), nil
}

// SessionURL returns the stable, repeatable manifest URL scoped only by
// session id and token. The decoder re-fetches this for the lifetime of the
// session; it must stay byte-identical across calls.
func (s *Session) SessionURL() (string, error) {
	if s.decision != nil && s.decision.DirectPlay() {
		return s.directURL()
	}
	var suffix string
	switch s.selection.Protocol {
	case models.ProtocolHLS:
		suffix = "base/index.m3u8"
	case models.ProtocolDASH:
		suffix = "base/index.mpd"
	default:
		return "", fmt.Errorf("%w: unsupported protocol %q", ErrSessionStartFailed, s.selection.Protocol)
	}
	path := "/video/:/transcode/universal/session/" + s.id + "/" + suffix
	q := map[string]string{
		"X-Plex-Token": s.client.Token(),
	}
	return s.buildURL(path, q), nil
}

// directURL streams the media part file without a transcode session.
func (s *Session) directURL() (string, error) {
	path := fmt.Sprintf("/library/parts/%s/%d/file", s.ratingKey, s.selection.PartIndex)
	q := map[string]string{
		"X-Plex-Token": s.client.Token(),
	}
	return s.buildURL(path, q), nil
}

func (s *Session) buildURL(path string, query map[string]string) string {
	u, _ := url.Parse(s.client.BaseURL())
	u.Path = path
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	u.RawQuery = values.Encode()
	return u.String()
}

// Start tells the server to begin the transcode session. Direct play has
// no server session to start, so it transitions straight to Started.
func (s *Session) Start(ctx context.Context) error {
	if st := s.State(); st != SessionCreated {
		return fmt.Errorf("%w: start from %s", ErrSessionState, st)
	}

	if s.decision != nil && s.decision.DirectPlay() {
		s.state.Store(int32(SessionStarted))
		metrics.SessionsStarted.Inc()
		return nil
	}

	streamURL, err := s.StreamURL()
	if err != nil {
		s.state.Store(int32(SessionFailed))
		metrics.SessionStartFailures.Inc()
		return err
	}

	// The start request primes the transcoder. The body is the playlist or
	// manifest the decoder will re-fetch through its own loader, so the
	// content is discarded here.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		s.state.Store(int32(SessionFailed))
		metrics.SessionStartFailures.Inc()
		return fmt.Errorf("%w: %w", ErrSessionStartFailed, err)
	}
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		s.state.Store(int32(SessionFailed))
		metrics.SessionStartFailures.Inc()
		return fmt.Errorf("%w: %w", ErrSessionStartFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.state.Store(int32(SessionFailed))
		metrics.SessionStartFailures.Inc()
		return fmt.Errorf("%w: unexpected status %d", ErrSessionStartFailed, resp.StatusCode)
	}

	s.state.Store(int32(SessionStarted))
	metrics.SessionsStarted.Inc()
	logging.Info().
		Str("session_id", s.id).
		Str("rating_key", s.ratingKey).
		Str("protocol", string(s.selection.Protocol)).
		Bool("transcoding", s.Transcoding()).
		Msg("Playback session started")
	return nil
}

// Activate marks the session as actively playing. Called once the decoder
// reports the first frame rendered.
func (s *Session) Activate() {
	s.state.CompareAndSwap(int32(SessionStarted), int32(SessionActive))
}

// Fail marks the session failed. Stop still runs server-side cleanup after
// a failure.
func (s *Session) Fail() {
	st := s.State()
	if st == SessionStopped {
		return
	}
	s.state.Store(int32(SessionFailed))
}

// Stop tears down the server transcode session. Idempotent: the server
// request fires at most once, and repeat calls return nil. Failures are
// logged and swallowed because the server reaps orphaned sessions on its
// own timeout anyway.
func (s *Session) Stop(ctx context.Context) error {
	s.stopped.Do(func() {
		prev := SessionState(s.state.Swap(int32(SessionStopped)))

		outcome := "clean"
		if prev == SessionFailed {
			outcome = "failed"
		}
		metrics.SessionsStopped.WithLabelValues(outcome).Inc()

		if s.decision != nil && s.decision.DirectPlay() {
			return
		}

		err := s.client.doRequest(ctx, requestConfig{
			method: http.MethodGet,
			path:   "/video/:/transcode/universal/stop",
			query:  url.Values{"session": []string{s.id}},
		}, nil)
		if err != nil {
			logging.Warn().
				Err(err).
				Str("session_id", s.id).
				Msg("Failed to stop server transcode session")
			return
		}
		logging.Debug().
			Str("session_id", s.id).
			Str("previous_state", prev.String()).
			Msg("Playback session stopped")
	})
	return nil
}
