// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

// Package main is the playkit command line interface.
//
// Playkit is a headless playback client for Plex-compatible media servers.
// The CLI exists for diagnostics and soak testing: it exercises the full
// session pipeline (endpoint resolution, transcode negotiation, session
// lifecycle, adaptive engine, telemetry, progress reporting) against a null
// decoder, without any real media output.
//
// # Commands
//
//	playkit identity
//	    Resolve the configured endpoints and print the winning endpoint
//	    and server identity as JSON.
//
//	playkit decide -rating-key 12345 [-protocol hls] [-max-bitrate 8000]
//	    Negotiate a transcode decision for the item and print it as JSON.
//
//	playkit play -rating-key 12345 [-protocol hls] [-no-resume]
//	    Run a full headless playback session until SIGINT/SIGTERM. The
//	    supervisor tree runs the telemetry aggregator, the progress
//	    reporter, and (when enabled) the Prometheus /metrics listener.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables (PLAYKIT_ prefix), config file
// (playkit.yaml), built-in defaults. The server token and at least one
// endpoint are required.
//
// # Signal Handling
//
// On SIGINT/SIGTERM the play command stops the engine, sends a final
// stopped timeline report, and issues the session stop call before the
// process exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/flixor/playkit/internal/config"
	"github.com/flixor/playkit/internal/logging"
	"github.com/flixor/playkit/internal/models"
	"github.com/flixor/playkit/internal/player"
	"github.com/flixor/playkit/internal/pms"
	"github.com/flixor/playkit/internal/supervisor"
)

const usage = `usage: playkit <command> [flags]

commands:
  identity    resolve endpoints and print server identity
  decide      negotiate and print a transcode decision
  play        run a headless playback session until signal

run 'playkit <command> -h' for command flags
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "identity":
		return cmdIdentity(ctx, cfg)
	case "decide":
		return cmdDecide(ctx, cfg, args[1:])
	case "play":
		return cmdPlay(ctx, cfg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "playkit: unknown command %q\n\n%s", args[0], usage)
		return 2
	}
}

// resolve probes the configured endpoints and returns the winner.
func resolve(ctx context.Context, cfg *config.Config) (*pms.ResolvedEndpoint, error) {
	endpoints := make([]models.ServerEndpoint, 0, len(cfg.Server.Endpoints))
	for _, e := range cfg.Server.Endpoints {
		endpoints = append(endpoints, models.ServerEndpoint{
			URI:   e.URI,
			Local: e.Local,
			Relay: e.Relay,
		})
	}

	resolver := pms.NewResolver(cfg.Server.ProbeTimeout, cfg.Server.ClientIdentifier)
	return resolver.Resolve(ctx, endpoints, cfg.Server.Token)
}

// apiClient rebinds the resolved endpoint with the ordinary request timeout;
// the resolver's own client carries the short probe timeout.
func apiClient(cfg *config.Config, resolved *pms.ResolvedEndpoint) *pms.Client {
	return pms.NewClient(resolved.Endpoint.URI, cfg.Server.Token, cfg.Server.ClientIdentifier, cfg.Server.RequestTimeout)
}

func printJSON(v interface{}) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode output")
		return 1
	}
	fmt.Println(string(out))
	return 0
}

func cmdIdentity(ctx context.Context, cfg *config.Config) int {
	resolved, err := resolve(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Endpoint resolution failed")
		return 1
	}

	return printJSON(struct {
		Endpoint models.ServerEndpoint    `json:"endpoint"`
		Identity models.IdentityContainer `json:"identity"`
	}{resolved.Endpoint, resolved.Identity})
}

// selectionFlags binds the shared stream-selection flags on fs.
func selectionFlags(fs *flag.FlagSet) (ratingKey *string, sel func() models.StreamSelection) {
	ratingKey = fs.String("rating-key", "", "library item to play (required)")
	protocol := fs.String("protocol", "hls", "delivery protocol: hls or dash")
	mediaIndex := fs.Int("media-index", 0, "media variant index")
	partIndex := fs.Int("part-index", 0, "media part index")
	audio := fs.Int("audio", 0, "audio stream id (0 = server default)")
	subtitle := fs.Int("subtitle", 0, "subtitle stream id (0 = none)")
	maxBitrate := fs.Int("max-bitrate", 0, "video bitrate cap in kbps (0 = original)")
	resolution := fs.String("resolution", "", "video resolution cap, e.g. 1920x1080")

	sel = func() models.StreamSelection {
		return models.StreamSelection{
			MediaIndex:       *mediaIndex,
			PartIndex:        *partIndex,
			AudioStreamID:    *audio,
			SubtitleStreamID: *subtitle,
			MaxVideoBitrate:  *maxBitrate,
			VideoResolution:  *resolution,
			Protocol:         models.StreamProtocol(*protocol),
		}
	}
	return ratingKey, sel
}

func cmdDecide(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("decide", flag.ExitOnError)
	ratingKey, sel := selectionFlags(fs)
	_ = fs.Parse(args)

	if *ratingKey == "" {
		fmt.Fprintln(os.Stderr, "playkit decide: -rating-key is required")
		return 2
	}

	resolved, err := resolve(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Endpoint resolution failed")
		return 1
	}

	breaker := pms.NewBreakerClient(apiClient(cfg, resolved))
	decision, err := breaker.Decide(ctx, *ratingKey, sel())
	if err != nil {
		logging.Error().Str("rating_key", *ratingKey).Err(err).Msg("Negotiation failed")
		return 1
	}

	return printJSON(decision)
}

//nolint:gocyclo // sequential session setup steps
func cmdPlay(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	ratingKey, sel := selectionFlags(fs)
	noResume := fs.Bool("no-resume", false, "start from the beginning even if a resume offset is stored")
	_ = fs.Parse(args)

	if *ratingKey == "" {
		fmt.Fprintln(os.Stderr, "playkit play: -rating-key is required")
		return 2
	}

	resolved, err := resolve(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Endpoint resolution failed")
		return 1
	}
	client := apiClient(cfg, resolved)
	breaker := pms.NewBreakerClient(client)

	// Resume offset comes from stored item metadata.
	var resumeMs int64
	item, err := breaker.GetMetadata(ctx, *ratingKey)
	if err != nil {
		logging.Warn().Str("rating_key", *ratingKey).Err(err).Msg("Metadata fetch failed, starting from zero")
	} else if !*noResume {
		resumeMs = item.ViewOffsetMs
	}

	decision, err := breaker.Decide(ctx, *ratingKey, sel())
	if err != nil {
		logging.Error().Str("rating_key", *ratingKey).Err(err).Msg("Negotiation failed")
		return 1
	}

	session, err := pms.NewSession(client, *ratingKey, sel(), decision)
	if err != nil {
		logging.Error().Err(err).Msg("Session creation failed")
		return 1
	}

	// Supervisor tree: telemetry + reporter in the playback layer, the
	// metrics listener in the observability layer.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return 1
	}
	tree.AddObservabilityService(supervisor.NewMetricsService(cfg.Metrics))

	engine := newHeadlessEngine(cfg)

	position := func() (int64, int64, models.PlaybackState) {
		return engine.PositionMs(), engine.DurationMs(), engineTimelineState(engine.State())
	}
	reporter := player.NewReporter(client, cfg.Timeline, *ratingKey, session.ID(), session.Transcoding(), position)
	engine.reporter = reporter

	aggregator := player.NewAggregator(cfg.Telemetry, engine.Engine, func(stats models.PlaybackStats) {
		logging.Debug().
			Float64("fps", stats.RenderedFPS).
			Float64("drop_rate", stats.DropRate).
			Msg("Telemetry snapshot")
	})

	tree.AddPlaybackService(aggregator)
	tree.AddPlaybackService(reporter)

	treeCtx, treeCancel := context.WithCancel(context.Background())
	defer treeCancel()
	treeErr := tree.ServeBackground(treeCtx)

	if err := session.Start(ctx); err != nil {
		logging.Error().Err(err).Msg("Session start failed")
		return 1
	}

	srcURL, err := session.SessionURL()
	if err != nil {
		logging.Error().Err(err).Msg("Session URL unavailable")
		return 1
	}

	src := player.Source{
		URL:            srcURL,
		Selection:      sel(),
		Decision:       decision,
		ResumeOffsetMs: resumeMs,
	}
	if err := engine.Load(ctx, src); err != nil {
		logging.Error().Err(err).Msg("Engine load failed")
		reportStop(session, reporter)
		return 1
	}
	session.Activate()

	logging.Info().
		Str("session_id", session.ID()).
		Str("rating_key", *ratingKey).
		Str("strategy", engine.StrategyName()).
		Bool("transcoding", session.Transcoding()).
		Msg("Headless playback running, Ctrl-C to stop")

	select {
	case <-ctx.Done():
	case <-engine.done:
	}

	engine.Stop()
	reportStop(session, reporter)

	treeCancel()
	select {
	case <-treeErr:
	case <-time.After(15 * time.Second):
		logging.Warn().Msg("Supervisor tree did not stop in time")
	}

	if engine.failure() != nil {
		return 1
	}
	return 0
}

// reportStop sends the final stopped timeline report and the session stop
// call. Both are best effort.
func reportStop(session *pms.Session, reporter *player.Reporter) {
	reporter.NotifyState(models.StateStopped)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = session.Stop(stopCtx)
}

// headlessEngine wires engine callbacks to the reporter and tracks
// terminal conditions for the CLI exit code.
type headlessEngine struct {
	*player.Engine
	reporter *player.Reporter
	done     chan struct{}
	doneOnce sync.Once

	errCh chan error
}

func newHeadlessEngine(cfg *config.Config) *headlessEngine {
	h := &headlessEngine{
		done:  make(chan struct{}),
		errCh: make(chan error, 1),
	}

	callbacks := player.Callbacks{
		OnReady: func() {
			logging.Info().Msg("Playback ready")
			h.notify(models.StatePlaying)
		},
		OnBuffering: func(active bool) {
			if active {
				h.notify(models.StateBuffering)
			} else {
				h.notify(models.StatePlaying)
			}
		},
		OnSeeked: func(positionMs int64) {
			logging.Debug().Int64("position_ms", positionMs).Msg("Seeked")
		},
		OnEnded: func() {
			logging.Info().Msg("Playback ended")
			h.doneOnce.Do(func() { close(h.done) })
		},
		OnError: func(err error) {
			if errors.Is(err, player.ErrCodecFallback) {
				logging.Warn().Err(err).Msg("Codec fallback requested, stopping")
			} else {
				logging.Error().Err(err).Msg("Playback failed")
			}
			select {
			case h.errCh <- err:
			default:
			}
			h.doneOnce.Do(func() { close(h.done) })
		},
	}

	h.Engine = player.New(player.NewNullDecoder(), cfg.Player, callbacks)
	return h
}

func (h *headlessEngine) notify(state models.PlaybackState) {
	if h.reporter != nil {
		h.reporter.NotifyState(state)
	}
}

func (h *headlessEngine) failure() error {
	select {
	case err := <-h.errCh:
		return err
	default:
		return nil
	}
}

// engineTimelineState maps engine states to the timeline state token.
func engineTimelineState(state player.EngineState) models.PlaybackState {
	switch state {
	case player.EnginePlaying:
		return models.StatePlaying
	case player.EngineBuffering:
		return models.StateBuffering
	case player.EngineEnded:
		return models.StateStopped
	default:
		return models.StatePaused
	}
}
