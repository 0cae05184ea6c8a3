// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

// Package config loads and validates Playkit configuration via Koanf v2 with
// layered sources: built-in defaults, an optional YAML config file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Config is the root Playkit configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server" validate:"required"`
	Player    PlayerConfig    `koanf:"player"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Timeline  TimelineConfig  `koanf:"timeline"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// EndpointConfig is one statically configured server endpoint. At runtime the
// discovery collaborator usually supplies endpoints; static entries exist for
// the CLI and for servers without discovery.
type EndpointConfig struct {
	URI   string `koanf:"uri" validate:"required,url"`
	Local bool   `koanf:"local"`
	Relay bool   `koanf:"relay"`
}

// ServerConfig describes the media server to play from.
type ServerConfig struct {
	// Endpoints are candidate addresses, probed in preference order.
	Endpoints []EndpointConfig `koanf:"endpoints" validate:"omitempty,dive"`

	// Token is the X-Plex-Token bearer token.
	Token string `koanf:"token"`

	// ClientIdentifier is the stable client identity sent with every request.
	// Auto-generated when empty.
	ClientIdentifier string `koanf:"client_identifier"`

	// ProbeTimeout bounds each endpoint identity probe.
	ProbeTimeout time.Duration `koanf:"probe_timeout" validate:"min=0"`

	// RequestTimeout bounds ordinary API requests.
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"min=0"`
}

// PlayerConfig tunes the adaptive playback engine.
type PlayerConfig struct {
	// HLSBufferSeconds is the forward buffer goal for the segmented-HTTP
	// strategy.
	HLSBufferSeconds int `koanf:"hls_buffer_seconds" validate:"min=1"`

	// HLSMaxBufferBytes caps buffered bytes for high-bitrate content.
	HLSMaxBufferBytes int64 `koanf:"hls_max_buffer_bytes" validate:"min=0"`

	// FragmentRetries bounds fragment load retries before the stall is
	// surfaced.
	FragmentRetries int `koanf:"fragment_retries" validate:"min=0"`

	// ManifestRetries bounds manifest/playlist load retries.
	ManifestRetries int `koanf:"manifest_retries" validate:"min=0"`

	// DASHBufferTargetSeconds is the buffer target for the manifest-adaptive
	// strategy. Larger buffers are preferred over fast reaction.
	DASHBufferTargetSeconds int `koanf:"dash_buffer_target_seconds" validate:"min=1"`

	// AutoVideoQuality enables automatic video bitrate switching. Off means
	// the caller controls quality manually; audio switching stays automatic
	// either way.
	AutoVideoQuality bool `koanf:"auto_video_quality"`

	// AppendNudgeMs is how far playback position is nudged backward after a
	// buffer-append failure before resuming.
	AppendNudgeMs int64 `koanf:"append_nudge_ms" validate:"min=0"`
}

// TelemetryConfig tunes the statistics aggregator.
type TelemetryConfig struct {
	// Enabled controls whether the polling timer exists at all. Disabled
	// telemetry has zero per-tick cost.
	Enabled bool `koanf:"enabled"`

	// Interval is the polling cadence; sub-second purely for UI liveness.
	Interval time.Duration `koanf:"interval" validate:"min=0"`

	// WindowSamples is the rolling window used to smooth frame counters.
	WindowSamples int `koanf:"window_samples" validate:"min=1"`

	// HardwareDropRateMax is the drop-rate ceiling below which decode is
	// inferred to be hardware-accelerated. Heuristic, tunable.
	HardwareDropRateMax float64 `koanf:"hardware_drop_rate_max" validate:"min=0,max=1"`

	// HardwareMinFrames is how many frames must have been presented before
	// the inference is trusted.
	HardwareMinFrames int64 `koanf:"hardware_min_frames" validate:"min=0"`
}

// TimelineConfig tunes the progress reporter.
type TimelineConfig struct {
	// Interval is the steady reporting cadence while playing.
	Interval time.Duration `koanf:"interval" validate:"min=0"`

	// RatePerSecond and Burst bound report bursts around rapid state
	// transitions.
	RatePerSecond float64 `koanf:"rate_per_second" validate:"min=0"`
	Burst         int     `koanf:"burst" validate:"min=1"`
}

// MetricsConfig configures the Prometheus /metrics listener.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port" validate:"min=0,max=65535"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Default returns a Config with production defaults applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Endpoints:        nil,
			Token:            "",
			ClientIdentifier: "",
			ProbeTimeout:     5 * time.Second,
			RequestTimeout:   30 * time.Second,
		},
		Player: PlayerConfig{
			HLSBufferSeconds:        30,
			HLSMaxBufferBytes:       600 << 20, // high-bitrate 4K segments
			FragmentRetries:         6,
			ManifestRetries:         4,
			DASHBufferTargetSeconds: 20,
			AutoVideoQuality:        false,
			AppendNudgeMs:           250,
		},
		Telemetry: TelemetryConfig{
			Enabled:             false,
			Interval:            500 * time.Millisecond,
			WindowSamples:       8,
			HardwareDropRateMax: 0.01,
			HardwareMinFrames:   300,
		},
		Timeline: TimelineConfig{
			Interval:      10 * time.Second,
			RatePerSecond: 1,
			Burst:         3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    9821,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration and fills derived defaults (the client
// identifier in particular).
func (c *Config) Validate() error {
	if c.Server.ClientIdentifier == "" {
		c.Server.ClientIdentifier = uuid.NewString()
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}
