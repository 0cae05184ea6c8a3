// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"playkit.yaml",
	"playkit.yml",
	"/etc/playkit/config.yaml",
	"/etc/playkit/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "PLAYKIT_CONFIG"

// Load builds the configuration with layered precedence: environment
// variables over config file over built-in defaults. The result is validated
// before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("PLAYKIT_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps PLAYKIT_* environment variables to koanf config paths:
//
//	PLAYKIT_SERVER_TOKEN            -> server.token
//	PLAYKIT_TELEMETRY_ENABLED       -> telemetry.enabled
//	PLAYKIT_PLAYER_HLS_BUFFER_SECONDS -> player.hls_buffer_seconds
//
// The first underscore-separated token selects the section; the rest is the
// key within it. Unknown sections are skipped so unrelated environment
// variables cannot pollute the config.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "PLAYKIT_"))

	section, rest, found := strings.Cut(key, "_")
	if !found {
		return ""
	}
	switch section {
	case "server", "player", "telemetry", "timeline", "metrics", "logging":
		return section + "." + rest
	default:
		return ""
	}
}
