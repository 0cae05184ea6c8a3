// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitAndLevels(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Str("k", "v").Msg("debug message")
	Info().Msg("info message")

	out := buf.String()
	if !strings.Contains(out, "debug message") {
		t.Errorf("expected debug output, got %q", out)
	}
	if !strings.Contains(out, `"k":"v"`) {
		t.Errorf("expected structured field, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("should be filtered")
	Warn().Msg("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Errorf("info message should have been filtered: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWithChildLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	child := With().Str("component", "engine").Logger()
	child.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"component":"engine"`) {
		t.Errorf("child logger missing default field: %q", buf.String())
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	sl := NewSlogLogger()
	sl.Info("slog message", "session", "abc123", "count", int64(3))

	out := buf.String()
	if !strings.Contains(out, "slog message") {
		t.Fatalf("slog message missing: %q", out)
	}
	if !strings.Contains(out, `"session":"abc123"`) {
		t.Errorf("slog string attr missing: %q", out)
	}
	if !strings.Contains(out, `"count":3`) {
		t.Errorf("slog int attr missing: %q", out)
	}
}

func TestSlogAdapterGroups(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	sl := NewSlogLogger().WithGroup("stats").With(slog.Int("dropped", 7))
	sl.Warn("drops observed")

	out := buf.String()
	if !strings.Contains(out, `"stats.dropped":7`) {
		t.Errorf("grouped attr missing: %q", out)
	}
}
