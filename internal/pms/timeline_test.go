// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package pms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/flixor/playkit/internal/models"
)

func TestReportTimeline(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/:/timeline" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", "cid", 5*time.Second)
	report := models.ProgressReport{
		RatingKey:   "49",
		Key:         "/library/metadata/49",
		PositionMs:  754321,
		DurationMs:  7200000,
		State:       models.StatePlaying,
		SessionID:   "abc123",
		Transcoding: true,
	}
	if err := client.ReportTimeline(context.Background(), report); err != nil {
		t.Fatalf("ReportTimeline failed: %v", err)
	}

	want := map[string]string{
		"ratingKey": "49",
		"key":       "/library/metadata/49",
		"state":     "playing",
		"time":      "754321",
		"duration":  "7200000",
		"session":   "abc123",
		"hasMDE":    "1",
	}
	for k, v := range want {
		if gotQuery.Get(k) != v {
			t.Errorf("query[%q] = %q, want %q", k, gotQuery.Get(k), v)
		}
	}
}

func TestReportTimelineDirectPlayOmitsSession(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", "cid", 5*time.Second)
	report := models.ProgressReport{
		RatingKey:  "49",
		Key:        "/library/metadata/49",
		PositionMs: 1000,
		DurationMs: 7200000,
		State:      models.StatePaused,
	}
	if err := client.ReportTimeline(context.Background(), report); err != nil {
		t.Fatalf("ReportTimeline failed: %v", err)
	}
	if gotQuery.Has("session") {
		t.Error("direct play report must not carry a session parameter")
	}
	if gotQuery.Has("hasMDE") {
		t.Error("non-transcoding report must not carry hasMDE")
	}
}

func TestReportTimelineServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", "cid", 5*time.Second)
	err := client.ReportTimeline(context.Background(), models.ProgressReport{
		RatingKey: "49",
		State:     models.StateStopped,
	})
	if err == nil {
		t.Fatal("expected error from server failure, got nil")
	}
}
