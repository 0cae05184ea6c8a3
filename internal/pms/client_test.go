// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package pms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClientSetsIdentityHeaders(t *testing.T) {
	var gotToken, gotClientID, gotProduct string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Plex-Token")
		gotClientID = r.Header.Get("X-Plex-Client-Identifier")
		gotProduct = r.Header.Get("X-Plex-Product")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", "client-abc", 5*time.Second)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("X-Plex-Token = %q, want %q", gotToken, "test-token")
	}
	if gotClientID != "client-abc" {
		t.Errorf("X-Plex-Client-Identifier = %q, want %q", gotClientID, "client-abc")
	}
	if gotProduct != "Playkit" {
		t.Errorf("X-Plex-Product = %q, want %q", gotProduct, "Playkit")
	}
}

func TestClientRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", "cid", 5*time.Second)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed after retry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestGetServerIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/identity" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"MediaContainer":{"machineIdentifier":"abc123","version":"1.41.0"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", "cid", 5*time.Second)
	identity, err := client.GetServerIdentity(context.Background())
	if err != nil {
		t.Fatalf("GetServerIdentity failed: %v", err)
	}
	if identity.MachineIdentifier != "abc123" {
		t.Errorf("MachineIdentifier = %q, want %q", identity.MachineIdentifier, "abc123")
	}
	if identity.Version != "1.41.0" {
		t.Errorf("Version = %q, want %q", identity.Version, "1.41.0")
	}
}

func TestGetMetadataEmptyContainer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"MediaContainer":{"size":0}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", "cid", 5*time.Second)
	if _, err := client.GetMetadata(context.Background(), "42"); err == nil {
		t.Fatal("expected error for empty metadata container, got nil")
	}
}

func TestGetMetadataResumeOffset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/library/metadata/49" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"MediaContainer":{"size":1,"Metadata":[{"ratingKey":"49","key":"/library/metadata/49","duration":7200000,"viewOffset":1800000}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", "cid", 5*time.Second)
	item, err := client.GetMetadata(context.Background(), "49")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if item.ViewOffsetMs != 1800000 {
		t.Errorf("ViewOffsetMs = %d, want 1800000", item.ViewOffsetMs)
	}
	if item.DurationMs != 7200000 {
		t.Errorf("DurationMs = %d, want 7200000", item.DurationMs)
	}
}
