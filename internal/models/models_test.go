// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestRankEndpointsPreference(t *testing.T) {
	endpoints := []ServerEndpoint{
		{URI: "https://relay.example.com", Relay: true},
		{URI: "https://remote.example.com"},
		{URI: "http://10.0.0.2:32400", Local: true},
		{URI: "http://192.168.1.5:32400", Local: true},
	}

	ranked := RankEndpoints(endpoints)

	if ranked[0].URI != "http://10.0.0.2:32400" {
		t.Errorf("ranked[0] = %q, want first local endpoint", ranked[0].URI)
	}
	if ranked[1].URI != "http://192.168.1.5:32400" {
		t.Errorf("ranked[1] = %q, want second local endpoint (stable order)", ranked[1].URI)
	}
	if ranked[2].URI != "https://remote.example.com" {
		t.Errorf("ranked[2] = %q, want remote non-relay before relay", ranked[2].URI)
	}
	if ranked[3].URI != "https://relay.example.com" {
		t.Errorf("ranked[3] = %q, want relay last", ranked[3].URI)
	}

	// Input order must not change.
	if endpoints[0].URI != "https://relay.example.com" {
		t.Error("RankEndpoints mutated its input")
	}
}

func TestRankEndpointsEmpty(t *testing.T) {
	if got := RankEndpoints(nil); len(got) != 0 {
		t.Errorf("RankEndpoints(nil) = %v, want empty", got)
	}
}

func TestTranscodeDecisionHelpers(t *testing.T) {
	cases := []struct {
		name           string
		decision       TranscodeDecision
		wantTranscode  bool
		wantDirectPlay bool
	}{
		{
			name: "full direct play",
			decision: TranscodeDecision{
				VideoDecision: DecisionDirectPlay,
				AudioDecision: DecisionDirectPlay,
			},
			wantDirectPlay: true,
		},
		{
			name: "video transcode",
			decision: TranscodeDecision{
				VideoDecision: DecisionTranscode,
				AudioDecision: DecisionCopy,
			},
			wantTranscode: true,
		},
		{
			name: "audio only transcode",
			decision: TranscodeDecision{
				VideoDecision: DecisionDirectPlay,
				AudioDecision: DecisionTranscode,
			},
			wantTranscode: true,
		},
		{
			name: "direct play without subtitle track",
			decision: TranscodeDecision{
				VideoDecision: DecisionDirectPlay,
			},
			wantDirectPlay: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.decision.RequiresTranscode(); got != tc.wantTranscode {
				t.Errorf("RequiresTranscode() = %v, want %v", got, tc.wantTranscode)
			}
			if got := tc.decision.DirectPlay(); got != tc.wantDirectPlay {
				t.Errorf("DirectPlay() = %v, want %v", got, tc.wantDirectPlay)
			}
		})
	}
}

func TestDecisionResponseParsing(t *testing.T) {
	// Server response for an item with video and audio but no subtitle track.
	raw := `{
		"MediaContainer": {
			"size": 1,
			"generalDecisionCode": 1001,
			"generalDecisionText": "Direct play OK.",
			"Metadata": [{
				"ratingKey": "49",
				"key": "/library/metadata/49",
				"Media": [{
					"id": 77,
					"protocol": "hls",
					"Part": [{
						"id": 78,
						"decision": "directplay",
						"Stream": [
							{"id": 101, "streamType": 1, "decision": "directplay", "codec": "h264"},
							{"id": 102, "streamType": 2, "decision": "copy", "codec": "aac"}
						]
					}]
				}]
			}]
		}
	}`

	var resp DecisionResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	mc := resp.MediaContainer
	if mc.GeneralDecisionCode != 1001 {
		t.Errorf("GeneralDecisionCode = %d, want 1001", mc.GeneralDecisionCode)
	}
	if len(mc.Metadata) != 1 || len(mc.Metadata[0].Media) != 1 {
		t.Fatalf("unexpected container shape: %+v", mc)
	}
	streams := mc.Metadata[0].Media[0].Part[0].Stream
	if len(streams) != 2 {
		t.Fatalf("len(streams) = %d, want 2", len(streams))
	}
	if streams[0].StreamType != StreamTypeVideo || streams[0].Decision != "directplay" {
		t.Errorf("video stream = %+v", streams[0])
	}
	if streams[1].StreamType != StreamTypeAudio || streams[1].Decision != "copy" {
		t.Errorf("audio stream = %+v", streams[1])
	}
}

func TestMetadataParsingResumeOffset(t *testing.T) {
	raw := `{
		"MediaContainer": {
			"size": 1,
			"Metadata": [{
				"ratingKey": "49",
				"key": "/library/metadata/49",
				"type": "movie",
				"title": "Example",
				"duration": 7200000,
				"viewOffset": 310000,
				"Media": [{
					"id": 77,
					"container": "mkv",
					"videoCodec": "hevc",
					"audioCodec": "eac3",
					"videoResolution": "4k",
					"Part": [{"id": 78, "key": "/library/parts/78/file.mkv"}]
				}]
			}]
		}
	}`

	var resp MetadataResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	item := resp.MediaContainer.Metadata[0]
	if item.ViewOffsetMs != 310000 {
		t.Errorf("ViewOffsetMs = %d, want 310000", item.ViewOffsetMs)
	}
	if item.DurationMs != 7200000 {
		t.Errorf("DurationMs = %d, want 7200000", item.DurationMs)
	}
	if item.Media[0].VideoCodec != "hevc" {
		t.Errorf("VideoCodec = %q, want hevc", item.Media[0].VideoCodec)
	}
}
