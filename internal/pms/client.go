// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

/*
client.go - Media Server API Client Core

This file provides the Client struct and shared HTTP plumbing for talking to
a Plex-compatible media server.

Request configuration:
  - Authentication: X-Plex-Token header on every request
  - Client identity: X-Plex-Client-Identifier plus product/platform headers
  - JSON Accept header and goccy/go-json decoding
  - HTTP 429 retry with exponential backoff, honoring Retry-After

Related files:
  - resolver.go: endpoint probing and selection
  - decision.go: transcode decision negotiation
  - session.go:  transcode session lifecycle
  - timeline.go: progress reporting
  - breaker.go:  circuit-breaker wrapper
*/

//nolint:staticcheck // File documentation, not package doc
package pms

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/goccy/go-json"

	"github.com/flixor/playkit/internal/logging"
	"github.com/flixor/playkit/internal/models"
)

// Client handles communication with one media server endpoint.
type Client struct {
	baseURL    string
	token      string
	clientID   string
	httpClient *http.Client
}

// NewClient creates an authenticated client for the given base URL.
func NewClient(baseURL, token, clientID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		clientID:   clientID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the endpoint this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the authentication token.
func (c *Client) Token() string { return c.token }

// ClientID returns the client identifier sent with every request.
func (c *Client) ClientID() string { return c.clientID }

// requestConfig holds per-request options for doRequest.
type requestConfig struct {
	method      string
	path        string
	query       url.Values
	body        interface{} // JSON-encoded when non-nil
	acceptJSON  bool
	expectOK    bool // require 200 OK
	expectNoErr bool // accept 200 OK or 204 No Content
}

// doRequest executes a server API request and decodes the JSON response into
// result when a non-nil pointer is given.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result interface{}) error {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, cfg.path)

	var bodyReader io.Reader = http.NoBody
	if cfg.body != nil {
		encoded, err := json.Marshal(cfg.body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	c.setIdentityHeaders(req)
	if cfg.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cfg.acceptJSON {
		req.Header.Set("Accept", "application/json")
	}
	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if cfg.expectNoErr {
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
		}
	} else if cfg.expectOK && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doJSONRequest is a convenience wrapper for GET JSON requests.
func (c *Client) doJSONRequest(ctx context.Context, path string, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method:     http.MethodGet,
		path:       path,
		acceptJSON: true,
		expectOK:   true,
	}, result)
}

// setIdentityHeaders attaches authentication and client identity to a request.
func (c *Client) setIdentityHeaders(req *http.Request) {
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Product", "Playkit")
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
	req.Header.Set("X-Plex-Device", "Playkit")
}

// doRequestWithRateLimit executes a request with automatic retry on HTTP 429.
// Max 5 attempts with exponential backoff (1s, 2s, 4s, 8s, 16s), honoring a
// Retry-After header when the server sends one.
func (c *Client) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	const maxRetries = 5
	baseDelay := 1 * time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", maxRetries)
		}

		retryDelay := baseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				retryDelay = seconds
			}
		}

		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Msg("server rate limited request, retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("unreachable: retry loop must return")
}

// Ping verifies connectivity and authentication against the server root.
func (c *Client) Ping(ctx context.Context) error {
	return c.doRequest(ctx, requestConfig{
		method:   http.MethodGet,
		path:     "/",
		expectOK: true,
	}, nil)
}

// GetServerIdentity retrieves the server's machine identifier and version.
// This is also the lightweight probe the connection resolver uses.
//
// Endpoint: GET /identity
func (c *Client) GetServerIdentity(ctx context.Context) (*models.IdentityContainer, error) {
	var resp models.IdentityResponse
	if err := c.doJSONRequest(ctx, "/identity", &resp); err != nil {
		return nil, err
	}
	return &resp.MediaContainer, nil
}

// GetMetadata retrieves a media item's metadata: duration, stored resume
// offset, and available media variants with their streams.
//
// Endpoint: GET /library/metadata/{ratingKey}
func (c *Client) GetMetadata(ctx context.Context, ratingKey string) (*models.MediaItem, error) {
	var resp models.MetadataResponse
	if err := c.doJSONRequest(ctx, "/library/metadata/"+url.PathEscape(ratingKey), &resp); err != nil {
		return nil, err
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("metadata for rating key %s: empty container", ratingKey)
	}
	return &resp.MediaContainer.Metadata[0], nil
}
