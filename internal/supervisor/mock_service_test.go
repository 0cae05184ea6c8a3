// Playkit - Adaptive Playback Sessions for Plex-compatible Media Servers
// Copyright 2026 Flixor Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flixor/playkit

package supervisor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*mockService)(nil)

// mockService implements suture.Service with controllable behavior.
type mockService struct {
	name       string
	startCount atomic.Int32
	stopCount  atomic.Int32

	mu  sync.Mutex
	err error
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	defer m.stopCount.Add(1)

	m.mu.Lock()
	err := m.err
	m.mu.Unlock()

	if err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// setError makes the service return err immediately instead of parking.
func (m *mockService) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockService) String() string {
	return m.name
}
