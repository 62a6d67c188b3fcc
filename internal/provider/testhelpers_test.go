// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package provider_test

import (
	"context"
	"sync"

	"github.com/raglet-dev/raglet/internal/provider"
)

// mockGenerator is a configurable in-memory Generator for registry and
// routing tests.
type mockGenerator struct {
	mu        sync.Mutex
	name      string
	available bool
	reply     string
	err       error
	calls     int
	successes int
	failures  int
}

func newMockGenerator(name string, available bool) *mockGenerator {
	return &mockGenerator{name: name, available: available, reply: name + " says hi"}
}

func (m *mockGenerator) Name() string { return m.name }

func (m *mockGenerator) Available(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

func (m *mockGenerator) Generate(_ context.Context, _ provider.Request) (provider.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return provider.Response{}, m.err
	}
	return provider.Response{Text: m.reply, Model: m.name + "-model"}, nil
}

func (m *mockGenerator) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes++
}

func (m *mockGenerator) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
	m.available = false
}

func (m *mockGenerator) Close() error { return nil }
