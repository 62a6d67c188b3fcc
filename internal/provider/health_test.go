// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package provider_test

import (
	"testing"
	"time"

	"github.com/raglet-dev/raglet/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthTracker_StartsHealthy(t *testing.T) {
	h, err := provider.NewHealthTracker(time.Second)
	require.NoError(t, err)
	assert.True(t, h.IsHealthy())
}

func TestHealthTracker_InvalidCooldown(t *testing.T) {
	_, err := provider.NewHealthTracker(0)
	require.Error(t, err)

	_, err = provider.NewHealthTracker(-time.Second)
	require.Error(t, err)
}

func TestHealthTracker_FailureAndCooldown(t *testing.T) {
	h, err := provider.NewHealthTracker(30 * time.Second)
	require.NoError(t, err)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	h.SetNowFunc(func() time.Time { return now })

	h.RecordFailure()
	assert.False(t, h.IsHealthy())

	// Still within cooldown.
	now = now.Add(29 * time.Second)
	assert.False(t, h.IsHealthy())

	// Cooldown elapsed, eligible for retry.
	now = now.Add(time.Second)
	assert.True(t, h.IsHealthy())
}

func TestHealthTracker_SuccessResets(t *testing.T) {
	h, err := provider.NewHealthTracker(30 * time.Second)
	require.NoError(t, err)

	h.RecordFailure()
	assert.False(t, h.IsHealthy())

	h.RecordSuccess()
	assert.True(t, h.IsHealthy())
}

func TestHealthTracker_Metrics(t *testing.T) {
	h, err := provider.NewHealthTracker(30 * time.Second)
	require.NoError(t, err)

	m := h.Metrics()
	assert.True(t, m.Available)
	assert.EqualValues(t, 0, m.FailureCount)
	assert.Nil(t, m.LastFailureAt)
	assert.Nil(t, m.CooldownUntil)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	h.SetNowFunc(func() time.Time { return now })

	h.RecordFailure()
	h.RecordFailure()

	m = h.Metrics()
	assert.False(t, m.Available)
	assert.EqualValues(t, 2, m.FailureCount)
	require.NotNil(t, m.LastFailureAt)
	assert.Equal(t, now, *m.LastFailureAt)
	require.NotNil(t, m.CooldownUntil)
	assert.Equal(t, now.Add(30*time.Second), *m.CooldownUntil)
}
