// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package sqlite_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDir creates a temp directory for a test index and returns its path.
func testDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "raglet-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}
