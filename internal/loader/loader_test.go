// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raglet-dev/raglet/internal/loader"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Text(t *testing.T) {
	path := writeFile(t, "notes.txt", "plain text content")

	doc, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", doc.ID)
	assert.Equal(t, "notes.txt", doc.Source)
	assert.Equal(t, "text/plain", doc.ContentType)
	assert.Equal(t, "plain text content", doc.Content)
}

func TestLoad_Markdown(t *testing.T) {
	path := writeFile(t, "readme.md", "# Title\n\nbody")

	doc, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", doc.ContentType)
	assert.Equal(t, "# Title\n\nbody", doc.Content)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "binary.bin", "\x00\x01")

	_, err := loader.Load(path)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIngestUnsupportedType))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := loader.Load(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIngestLoadFailure))
}

func TestSampleDocuments(t *testing.T) {
	docs := loader.SampleDocuments()
	require.NotEmpty(t, docs)

	seen := make(map[string]bool)
	for _, doc := range docs {
		assert.NotEmpty(t, doc.ID)
		assert.NotEmpty(t, doc.Content)
		assert.Equal(t, "text/plain", doc.ContentType)
		assert.False(t, seen[doc.ID], "duplicate sample id %s", doc.ID)
		seen[doc.ID] = true
	}
}
