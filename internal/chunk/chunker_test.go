// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package chunk_test

import (
	"strings"
	"testing"

	"github.com/raglet-dev/raglet/internal/chunk"
	"github.com/raglet-dev/raglet/internal/store"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id, content string) store.Document {
	return store.Document{ID: id, Name: id + ".txt", ContentType: "text/plain", Content: content}
}

// uniform returns text with no paragraph or sentence boundaries so every
// cut is a hard character cut.
func uniform(n int) string {
	return strings.Repeat("x", n)
}

func TestSplit_ExactWindows(t *testing.T) {
	s, err := chunk.NewSplitter(1000, 200)
	require.NoError(t, err)

	chunks, err := s.Split(doc("d", uniform(2400)))
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, 1000, len(chunks[0].Text))
	assert.Equal(t, 1000, len(chunks[1].Text))
	assert.Equal(t, 600, len(chunks[2].Text))

	// Chunk 2 starts 200 characters before chunk 1 ends.
	assert.Equal(t, chunks[0].End-200, chunks[1].Start)
}

func TestSplit_ConsecutiveFullChunksOverlapExactly(t *testing.T) {
	s, err := chunk.NewSplitter(100, 20)
	require.NoError(t, err)

	chunks, err := s.Split(doc("d", uniform(500)))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	for i := 1; i < len(chunks)-1; i++ {
		assert.Equal(t, 20, chunks[i-1].End-chunks[i].Start, "overlap between chunks %d and %d", i-1, i)
	}
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), 100)
		assert.NotEmpty(t, c.Text)
	}
}

func TestSplit_ReassemblesToOriginal(t *testing.T) {
	s, err := chunk.NewSplitter(120, 30)
	require.NoError(t, err)

	content := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20)
	chunks, err := s.Split(doc("d", content))
	require.NoError(t, err)

	runes := []rune(content)
	var rebuilt []rune
	for _, c := range chunks {
		// Skip whatever the previous chunk already covered.
		from := c.Start
		if from < len(rebuilt) {
			from = len(rebuilt)
		}
		assert.Equal(t, string(runes[c.Start:c.End]), c.Text)
		rebuilt = append(rebuilt, []rune(c.Text)[from-c.Start:]...)
	}
	assert.Equal(t, content, string(rebuilt))
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	s, err := chunk.NewSplitter(100, 10)
	require.NoError(t, err)

	// A sentence ends inside the backtrack region of the first window.
	content := uniform(80) + ". " + uniform(120)
	chunks, err := s.Split(doc("d", content))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assert.True(t, strings.HasSuffix(chunks[0].Text, "."), "first chunk should end at the sentence: %q", chunks[0].Text)
	assert.Equal(t, 81, chunks[0].End)
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	s, err := chunk.NewSplitter(100, 10)
	require.NoError(t, err)

	content := uniform(85) + "\n\n" + uniform(150)
	chunks, err := s.Split(doc("d", content))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assert.True(t, strings.HasSuffix(chunks[0].Text, "\n\n"), "first chunk should end after the paragraph break")
}

func TestSplit_ShortDocumentSingleChunk(t *testing.T) {
	s, err := chunk.NewSplitter(1000, 200)
	require.NoError(t, err)

	chunks, err := s.Split(doc("d", "just a short note"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a short note", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, "d:0", chunks[0].ID)
	assert.Equal(t, 0, chunks[0].Ordinal)
}

func TestSplit_EmptyDocument(t *testing.T) {
	s, err := chunk.NewSplitter(1000, 200)
	require.NoError(t, err)

	_, err = s.Split(doc("d", ""))
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIngestEmptyDocument))

	_, err = s.Split(doc("d", "   \n\t  "))
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIngestEmptyDocument))
}

func TestSplit_UnsupportedContentType(t *testing.T) {
	s, err := chunk.NewSplitter(1000, 200)
	require.NoError(t, err)

	d := store.Document{ID: "d", ContentType: "application/pdf", Content: "%PDF-1.4 ..."}
	_, err = s.Split(d)
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIngestUnsupportedType))
}

func TestSplit_MetadataCarriesSource(t *testing.T) {
	s, err := chunk.NewSplitter(1000, 200)
	require.NoError(t, err)

	chunks, err := s.Split(doc("manual", "short content"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "manual.txt", chunks[0].Metadata["source"])
	assert.Equal(t, "manual", chunks[0].Metadata["document_id"])
}

func TestNewSplitter_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 1000, 200, false},
		{"zero overlap", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chunk.NewSplitter(tt.size, tt.overlap)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ragerr.IsInvalidArgument(err))
				return
			}
			require.NoError(t, err)
		})
	}
}
