// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package store_test

import (
	"context"
	"testing"

	"github.com/raglet-dev/raglet/internal/store"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memEntry(id, docID string, vec []float32) store.Entry {
	return store.Entry{
		Chunk:  store.Chunk{ID: id, DocumentID: docID, Text: id},
		Vector: vec,
	}
}

func TestMemoryIndex_QueryOrdering(t *testing.T) {
	ctx := context.Background()
	ix, err := store.NewMemoryIndex(3)
	require.NoError(t, err)

	require.NoError(t, ix.Add(ctx, []store.Entry{
		memEntry("a:0", "a", []float32{0, 1, 0}),
		memEntry("a:1", "a", []float32{1, 0, 0}),
		memEntry("a:2", "a", []float32{0.9, 0.1, 0}),
	}))

	results, err := ix.Query(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a:1", results[0].Chunk.ID)
	assert.Equal(t, "a:2", results[1].Chunk.ID)
	assert.Equal(t, "a:0", results[2].Chunk.ID)
}

func TestMemoryIndex_TieBreakByInsertion(t *testing.T) {
	ctx := context.Background()
	ix, err := store.NewMemoryIndex(2)
	require.NoError(t, err)

	require.NoError(t, ix.Add(ctx, []store.Entry{
		memEntry("x:0", "x", []float32{1, 0}),
		memEntry("y:0", "y", []float32{1, 0}),
	}))

	results, err := ix.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x:0", results[0].Chunk.ID)
	assert.Equal(t, "y:0", results[1].Chunk.ID)
}

func TestMemoryIndex_EmptyQuery(t *testing.T) {
	ctx := context.Background()
	ix, err := store.NewMemoryIndex(4)
	require.NoError(t, err)

	results, err := ix.Query(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryIndex_DuplicateIDRejectedAtomically(t *testing.T) {
	ctx := context.Background()
	ix, err := store.NewMemoryIndex(2)
	require.NoError(t, err)

	require.NoError(t, ix.Add(ctx, []store.Entry{memEntry("d:0", "d", []float32{1, 0})}))

	err = ix.Add(ctx, []store.Entry{
		memEntry("d:1", "d", []float32{0, 1}),
		memEntry("d:0", "d", []float32{1, 0}),
	})
	require.Error(t, err)
	assert.True(t, ragerr.IsDuplicateID(err))

	count, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	ix, err := store.NewMemoryIndex(3)
	require.NoError(t, err)

	err = ix.Add(ctx, []store.Entry{memEntry("d:0", "d", []float32{1, 0})})
	require.Error(t, err)
	assert.True(t, ragerr.HasCode(err, ragerr.CodeIndexDimensionMismatch))
}

func TestMemoryIndex_DeleteDocumentAndStats(t *testing.T) {
	ctx := context.Background()
	ix, err := store.NewMemoryIndex(2)
	require.NoError(t, err)

	require.NoError(t, ix.Add(ctx, []store.Entry{
		memEntry("a:0", "a", []float32{1, 0}),
		memEntry("b:0", "b", []float32{0, 1}),
		memEntry("b:1", "b", []float32{1, 1}),
	}))

	require.NoError(t, ix.DeleteDocument(ctx, "b"))

	stats, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DocumentCount)
	assert.Equal(t, int64(1), stats.ChunkCount)

	// Deleted ids become reusable.
	require.NoError(t, ix.Add(ctx, []store.Entry{memEntry("b:0", "b", []float32{0, 1})}))
}

func TestMemoryIndex_ReplaceDocumentReusesIDs(t *testing.T) {
	ctx := context.Background()
	ix, err := store.NewMemoryIndex(2)
	require.NoError(t, err)

	require.NoError(t, ix.Add(ctx, []store.Entry{
		memEntry("a:0", "a", []float32{1, 0}),
		memEntry("a:1", "a", []float32{0, 1}),
		memEntry("b:0", "b", []float32{1, 1}),
	}))

	require.NoError(t, ix.ReplaceDocument(ctx, "a", []store.Entry{
		memEntry("a:0", "a", []float32{0, 1}),
	}))

	stats, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.DocumentCount)
	assert.Equal(t, int64(2), stats.ChunkCount)

	results, err := ix.Query(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a:0", results[0].Chunk.ID)
}

func TestMemoryIndex_ReplaceDocumentFailureKeepsOldEntries(t *testing.T) {
	ctx := context.Background()
	ix, err := store.NewMemoryIndex(2)
	require.NoError(t, err)

	require.NoError(t, ix.Add(ctx, []store.Entry{
		memEntry("a:0", "a", []float32{1, 0}),
		memEntry("b:0", "b", []float32{0, 1}),
	}))

	// Colliding with another document's id fails the whole replace.
	err = ix.ReplaceDocument(ctx, "a", []store.Entry{
		memEntry("a:0", "a", []float32{0, 1}),
		memEntry("b:0", "a", []float32{1, 1}),
	})
	require.Error(t, err)
	assert.True(t, ragerr.IsDuplicateID(err))

	// The old version of "a" is still there.
	results, err := ix.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a:0", results[0].Chunk.ID)

	count, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryIndex_DeleteAll(t *testing.T) {
	ctx := context.Background()
	ix, err := store.NewMemoryIndex(2)
	require.NoError(t, err)

	require.NoError(t, ix.Add(ctx, []store.Entry{memEntry("a:0", "a", []float32{1, 0})}))
	require.NoError(t, ix.DeleteAll(ctx))

	count, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
