// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package store

import (
	"context"
	"math"
	"sort"
	"sync"

	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// Compile-time interface check.
var _ Index = (*MemoryIndex)(nil)

// MemoryIndex is a brute-force in-memory Index. It backs the "memory"
// storage backend and keeps tests free of the cgo sqlite dependency.
type MemoryIndex struct {
	mu         sync.RWMutex
	dimensions int
	entries    []memoryEntry
	ids        map[string]struct{}
}

type memoryEntry struct {
	entry Entry
	seq   int64
}

// NewMemoryIndex creates an empty index accepting vectors of the given
// dimensionality.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions < 1 {
		return nil, ragerr.Errorf(ragerr.CodeRequestInvalidArgument, "index dimensions must be >= 1, got %d", dimensions)
	}
	return &MemoryIndex{
		dimensions: dimensions,
		ids:        make(map[string]struct{}),
	}, nil
}

func (m *MemoryIndex) Add(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate the whole batch before touching state so a failure
	// leaves the index exactly as it was.
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if len(e.Vector) != m.dimensions {
			return ragerr.New(ragerr.CodeIndexDimensionMismatch,
				"vector dimensionality does not match index",
				ragerr.FieldChunkID(e.Chunk.ID),
				ragerr.Field("got", len(e.Vector)),
				ragerr.Field("want", m.dimensions),
			)
		}
		if _, dup := m.ids[e.Chunk.ID]; dup {
			return ragerr.New(ragerr.CodeIndexDuplicateID, "chunk id already indexed", ragerr.FieldChunkID(e.Chunk.ID))
		}
		if _, dup := seen[e.Chunk.ID]; dup {
			return ragerr.New(ragerr.CodeIndexDuplicateID, "duplicate chunk id within batch", ragerr.FieldChunkID(e.Chunk.ID))
		}
		seen[e.Chunk.ID] = struct{}{}
	}

	next := m.nextSeqLocked()
	for _, e := range entries {
		m.entries = append(m.entries, memoryEntry{entry: e, seq: next})
		m.ids[e.Chunk.ID] = struct{}{}
		next++
	}
	return nil
}

// ReplaceDocument swaps the document's chunks for the given entries
// under one lock hold, so queries see either the old version or the
// new one. Validation runs against the post-delete view: the new
// entries may reuse the replaced document's chunk ids.
func (m *MemoryIndex) ReplaceDocument(_ context.Context, documentID string, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]memoryEntry, 0, len(m.entries)+len(entries))
	keptIDs := make(map[string]struct{}, len(m.ids)+len(entries))
	for _, me := range m.entries {
		if me.entry.Chunk.DocumentID == documentID {
			continue
		}
		kept = append(kept, me)
		keptIDs[me.entry.Chunk.ID] = struct{}{}
	}

	// Validate before committing so a failure leaves the index exactly
	// as it was.
	for _, e := range entries {
		if len(e.Vector) != m.dimensions {
			return ragerr.New(ragerr.CodeIndexDimensionMismatch,
				"vector dimensionality does not match index",
				ragerr.FieldChunkID(e.Chunk.ID),
				ragerr.Field("got", len(e.Vector)),
				ragerr.Field("want", m.dimensions),
			)
		}
		if _, dup := keptIDs[e.Chunk.ID]; dup {
			return ragerr.New(ragerr.CodeIndexDuplicateID, "chunk id already indexed", ragerr.FieldChunkID(e.Chunk.ID))
		}
		keptIDs[e.Chunk.ID] = struct{}{}
	}

	next := m.nextSeqLocked()
	for _, e := range entries {
		kept = append(kept, memoryEntry{entry: e, seq: next})
		next++
	}
	m.entries = kept
	m.ids = keptIDs
	return nil
}

func (m *MemoryIndex) nextSeqLocked() int64 {
	if n := len(m.entries); n > 0 {
		return m.entries[n-1].seq + 1
	}
	return 0
}

func (m *MemoryIndex) Query(_ context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	if k < 1 {
		return nil, ragerr.Errorf(ragerr.CodeRequestInvalidArgument, "k must be >= 1, got %d", k)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return nil, nil
	}
	if len(vector) != m.dimensions {
		return nil, ragerr.New(ragerr.CodeIndexDimensionMismatch,
			"query vector dimensionality does not match index",
			ragerr.Field("got", len(vector)),
			ragerr.Field("want", m.dimensions),
		)
	}

	type scored struct {
		sc  ScoredChunk
		seq int64
	}
	results := make([]scored, 0, len(m.entries))
	for _, me := range m.entries {
		results = append(results, scored{
			sc:  ScoredChunk{Chunk: me.entry.Chunk, Similarity: cosine(vector, me.entry.Vector)},
			seq: me.seq,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].sc.Similarity != results[j].sc.Similarity {
			return results[i].sc.Similarity > results[j].sc.Similarity
		}
		return results[i].seq < results[j].seq
	})

	if k > len(results) {
		k = len(results)
	}
	out := make([]ScoredChunk, k)
	for i := range out {
		out[i] = results[i].sc
	}
	return out, nil
}

func (m *MemoryIndex) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, me := range m.entries {
		if me.entry.Chunk.DocumentID == documentID {
			delete(m.ids, me.entry.Chunk.ID)
			continue
		}
		kept = append(kept, me)
	}
	m.entries = kept
	return nil
}

func (m *MemoryIndex) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.ids = make(map[string]struct{})
	return nil
}

func (m *MemoryIndex) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries)), nil
}

func (m *MemoryIndex) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make(map[string]struct{})
	for _, me := range m.entries {
		docs[me.entry.Chunk.DocumentID] = struct{}{}
	}
	return Stats{
		DocumentCount: int64(len(docs)),
		ChunkCount:    int64(len(m.entries)),
	}, nil
}

func (m *MemoryIndex) Dimensions() int { return m.dimensions }

func (m *MemoryIndex) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
