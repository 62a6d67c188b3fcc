// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package store

import "context"

// Index persists chunk vectors and supports k-nearest-neighbor search
// under cosine similarity. All vectors in one index share the same
// dimensionality; mixing embedders without reindexing is an error.
//
// Semantics every implementation must honor:
//   - Add is all-or-nothing per call; a duplicate chunk id fails the
//     whole batch with index.entry.duplicate_id.
//   - Query on an empty index returns an empty slice, never an error.
//   - Query results are ordered by descending similarity; ties resolve
//     by insertion order (earlier entry wins).
//   - Concurrent Query during an Add sees pre-add or post-add state,
//     never a partially-written batch.
//   - ReplaceDocument swaps one document's chunks for the given
//     entries in a single atomic step: concurrent queries see either
//     the prior chunks or the new ones, and a failed replace leaves
//     the prior chunks intact. The new entries may reuse the chunk ids
//     the replaced document held.
type Index interface {
	Add(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)
	ReplaceDocument(ctx context.Context, documentID string, entries []Entry) error
	DeleteDocument(ctx context.Context, documentID string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (Stats, error)
	Dimensions() int
	Close() error
}
