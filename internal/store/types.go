// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package store

import "time"

// Document is the unit of ingestion. Content is already-extracted plain
// text; binary decoding happens in the loader before the core sees it.
// A Document is immutable once chunked.
type Document struct {
	ID          string
	Name        string
	ContentType string
	Source      string
	Content     string
	IngestedAt  time.Time
}

// Chunk is a bounded fragment of a document, the unit of retrieval.
// Start and End are character offsets into the parent document's content.
type Chunk struct {
	ID         string // "<documentID>:<ordinal>", unique within an index
	DocumentID string
	Ordinal    int
	Text       string
	Start      int
	End        int
	Metadata   map[string]string
}

// Entry pairs a chunk with its embedding vector for indexing.
type Entry struct {
	Chunk  Chunk
	Vector []float32
}

// ScoredChunk is one retrieval result. Similarity is cosine similarity,
// 1.0 for identical direction.
type ScoredChunk struct {
	Chunk      Chunk
	Similarity float64
}

// Stats summarizes index contents for health reporting.
type Stats struct {
	DocumentCount int64 `json:"document_count"`
	ChunkCount    int64 `json:"chunk_count"`
}
