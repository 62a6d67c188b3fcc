// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

// Package retrieve turns a question into scored chunks by embedding
// the question and querying the vector index.
package retrieve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/raglet-dev/raglet/internal/embed"
	"github.com/raglet-dev/raglet/internal/store"
	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// Retriever embeds questions and fetches the top-k most similar
// chunks. An empty index yields an empty result, not an error.
type Retriever struct {
	embedder embed.Embedder
	index    store.Index
	logger   *slog.Logger
}

// NewRetriever wires an embedder to an index.
func NewRetriever(embedder embed.Embedder, index store.Index, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Retrieve returns up to k chunks ordered by descending similarity.
// k must be >= 1 and the question must not be blank.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]store.ScoredChunk, error) {
	if k < 1 {
		return nil, ragerr.Errorf(ragerr.CodeRequestInvalidArgument, "k must be >= 1, got %d", k)
	}
	if strings.TrimSpace(question) == "" {
		return nil, ragerr.New(ragerr.CodeRequestInvalidArgument, "question must not be blank")
	}

	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, ragerr.Errorf(ragerr.CodeEmbedResponseInvalid,
			"embedding the question produced %d vectors", len(vectors))
	}

	scored, err := r.index.Query(ctx, vectors[0], k)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("retrieved chunks",
		"requested", k,
		"returned", len(scored))
	return scored, nil
}
