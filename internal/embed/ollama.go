// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Raglet Contributors

package embed

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	ragerr "github.com/raglet-dev/raglet/pkg/errors"
)

// ollamaBatchSize caps how many documents one embedding round trip
// carries; local servers choke on very large batches.
const ollamaBatchSize = 32

// OllamaConfig holds configuration for the local Ollama embedding
// backend.
type OllamaConfig struct {
	ServerURL  string
	Model      string
	Dimensions int
}

// Ollama embeds text through a locally served Ollama model.
type Ollama struct {
	embedder *embeddings.EmbedderImpl
	config   OllamaConfig
}

// Compile-time interface check.
var _ Embedder = (*Ollama)(nil)

// NewOllama creates the backend.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	if cfg.Model == "" {
		return nil, ragerr.New(ragerr.CodeConfigValidateInvalidValue, "ollama embedder: missing model", ragerr.FieldBackend("ollama"))
	}
	if cfg.Dimensions < 1 {
		return nil, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "ollama embedder: dimensions must be >= 1, got %d", cfg.Dimensions)
	}

	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.ServerURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeEmbedBackendFailure, "initializing ollama client", ragerr.FieldBackend("ollama"))
	}

	embedder, err := embeddings.NewEmbedder(llm,
		embeddings.WithBatchSize(ollamaBatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeEmbedBackendFailure, "creating ollama embedder", ragerr.FieldBackend("ollama"))
	}

	return &Ollama{embedder: embedder, config: cfg}, nil
}

func (e *Ollama) Name() string { return "ollama" }

func (e *Ollama) Dimensions() int { return e.config.Dimensions }

func (e *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, ragerr.Wrap(err, ragerr.CodeEmbedBackendFailure, "ollama embeddings request", ragerr.FieldBackend("ollama"))
	}

	if len(vectors) != len(texts) {
		return nil, ragerr.Errorf(ragerr.CodeEmbedResponseInvalid,
			"ollama embeddings: got %d vectors for %d inputs", len(vectors), len(texts))
	}
	for _, vec := range vectors {
		if len(vec) != e.config.Dimensions {
			return nil, ragerr.Errorf(ragerr.CodeEmbedResponseInvalid,
				"ollama embeddings: vector has %d dimensions, expected %d", len(vec), e.config.Dimensions)
		}
	}
	return vectors, nil
}
